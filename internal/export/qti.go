package export

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/mind-engage/quizgenix/internal/quiz"
)

// QTI writes an IMS QTI 2.1 content package: a manifest plus one
// choiceInteraction item per question.
type QTI struct{}

func (QTI) ContentType() string { return "application/zip" }
func (QTI) Extension() string   { return "zip" }

func (QTI) Export(w io.Writer, q quiz.Quiz) error {
	zw := zip.NewWriter(w)

	mf := imsManifest{
		Xmlns:      "http://www.imsglobal.org/xsd/imscp_v1p1",
		Identifier: "MANIFEST-" + q.ID,
		Resources:  []imsResource{},
	}
	for _, qn := range q.Questions {
		id := itemID(qn)
		itemName := id + ".xml"
		mf.Resources = append(mf.Resources, imsResource{
			Identifier: id,
			Type:       "imsqti_item_xmlv2p1",
			Href:       itemName,
			Files:      []imsFile{{Href: itemName}},
		})
		iw, err := zw.Create(itemName)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(iw, buildItemXML(qn)); err != nil {
			return err
		}
	}

	mfw, err := zw.Create("imsmanifest.xml")
	if err != nil {
		return err
	}
	b, err := xml.MarshalIndent(mf, "", "  ")
	if err != nil {
		return err
	}
	if _, err := io.WriteString(mfw, xml.Header); err != nil {
		return err
	}
	if _, err := mfw.Write(b); err != nil {
		return err
	}
	return zw.Close()
}

type imsManifest struct {
	XMLName    xml.Name      `xml:"manifest"`
	Xmlns      string        `xml:"xmlns,attr,omitempty"`
	Identifier string        `xml:"identifier,attr"`
	Resources  []imsResource `xml:"resources>resource"`
}
type imsResource struct {
	Identifier string    `xml:"identifier,attr"`
	Type       string    `xml:"type,attr"`
	Href       string    `xml:"href,attr"`
	Files      []imsFile `xml:"file"`
}
type imsFile struct {
	Href string `xml:"href,attr"`
}

func itemID(q quiz.Question) string { return fmt.Sprintf("Q%d", q.ID) }

func choiceID(i int) string { return fmt.Sprintf("C%d", i) }

func buildItemXML(q quiz.Question) string {
	var choices strings.Builder
	for i, opt := range q.Options {
		fmt.Fprintf(&choices, "\n      <simpleChoice identifier=\"%s\">%s</simpleChoice>", choiceID(i), esc(opt))
	}
	feedback := ""
	if q.Explanation != "" {
		feedback = fmt.Sprintf("\n  <modalFeedback outcomeIdentifier=\"FEEDBACK\" identifier=\"EXPLANATION\" showHide=\"show\">%s</modalFeedback>", esc(q.Explanation))
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<assessmentItem identifier="%s" title="%s" adaptive="false" timeDependent="false" xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1">
  <responseDeclaration identifier="RESPONSE" cardinality="single" baseType="identifier">
    <correctResponse><value>%s</value></correctResponse>
  </responseDeclaration>
  <outcomeDeclaration identifier="SCORE" cardinality="single" baseType="float"/>
  <itemBody>
    <p>%s</p>
    <choiceInteraction responseIdentifier="RESPONSE" shuffle="false" maxChoices="1">%s
    </choiceInteraction>
  </itemBody>
  <responseProcessing template="http://www.imsglobal.org/question/qti_v2p1/rptemplates/match_correct"/>%s
</assessmentItem>`,
		itemID(q), esc(q.Topic), choiceID(q.CorrectIndex), esc(q.Prompt), choices.String(), feedback)
}

func esc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
