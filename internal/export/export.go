// Package export renders quizzes and their results into downloadable formats.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mind-engage/quizgenix/internal/apperr"
	"github.com/mind-engage/quizgenix/internal/quiz"
)

// Exporter writes a quiz, answers included, in one format.
type Exporter interface {
	ContentType() string
	Extension() string
	Export(w io.Writer, q quiz.Quiz) error
}

var exporters = map[string]Exporter{
	"qti":  QTI{},
	"json": JSON{},
}

// Formats lists the supported export format names.
func Formats() []string { return []string{"json", "qti"} }

// Lookup returns the exporter for format; empty means qti.
func Lookup(format string) (Exporter, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "" {
		f = "qti"
	}
	e, ok := exporters[f]
	if !ok {
		return nil, apperr.Validation("unsupported export format %q (want one of %s)", format, strings.Join(Formats(), ", "))
	}
	return e, nil
}

// Filename is a download name derived from the quiz title.
func Filename(q quiz.Quiz, e Exporter) string {
	var b strings.Builder
	for _, r := range strings.ToLower(q.Title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "-"):
			b.WriteByte('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = "quiz-" + q.ID
	}
	return fmt.Sprintf("%s.%s", name, e.Extension())
}

type JSON struct{}

func (JSON) ContentType() string { return "application/json" }
func (JSON) Extension() string   { return "json" }

func (JSON) Export(w io.Writer, q quiz.Quiz) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(q)
}
