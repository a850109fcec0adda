package quiz

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// OptionCount is the number of answer options every question carries.
const OptionCount = 4

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func AllDifficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

// Domain is a coarse knowledge category used to select question content.
type Domain string

const (
	DomainJavaScript  Domain = "javascript"
	DomainPython      Domain = "python"
	DomainMathematics Domain = "mathematics"
	DomainScience     Domain = "science"
	DomainHistory     Domain = "history"
	DomainGeography   Domain = "geography"
	DomainGeneric     Domain = "generic"
)

func AllDomains() []Domain {
	return []Domain{
		DomainJavaScript, DomainPython, DomainMathematics,
		DomainScience, DomainHistory, DomainGeography, DomainGeneric,
	}
}

func ParseDomain(s string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllDomains() {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown domain %q", s)
}

type Reference struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Kind  string `json:"kind"` // documentation|article|video|book
}

// Template is prompt, options, correct index and explanation before it is
// bound into a quiz.
type Template struct {
	Prompt       string      `json:"prompt"`
	Options      []string    `json:"options"`
	CorrectIndex int         `json:"correct_index"`
	Explanation  string      `json:"explanation"`
	References   []Reference `json:"references,omitempty"`
}

func (t Template) Validate() error {
	if strings.TrimSpace(t.Prompt) == "" {
		return errors.New("template: empty prompt")
	}
	if len(t.Options) != OptionCount {
		return fmt.Errorf("template %q: want %d options, got %d", t.Prompt, OptionCount, len(t.Options))
	}
	if t.CorrectIndex < 0 || t.CorrectIndex >= len(t.Options) {
		return fmt.Errorf("template %q: correct index %d out of range", t.Prompt, t.CorrectIndex)
	}
	return nil
}

// Clone returns a deep copy so callers can never alias catalog storage.
func (t Template) Clone() Template {
	out := t
	out.Options = append([]string(nil), t.Options...)
	if t.References != nil {
		out.References = append([]Reference(nil), t.References...)
	}
	return out
}

const (
	SourceCurated   = "curated"
	SourceGenerated = "generated"
)

type Question struct {
	ID int `json:"id"`
	Template
	Difficulty Difficulty `json:"difficulty"`
	Topic      string     `json:"topic"`
	Domain     Domain     `json:"domain"`
	Source     string     `json:"source"` // curated|generated
}

// PublicQuestion is what a quiz taker sees: no correct index, explanation
// or references.
type PublicQuestion struct {
	ID         int        `json:"id"`
	Prompt     string     `json:"prompt"`
	Options    []string   `json:"options"`
	Difficulty Difficulty `json:"difficulty"`
	Topic      string     `json:"topic"`
}

func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:         q.ID,
		Prompt:     q.Prompt,
		Options:    append([]string(nil), q.Options...),
		Difficulty: q.Difficulty,
		Topic:      q.Topic,
	}
}

func PublicQuestions(qs []Question) []PublicQuestion {
	out := make([]PublicQuestion, len(qs))
	for i, q := range qs {
		out[i] = q.Public()
	}
	return out
}

type Quiz struct {
	ID               string     `json:"id"`
	CreatorID        string     `json:"creator_id"`
	Title            string     `json:"title"`
	Subject          string     `json:"subject"`
	Topic            string     `json:"topic"`
	Difficulty       Difficulty `json:"difficulty"`
	Domain           Domain     `json:"domain"`
	Active           bool       `json:"active"`
	KnowledgeVersion string     `json:"knowledge_version,omitempty"`
	Questions        []Question `json:"questions"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// HasQuestion reports whether id names one of the quiz's questions.
func (q Quiz) HasQuestion(id int) bool {
	for _, x := range q.Questions {
		if x.ID == id {
			return true
		}
	}
	return false
}

// Summary is the list view of a quiz.
type Summary struct {
	ID            string     `json:"id"`
	CreatorID     string     `json:"creator_id"`
	Title         string     `json:"title"`
	Subject       string     `json:"subject"`
	Topic         string     `json:"topic"`
	Difficulty    Difficulty `json:"difficulty"`
	Domain        Domain     `json:"domain"`
	Active        bool       `json:"active"`
	QuestionCount int        `json:"question_count"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (q Quiz) Summary() Summary {
	return Summary{
		ID:            q.ID,
		CreatorID:     q.CreatorID,
		Title:         q.Title,
		Subject:       q.Subject,
		Topic:         q.Topic,
		Difficulty:    q.Difficulty,
		Domain:        q.Domain,
		Active:        q.Active,
		QuestionCount: len(q.Questions),
		CreatedAt:     q.CreatedAt,
	}
}
