package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mind-engage/quizgenix/internal/quiz"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		topic, subject string
		want           quiz.Domain
	}{
		{"closures", "javascript", quiz.DomainJavaScript},
		{"Closures", "", quiz.DomainJavaScript},
		{"Node.js streams", "web", quiz.DomainJavaScript},
		{"generators", "JavaScript", quiz.DomainPython}, // topic outranks subject
		{"promises", "python", quiz.DomainJavaScript},
		{"python", "closures", quiz.DomainPython},
		{"generators", "", quiz.DomainPython},
		{"List Comprehensions", "programming", quiz.DomainPython},
		{"Django ORM", "", quiz.DomainPython},
		{"integrals", "python", quiz.DomainMathematics},
		{"algebra", "python", quiz.DomainMathematics},
		{"numpy algebra", "", quiz.DomainPython}, // language name beats category in one text
		{"closures in mathematics", "", quiz.DomainJavaScript},
		{"Impressionism", "python", quiz.DomainPython}, // subject used when topic is unmatched
		{"Quadratic equations", "", quiz.DomainMathematics},
		{"anything", "Mathematics", quiz.DomainMathematics},
		{"Photosynthesis", "", quiz.DomainScience},
		{"World War II", "", quiz.DomainHistory},
		{"Ancient Rome", "", quiz.DomainHistory},
		{"Capital cities of Europe", "", quiz.DomainGeography},
		{"Impressionism", "Art", quiz.DomainGeneric},
		{"", "", quiz.DomainGeneric},
		{"   ", "!!!", quiz.DomainGeneric},
		{"jsonschema", "", quiz.DomainGeneric}, // "js" only matches a whole word
	}
	for _, tt := range tests {
		t.Run(tt.topic+"/"+tt.subject, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.topic, tt.subject))
		})
	}
}

func TestClassifyTotalAndDeterministic(t *testing.T) {
	known := map[quiz.Domain]bool{}
	for _, d := range quiz.AllDomains() {
		known[d] = true
	}
	inputs := []string{"", "x", "ÄÖÜ ß", "c++", "🙂 emoji", "python javascript", "MATH!!!", "\t\n", "node.js?", "a very long topic about many things"}
	for _, topic := range inputs {
		for _, subject := range inputs {
			got := Classify(topic, subject)
			assert.True(t, known[got], "unknown domain %q for %q/%q", got, topic, subject)
			assert.Equal(t, got, Classify(topic, subject))
		}
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "node js closures", normalize("  Node.js   Closures! "))
	assert.Equal(t, "c", normalize("C++"))
	assert.Equal(t, "", normalize("?!"))
}
