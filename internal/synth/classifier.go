package synth

import (
	"strings"

	"github.com/mind-engage/quizgenix/internal/quiz"
)

type rule struct {
	domain   quiz.Domain
	keywords []string // normalized; multi-word keywords match whole words in order
}

// tiers are evaluated in order, rules within a tier in their listed order.
// Language names beat language concepts, which beat broad subject categories.
var tiers = [][]rule{
	{
		{quiz.DomainJavaScript, []string{"javascript", "js", "node js", "nodejs", "typescript", "ecmascript", "es6", "react", "vue", "angular"}},
		{quiz.DomainPython, []string{"python", "py", "python3", "django", "flask", "pandas", "numpy"}},
	},
	{
		{quiz.DomainJavaScript, []string{"closure", "closures", "promise", "promises", "async await", "callback", "callbacks",
			"hoisting", "prototype", "prototypes", "prototypal inheritance", "event loop", "dom", "npm", "arrow functions"}},
		{quiz.DomainPython, []string{"list comprehension", "list comprehensions", "decorator", "decorators", "generators",
			"pip", "asyncio", "pep 8", "gil", "dunder methods", "virtualenv"}},
	},
	{
		{quiz.DomainMathematics, []string{"math", "maths", "mathematics", "algebra", "geometry", "calculus", "trigonometry",
			"statistics", "probability", "arithmetic", "fractions", "equations", "derivatives", "integrals", "matrices"}},
		{quiz.DomainScience, []string{"science", "physics", "chemistry", "biology", "astronomy", "ecology", "genetics",
			"cells", "atoms", "photosynthesis", "evolution", "thermodynamics", "electricity"}},
		{quiz.DomainHistory, []string{"history", "ancient", "medieval", "renaissance", "world war", "revolution",
			"empire", "civilization", "civilisation", "ancient rome", "ancient egypt", "cold war"}},
		{quiz.DomainGeography, []string{"geography", "continents", "countries", "capitals", "capital cities", "rivers",
			"mountains", "climate", "maps", "oceans", "deserts"}},
	},
}

// Classify maps a free-text topic and subject to a Domain. It never fails:
// unmatched input yields quiz.DomainGeneric. The topic runs through every
// tier before the subject is consulted, so a specific topic outranks the
// broader subject it was filed under.
func Classify(topic, subject string) quiz.Domain {
	texts := []string{pad(normalize(topic)), pad(normalize(subject))}
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, tier := range tiers {
			for _, r := range tier {
				if r.matches(text) {
					return r.domain
				}
			}
		}
	}
	return quiz.DomainGeneric
}

func (r rule) matches(padded string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(padded, pad(kw)) {
			return true
		}
	}
	return false
}

func pad(s string) string { return " " + s + " " }
