package synth

import (
	"strings"

	"github.com/mind-engage/quizgenix/internal/quiz"
)

// Prompt patterns per difficulty. Placeholders: {topic}, {subject}, {aspect}.
var patternBank = map[quiz.Difficulty][]string{
	quiz.DifficultyEasy: {
		"Which statement best describes {topic} when it comes to {aspect}?",
		"What is the main idea behind {topic} in {subject}, considering {aspect}?",
		"Which of these is true about {topic} and {aspect}?",
		"A beginner in {subject} asks how {topic} relates to {aspect}. Which answer is correct?",
	},
	quiz.DifficultyMedium: {
		"How does {topic} relate to {aspect} in {subject}?",
		"Which statement about {topic} and {aspect} is accurate?",
		"When applying {topic} in {subject}, which point about {aspect} matters most?",
		"Which option correctly explains the role of {aspect} in {topic}?",
	},
	quiz.DifficultyHard: {
		"Which subtle point about {topic} and {aspect} do experienced {subject} practitioners emphasise?",
		"In an edge case involving {aspect}, which description of {topic} holds?",
		"Which claim about {topic} survives closer scrutiny of {aspect}?",
		"Which trade-off involving {aspect} is most relevant when reasoning about {topic} in {subject}?",
	},
}

// phrasing holds the domain-specific rules used to build options. Correct
// and wrong phrases are disjoint so the four options are always distinct.
type phrasing struct {
	aspects    []string
	correct    []string
	wrong      []string
	references []quiz.Reference
}

var phrasings = map[quiz.Domain]phrasing{
	quiz.DomainJavaScript: {
		aspects: []string{"scope", "the event loop", "type coercion", "the prototype chain", "asynchronous code", "module boundaries"},
		correct: []string{
			"Its behaviour follows from lexical scoping and how {aspect} is specified by the language",
			"It is defined by the ECMAScript specification, and {aspect} determines what happens at runtime",
			"Understanding {aspect} explains how {topic} behaves in both browsers and Node.js",
			"{topic} works the same way in every compliant engine because {aspect} is standardised",
		},
		wrong: []string{
			"{topic} only works inside the browser and never in Node.js",
			"{topic} requires compiling the code to machine code before it runs",
			"{aspect} has no effect on {topic} at all",
			"{topic} was removed from the language in ES6",
			"{topic} is handled by the CSS engine rather than the JavaScript engine",
			"{topic} forces every variable to become global",
		},
		references: []quiz.Reference{{Title: "MDN JavaScript Guide", URL: "https://developer.mozilla.org/en-US/docs/Web/JavaScript/Guide", Kind: "documentation"}},
	},
	quiz.DomainPython: {
		aspects: []string{"mutability", "name resolution", "iteration", "the data model", "error handling", "the standard library"},
		correct: []string{
			"Its behaviour follows from Python's object model, where {aspect} is explicit",
			"{topic} is defined by the language reference, and {aspect} shapes how it is used",
			"Understanding {aspect} explains how {topic} behaves in idiomatic Python code",
			"{topic} relies on {aspect} in the same way across CPython and other conforming implementations",
		},
		wrong: []string{
			"{topic} only works in Python 2",
			"{topic} requires declaring static types before the program can run",
			"{aspect} has no influence on {topic}",
			"{topic} is implemented by the operating system rather than the interpreter",
			"{topic} makes every object immutable",
			"{topic} can only be used inside class definitions",
		},
		references: []quiz.Reference{{Title: "The Python Tutorial", URL: "https://docs.python.org/3/tutorial/", Kind: "documentation"}},
	},
	quiz.DomainMathematics: {
		aspects: []string{"definitions", "proof techniques", "notation", "special cases", "units and scale", "geometric intuition"},
		correct: []string{
			"It follows from the definitions, and {aspect} must be applied consistently",
			"Results about {topic} can be derived step by step, with {aspect} justifying each step",
			"Checking {aspect} is how you confirm a result about {topic} is valid",
			"{topic} obeys the same rules in every context once {aspect} is fixed",
		},
		wrong: []string{
			"{topic} only works for even numbers",
			"{topic} gives different answers depending on who computes it",
			"{aspect} is irrelevant to {topic}",
			"{topic} was disproven in the twentieth century",
			"{topic} can only be approximated, never computed exactly",
			"{topic} applies only to negative values",
		},
		references: []quiz.Reference{{Title: "Khan Academy Math", URL: "https://www.khanacademy.org/math", Kind: "article"}},
	},
	quiz.DomainScience: {
		aspects: []string{"experimental evidence", "energy", "measurement", "cause and effect", "scale", "models and theories"},
		correct: []string{
			"It is supported by reproducible observations, with {aspect} playing a central role",
			"Scientists explain {topic} using models tested against {aspect}",
			"Understanding {aspect} is essential to predicting how {topic} behaves",
			"{topic} is described by laws that stay consistent when {aspect} is measured carefully",
		},
		wrong: []string{
			"{topic} has never been observed or measured",
			"{topic} contradicts the conservation of energy",
			"{aspect} plays no part in {topic}",
			"{topic} only happens on other planets",
			"{topic} was settled by opinion rather than evidence",
			"{topic} behaves randomly with no underlying cause",
		},
		references: []quiz.Reference{{Title: "Khan Academy Science", URL: "https://www.khanacademy.org/science", Kind: "article"}},
	},
	quiz.DomainHistory: {
		aspects: []string{"primary sources", "economic causes", "political change", "social impact", "chronology", "long-term consequences"},
		correct: []string{
			"Historians reconstruct {topic} from evidence, with {aspect} shaping interpretation",
			"{topic} is best understood by examining {aspect} in its period",
			"Understanding {aspect} explains why {topic} unfolded as it did",
			"Accounts of {topic} are strongest when they weigh {aspect} against other sources",
		},
		wrong: []string{
			"{topic} had no causes and no consequences",
			"{topic} is known only from a single legend",
			"{aspect} had nothing to do with {topic}",
			"{topic} happened in the same way in every country at once",
			"{topic} took place in the last ten years",
			"{topic} has never been studied by historians",
		},
		references: []quiz.Reference{{Title: "Khan Academy World History", URL: "https://www.khanacademy.org/humanities/world-history", Kind: "article"}},
	},
	quiz.DomainGeography: {
		aspects: []string{"climate", "location", "landforms", "population", "natural resources", "borders"},
		correct: []string{
			"It reflects physical and human factors, with {aspect} being especially important",
			"{topic} can be explained by looking at {aspect} on a map",
			"Understanding {aspect} helps explain the patterns seen in {topic}",
			"{topic} varies across regions largely because of {aspect}",
		},
		wrong: []string{
			"{topic} is identical everywhere on Earth",
			"{topic} is unaffected by climate or terrain",
			"{aspect} has no connection to {topic}",
			"{topic} only exists in the southern hemisphere",
			"{topic} has never changed over time",
			"{topic} cannot be shown on any map",
		},
		references: []quiz.Reference{{Title: "National Geographic Education", URL: "https://education.nationalgeographic.org/", Kind: "article"}},
	},
	quiz.DomainGeneric: {
		aspects: []string{"core concepts", "terminology", "practical applications", "common misconceptions", "history and context", "best practices"},
		correct: []string{
			"It is best understood by connecting {aspect} to concrete examples",
			"{topic} builds on {aspect}, which experts in {subject} study closely",
			"Understanding {aspect} is the key to applying {topic} correctly",
			"{topic} is consistent once {aspect} is defined clearly",
		},
		wrong: []string{
			"{topic} has no practical use at all",
			"{topic} is unrelated to {subject}",
			"{aspect} is irrelevant when learning {topic}",
			"{topic} cannot be learned, only memorised",
			"{topic} means exactly the same thing in every field",
			"{topic} was invented last year",
		},
	},
}

// generator produces templates for one synthesis call. It walks the
// difficulty's pattern bank without repeating a pattern; when the bank is
// exhausted the pool resets and the cycle counter moves aspects and phrases
// on so the next round reads differently.
type generator struct {
	patterns []string
	phr      phrasing
	topic    string
	subject  string
	src      Source

	unused []int
	cycle  int
	made   int
}

func newGenerator(domain quiz.Domain, difficulty quiz.Difficulty, topic, subject string, src Source) *generator {
	patterns, ok := patternBank[difficulty]
	if !ok {
		patterns = patternBank[quiz.DifficultyMedium]
	}
	phr, ok := phrasings[domain]
	if !ok {
		phr = phrasings[quiz.DomainGeneric]
	}
	topic = strings.TrimSpace(topic)
	subject = strings.TrimSpace(subject)
	if topic == "" {
		topic = subject
	}
	if topic == "" {
		topic = "this topic"
	}
	if subject == "" {
		subject = topic
	}
	return &generator{patterns: patterns, phr: phr, topic: topic, subject: subject, src: src}
}

// next returns a fresh template with the correct option at index 0.
func (g *generator) next() quiz.Template {
	if len(g.unused) == 0 {
		if g.made > 0 {
			g.cycle++
		}
		g.unused = make([]int, len(g.patterns))
		for i := range g.unused {
			g.unused[i] = i
		}
	}
	pick := g.src.IntN(len(g.unused))
	p := g.unused[pick]
	g.unused = append(g.unused[:pick], g.unused[pick+1:]...)
	g.made++

	aspect := g.phr.aspects[(p+g.cycle)%len(g.phr.aspects)]
	r := strings.NewReplacer("{topic}", g.topic, "{subject}", g.subject, "{aspect}", aspect)

	correct := r.Replace(g.phr.correct[(p+g.cycle)%len(g.phr.correct)])
	options := []string{capitalize(correct)}
	start := (p*2 + g.cycle) % len(g.phr.wrong)
	for i := 0; len(options) < quiz.OptionCount; i++ {
		options = append(options, capitalize(r.Replace(g.phr.wrong[(start+i)%len(g.phr.wrong)])))
	}

	return quiz.Template{
		Prompt:       r.Replace(g.patterns[p]),
		Options:      options,
		CorrectIndex: 0,
		Explanation:  capitalize(correct) + ". The other options misstate how " + g.topic + " relates to " + aspect + ".",
		References:   append([]quiz.Reference(nil), g.phr.references...),
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}
