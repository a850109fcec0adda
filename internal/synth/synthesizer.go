package synth

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/mind-engage/quizgenix/internal/apperr"
	"github.com/mind-engage/quizgenix/internal/quiz"
)

// DefaultMaxCount bounds the number of questions per quiz.
const DefaultMaxCount = 50

// Synthesizer turns (topic, subject, difficulty, count) into questions. It is
// safe for concurrent use.
type Synthesizer struct {
	store    KnowledgeStore
	maxCount int
	log      *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Synthesizer)

// WithRand injects the random source; tests pass a seeded one.
func WithRand(r *rand.Rand) Option     { return func(s *Synthesizer) { s.rng = r } }
func WithLogger(l *slog.Logger) Option { return func(s *Synthesizer) { s.log = l } }
func WithMaxCount(n int) Option        { return func(s *Synthesizer) { s.maxCount = n } }

func New(store KnowledgeStore, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		store:    store,
		maxCount: DefaultMaxCount,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if s.maxCount < 1 {
		s.maxCount = DefaultMaxCount
	}
	return s
}

func (s *Synthesizer) MaxCount() int { return s.maxCount }

// KnowledgeVersion is the version of the catalog questions are drawn from.
func (s *Synthesizer) KnowledgeVersion() string { return s.store.Version() }

// Synthesize returns exactly count questions with ids 1..count. It only fails
// for a count outside [1, MaxCount]; thin or unknown domains fall back to
// generated content.
func (s *Synthesizer) Synthesize(topic, subject string, difficulty quiz.Difficulty, count int) ([]quiz.Question, error) {
	if count < 1 || count > s.maxCount {
		return nil, apperr.Validation("count must be between 1 and %d", s.maxCount)
	}
	domain := Classify(topic, subject)
	curated := s.store.Templates(domain, difficulty)

	s.mu.Lock()
	defer s.mu.Unlock()

	type pick struct {
		tpl    quiz.Template
		source string
	}
	picks := make([]pick, 0, count)
	seen := make(map[string]bool, count)

	for _, i := range s.rng.Perm(len(curated)) {
		if len(picks) == count {
			break
		}
		t := curated[i]
		if seen[t.Prompt] {
			continue
		}
		seen[t.Prompt] = true
		picks = append(picks, pick{tpl: t, source: quiz.SourceCurated})
	}

	if missing := count - len(picks); missing > 0 {
		s.log.Warn("synthesis degraded",
			"domain", domain,
			"difficulty", difficulty,
			"curated", len(picks),
			"requested", count)

		gen := newGenerator(domain, difficulty, topic, subject, s.rng)
		for len(picks) < count {
			t := gen.next()
			if seen[t.Prompt] {
				base := t.Prompt
				for n := 2; seen[t.Prompt]; n++ {
					t.Prompt = fmt.Sprintf("%s (variation %d)", base, n)
				}
			}
			seen[t.Prompt] = true
			picks = append(picks, pick{tpl: t, source: quiz.SourceGenerated})
		}
	}

	rnd := NewRandomizer(s.rng)
	out := make([]quiz.Question, len(picks))
	for i, p := range picks {
		tpl := p.tpl.Clone()
		tpl.Options, tpl.CorrectIndex = rnd.Place(tpl.Options, tpl.CorrectIndex)
		out[i] = quiz.Question{
			ID:         i + 1,
			Template:   tpl,
			Difficulty: difficulty,
			Topic:      topic,
			Domain:     domain,
			Source:     p.source,
		}
	}
	return out, nil
}
