package synth

// Source yields uniform integers in [0, n). *rand.Rand from math/rand/v2
// satisfies it.
type Source interface {
	IntN(n int) int
}

// Randomizer moves the correct option of a question into a random slot.
type Randomizer struct {
	src Source
}

func NewRandomizer(src Source) Randomizer {
	return Randomizer{src: src}
}

// Place returns a copy of options with the correct option swapped into a
// uniformly chosen slot, and that slot. Exactly one swap happens; when the
// slot equals correct the order is unchanged.
func (r Randomizer) Place(options []string, correct int) ([]string, int) {
	out := append([]string(nil), options...)
	target := r.src.IntN(len(out))
	out[correct], out[target] = out[target], out[correct]
	return out, target
}
