// Package genetics generates pet trait triples and colors, including the
// hybridization of two parents into a child. All functions are pure given
// their random source; callers inject the source so tests stay deterministic.
package genetics

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
)

// Animals is the trait vocabulary. Every slot of every pet is drawn from it.
var Animals = []string{
	"lion", "dragon", "penguin", "fox", "owl",
	"dog", "cat", "bear", "rabbit", "monkey",
}

// maxAttempts caps hybrid resampling before the merge is declared failed.
const maxAttempts = 50

// ErrExhausted is returned when resampling cannot produce a child that
// differs from both parents within the attempt cap. This is the expected
// outcome when the parents are identical twins across all three slots.
var ErrExhausted = errors.New("hybrid generation attempts exhausted")

// Traits is a pet's three visual slots.
type Traits struct {
	Upper string
	Face  string
	Down  string
}

// Parent is the hybridization input: a trait triple and a #rrggbb color.
type Parent struct {
	Traits Traits
	Color  string
}

// IsAnimal reports whether s belongs to the trait vocabulary.
func IsAnimal(s string) bool {
	for _, a := range Animals {
		if a == s {
			return true
		}
	}
	return false
}

// RandomTraits picks a fresh pet's traits: one animal applied to all three
// slots. Newly minted pets are always uniform; variety comes from merging.
func RandomTraits(rng *rand.Rand) Traits {
	animal := Animals[rng.IntN(len(Animals))]
	return Traits{Upper: animal, Face: animal, Down: animal}
}

// RandomColor picks a color from the full 24-bit space.
func RandomColor(rng *rand.Rand) string {
	return fmt.Sprintf("#%06x", rng.IntN(1<<24))
}

// Hybridize combines two parents into a child trait triple and color. Each
// slot is an unbiased coin flip between the parents' corresponding slots.
// A draw identical to either parent's full triple is rejected and resampled,
// so a returned child always differs from both parents in at least one slot.
// Parents that differ in fewer than two slots admit no such child and fail
// with ErrExhausted once the cap is hit.
func Hybridize(rng *rand.Rand, a, b Parent) (Traits, string, error) {
	var child Traits
	for attempt := 0; attempt < maxAttempts; attempt++ {
		child = Traits{
			Upper: pick(rng, a.Traits.Upper, b.Traits.Upper),
			Face:  pick(rng, a.Traits.Face, b.Traits.Face),
			Down:  pick(rng, a.Traits.Down, b.Traits.Down),
		}

		if child == a.Traits || child == b.Traits {
			continue // pure clone of one parent, resample
		}

		color, err := MixColors(a.Color, b.Color, 0.5)
		if err != nil {
			return Traits{}, "", err
		}
		return child, color, nil
	}
	return Traits{}, "", ErrExhausted
}

func pick(rng *rand.Rand, a, b string) string {
	if rng.IntN(2) == 0 {
		return a
	}
	return b
}

// MixColors blends two #rrggbb colors channel-wise at the given ratio
// (weight of the first color), rounding each channel to the nearest integer.
func MixColors(c1, c2 string, ratio float64) (string, error) {
	r1, g1, b1, err := ParseColor(c1)
	if err != nil {
		return "", err
	}
	r2, g2, b2, err := ParseColor(c2)
	if err != nil {
		return "", err
	}

	blend := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x)*ratio + float64(y)*(1-ratio)))
	}
	return fmt.Sprintf("#%02x%02x%02x", blend(r1, r2), blend(g1, g2), blend(b1, b2)), nil
}

// ParseColor splits a #rrggbb string into its channels.
func ParseColor(s string) (r, g, b uint8, err error) {
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0, fmt.Errorf("invalid color %q: expected #rrggbb", s)
	}
	channels := [3]uint8{}
	for i := 0; i < 3; i++ {
		v, perr := strconv.ParseUint(s[1+2*i:3+2*i], 16, 8)
		if perr != nil {
			return 0, 0, 0, fmt.Errorf("invalid color %q: %w", s, perr)
		}
		channels[i] = uint8(v)
	}
	return channels[0], channels[1], channels[2], nil
}
