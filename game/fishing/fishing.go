// Package fishing holds the catch simulation used by the clients. The
// lobby server deliberately knows nothing about fish: catch results
// travel back through the same player_action path as every other
// peripheral event, and the server forwards or ignores them.
package fishing

import (
	"fmt"
	"math/rand"
	"time"
)

// Kinds in rarity order, most common first.
var Kinds = []string{"a", "b", "c", "d", "e", "f", "g"}

// Weights are the catch probabilities per kind. They sum to 1.0.
var Weights = []float64{0.40, 0.20, 0.15, 0.12, 0.08, 0.03, 0.02}

// CatchChance is the probability of hooking a fish during each second
// the line is in the water.
const CatchChance = 0.05

// Catch draws a random fish kind according to the rarity weights.
func Catch(rng *rand.Rand) string {
	roll := rng.Float64()
	acc := 0.0
	for i, w := range Weights {
		acc += w
		if roll < acc {
			return Kinds[i]
		}
	}
	// Floating point accumulation can leave a sliver above the last
	// boundary; it belongs to the rarest kind.
	return Kinds[len(Kinds)-1]
}

// Bite reports whether a fish bites during one second of fishing.
func Bite(rng *rand.Rand) bool {
	return rng.Float64() < CatchChance
}

// Tally counts catches per kind.
type Tally map[string]int

// Total returns the number of catches across all kinds.
func (t Tally) Total() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// SimulateCatches draws n fish and tallies them. Used by the odds tool
// to validate the rarity distribution.
func SimulateCatches(rng *rand.Rand, n int) Tally {
	tally := make(Tally, len(Kinds))
	for i := 0; i < n; i++ {
		tally[Catch(rng)]++
	}
	return tally
}

// SimulateSession simulates seconds of fishing with a bite check each
// second and returns the catches in order.
func SimulateSession(rng *rand.Rand, seconds int) []string {
	var caught []string
	for i := 0; i < seconds; i++ {
		if Bite(rng) {
			caught = append(caught, Catch(rng))
		}
	}
	return caught
}

// NewRNG returns a time-seeded generator for interactive use. Tests and
// simulations pass their own seeded source instead.
func NewRNG() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// FormatTally renders a tally with expected vs. actual percentages.
func FormatTally(t Tally) string {
	total := t.Total()
	if total == 0 {
		return "no catches\n"
	}
	out := ""
	for i, kind := range Kinds {
		actual := float64(t[kind]) / float64(total) * 100
		expected := Weights[i] * 100
		out += fmt.Sprintf("fish %q: %5d catches (%5.1f%%)  expected %5.1f%%\n", kind, t[kind], actual, expected)
	}
	return out
}
