package dice

import (
	"math/rand"

	pyrt "example.com/pyrt"
)

//pyglue:pymodule
func dice(py pyrt.Python, m *pyrt.Module) error { return nil }

// roll returns a number in [1, n].
//
//pyglue:pyfn(m, "roll")
func roll(n int64) int64 { return rand.Int63n(n) + 1 }
