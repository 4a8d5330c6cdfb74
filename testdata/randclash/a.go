package dice

import (
	"math/rand"

	pyrt "example.com/pyrt"
)

//pyglue:pymodule
func dice(py pyrt.Python, m *pyrt.Module) error { return nil }

//pyglue:pyfn(m, "shuffle")
func shuffle(src *rand.Rand, n int64) {}
