package dice

import (
	"crypto/rand"
)

//pyglue:pyfn(m, "fill", size = "rand.Int")
func fill(size int64) {}
