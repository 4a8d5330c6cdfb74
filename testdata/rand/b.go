package dice

import (
	"crypto/rand"
	"encoding/hex"
)

// token returns n random bytes, hex encoded.
//
//pyglue:pyfn(m, "token")
func token(n int64) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
