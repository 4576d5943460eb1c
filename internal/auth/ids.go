package auth

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewAnonymousID mints user_<epochms>_<13 base36 chars>. The suffix comes
// from crypto/rand.
func NewAnonymousID(now time.Time) string {
	return "user_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + randomBase36(13)
}

func randomBase36(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(base36)))
	for i := range b {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms.
			panic(err)
		}
		b[i] = base36[v.Int64()]
	}
	return string(b)
}
