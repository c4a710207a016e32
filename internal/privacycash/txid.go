package privacycash

import (
	"crypto/rand"
	"strings"
)

// SimulatedTxPrefix marks synthetic transaction identifiers so downstream
// consumers can tell them apart from real signatures, which are plain base58
// and never start with this prefix.
const SimulatedTxPrefix = "SIM"

const (
	simTxRandomLen = 40
	base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
)

func newSimulatedTxID() string {
	buf := make([]byte, simTxRandomLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(err)
	}
	var b strings.Builder
	b.Grow(len(SimulatedTxPrefix) + simTxRandomLen)
	b.WriteString(SimulatedTxPrefix)
	for _, c := range buf {
		b.WriteByte(base58Alphabet[int(c)%len(base58Alphabet)])
	}
	return b.String()
}

// IsSimulatedTxID reports whether the identifier was produced by this ledger.
func IsSimulatedTxID(id string) bool {
	return strings.HasPrefix(id, SimulatedTxPrefix)
}
