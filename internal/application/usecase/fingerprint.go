package usecase

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/shopspring/decimal"
)

// Fingerprint derives the stable cache identity of a scoring request from
// (email, phone, amount). Each field is length-prefixed before hashing so
// values containing any separator cannot collide with a different tuple.
func Fingerprint(email, phone string, amount decimal.Decimal) string {
	h := sha256.New()
	for _, field := range []string{email, phone, amount.String()} {
		var prefix [8]byte
		binary.BigEndian.PutUint64(prefix[:], uint64(len(field)))
		h.Write(prefix[:])
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil))
}
