// Package fee computes the statutory usage fee and the payment reference
// code for ZUVP permits.
package fee

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
)

// Compute returns the statutory fee in CZK:
// floor(areaSqm * durationDays * ratePerSqmDay).
// Zero area or zero duration is a legitimate zero-fee case, not an error.
func Compute(areaSqm float64, durationDays int, ratePerSqmDay int) int {
	if areaSqm <= 0 || durationDays <= 0 || ratePerSqmDay <= 0 {
		return 0
	}
	return int(math.Floor(areaSqm * float64(durationDays) * float64(ratePerSqmDay)))
}

// VariableSymbol derives the 10-digit payment reference code from a request
// id. It is a pure function of the id: the same id always yields the same
// symbol, regardless of submission content.
func VariableSymbol(requestID string) string {
	sum := sha256.Sum256([]byte(requestID))
	n := binary.BigEndian.Uint64(sum[:8]) % 10_000_000_000
	return fmt.Sprintf("%010d", n)
}
