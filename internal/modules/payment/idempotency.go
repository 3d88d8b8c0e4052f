package payment

import (
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// IdempotencyKey is stable for one submission of one session: retries of the
// same submit reuse it, a new submit after a decline gets a fresh one.
func IdempotencyKey(sessionID string, submitSeq int, amount float64, currency string) string {
	cents := int64(math.Round(amount * 100))
	sum := blake2b.Sum256([]byte(fmt.Sprintf("%s|%d|%d|%s", sessionID, submitSeq, cents, strings.ToLower(currency))))
	return "cul_" + hex.EncodeToString(sum[:16])
}
