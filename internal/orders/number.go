package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const orderNumberPrefix = "PP"

// newOrderNumber builds a human-readable identifier like PP-20260829-4D81F3.
// Collisions within a day are possible in principle; the unique index on
// order_number plus the settlement retry in the caller handle them.
func newOrderNumber(now time.Time) (string, error) {
	const alphabet = "0123456789ABCDEF"
	suffix := make([]byte, 6)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", fmt.Errorf("generate order number: %w", err)
		}
		suffix[i] = alphabet[n.Int64()]
	}
	return fmt.Sprintf("%s-%s-%s", orderNumberPrefix, now.UTC().Format("20060102"), suffix), nil
}
