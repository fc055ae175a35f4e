package email

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	discountPrefix   = "WELCOME"
	discountAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	discountLength   = 6
)

// CodeGenerator produces a newsletter discount code.
type CodeGenerator func() (string, error)

// NewDiscountCode returns WELCOME followed by six random characters from [A-Z0-9].
// Codes are not checked for uniqueness.
func NewDiscountCode() (string, error) {
	buf := make([]byte, discountLength)
	max := big.NewInt(int64(len(discountAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate discount code: %w", err)
		}
		buf[i] = discountAlphabet[n.Int64()]
	}
	return discountPrefix + string(buf), nil
}
