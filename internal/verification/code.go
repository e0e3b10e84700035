// Package verification generates the one-time codes used to prove control
// of an email address.
package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// CodeTTL is the validity window of a verification code. The expiry
// timestamp itself is computed by callers.
const CodeTTL = 15 * time.Minute

// GenerateCode returns a 6-digit numeric code, uniformly drawn from
// [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
