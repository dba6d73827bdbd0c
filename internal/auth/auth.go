// Package auth implements the constant-time bearer-token check the
// dispatcher's middleware performs before routing any request.
package auth

import "crypto/subtle"

// TokenSize is the fixed length both the configured token and the incoming
// credential must have. Mismatched lengths are rejected before any
// comparison is attempted, so a length oracle can't leak information about
// the configured token.
const TokenSize = 64

// ValidateToken reports whether candidate authenticates against the
// configured token. Both must be exactly TokenSize bytes; any other length
// fails immediately without a timing-sensitive comparison.
func ValidateToken(configured, candidate string) bool {
	if len(configured) != TokenSize || len(candidate) != TokenSize {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(candidate)) == 1
}
