// Package security fingerprints sensitive acquisition credentials before
// any exception text derived from them is persisted into a log_* row's
// error-text column, so raw secrets never leak into the control-plane
// store or the rotating log file. Grounded on
// internal/storage/hash.go's HashAPIKey/bcrypt pattern.
package security

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost  = 10
	bcryptLimit = 72
)

// ErrSecretEmpty is returned when Fingerprint is asked to hash an empty
// string.
var ErrSecretEmpty = errors.New("security: secret is empty")

// Fingerprint returns an irreversible bcrypt hash of secret. bcrypt salts
// every hash, so two calls on the same secret return different strings.
// It pre-hashes with SHA-256 first when secret exceeds bcrypt's 72-byte
// input limit (the same accommodation HashAPIKey makes for long API keys).
func Fingerprint(secret string) (string, error) {
	if secret == "" {
		return "", ErrSecretEmpty
	}

	input := []byte(secret)
	if len(secret) > bcryptLimit {
		sum := sha256.Sum256(input)
		input = sum[:]
	}

	hash, err := bcrypt.GenerateFromPassword(input, bcryptCost)
	if err != nil {
		return "", fmt.Errorf("fingerprinting secret: %w", err)
	}

	return string(hash), nil
}

// RedactErrorText replaces every occurrence of each known secret in msg
// with a fingerprint marker, so a transport error's raw text (which may
// echo back an Authorization header or request body containing a token)
// can be safely persisted to log_acquisition.error_text.
func RedactErrorText(msg string, secrets ...string) string {
	out := msg

	for _, secret := range secrets {
		if secret == "" {
			continue
		}

		marker := "[REDACTED]"
		if fp, err := Fingerprint(secret); err == nil {
			marker = "[REDACTED:" + shortMarker(fp) + "]"
		}

		out = strings.ReplaceAll(out, secret, marker)
	}

	return out
}

// shortMarker keeps only a short, non-reversible slice of the bcrypt hash
// for log readability. Each fingerprint is freshly salted, so the marker
// for the same secret differs from one RedactErrorText call to the next.
func shortMarker(hash string) string {
	const n = 12
	if len(hash) < n {
		return hash
	}

	return hash[len(hash)-n:]
}
