package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintRejectsEmptySecret(t *testing.T) {
	_, err := Fingerprint("")
	require.ErrorIs(t, err, ErrSecretEmpty)
}

func TestFingerprintDoesNotContainSecret(t *testing.T) {
	// bcrypt hashes embed a random salt so two fingerprints of the same
	// secret differ; this only checks that a fingerprint is produced and
	// does not contain the secret.
	fp, err := Fingerprint("super-secret-token")
	require.NoError(t, err)
	assert.NotEmpty(t, fp)
	assert.NotContains(t, fp, "super-secret-token")
}

func TestFingerprintHandlesLongSecret(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}

	fp, err := Fingerprint(string(long))
	require.NoError(t, err)
	assert.NotEmpty(t, fp)
}

func TestRedactErrorTextReplacesSecretOccurrences(t *testing.T) {
	msg := "request failed: Authorization: Bearer abc123token, body rejected"
	redacted := RedactErrorText(msg, "abc123token")

	assert.NotContains(t, redacted, "abc123token")
	assert.Contains(t, redacted, "[REDACTED")
}

func TestRedactErrorTextIgnoresEmptySecrets(t *testing.T) {
	msg := "no secrets here"
	assert.Equal(t, msg, RedactErrorText(msg, ""))
}
