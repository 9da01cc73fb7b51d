package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		password, err := GeneratePassword()
		require.NoError(t, err)
		require.Len(t, password, passwordLength)

		assert.True(t, strings.ContainsAny(password, upperChars), "missing uppercase in %q", password)
		assert.True(t, strings.ContainsAny(password, lowerChars), "missing lowercase in %q", password)
		assert.True(t, strings.ContainsAny(password, digitChars), "missing digit in %q", password)
		assert.True(t, strings.ContainsAny(password, symbolChars), "missing symbol in %q", password)

		for _, ambiguous := range "O0l1Io" {
			assert.NotContains(t, password, string(ambiguous))
		}
		seen[password] = true
	}
	assert.Greater(t, len(seen), 45, "passwords should not repeat")
}
