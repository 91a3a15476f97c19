package accounts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratePasswordComplexity(t *testing.T) {
	for i := 0; i < 50; i++ {
		password, err := GeneratePassword()
		require.NoError(t, err)
		require.Len(t, password, passwordLength)
		require.True(t, strings.ContainsAny(password, lowerChars), "missing lower-case: %s", password)
		require.True(t, strings.ContainsAny(password, upperChars), "missing upper-case: %s", password)
		require.True(t, strings.ContainsAny(password, digitChars), "missing digit: %s", password)
		require.True(t, strings.ContainsAny(password, symbolChars), "missing symbol: %s", password)
	}
}

func TestGeneratePasswordIsNotConstant(t *testing.T) {
	first, err := GeneratePassword()
	require.NoError(t, err)
	second, err := GeneratePassword()
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
