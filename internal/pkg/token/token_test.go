package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMintShapeAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		tok, err := Mint()
		require.NoError(t, err)
		require.Len(t, tok, 40)
		require.Regexp(t, `^[0-9a-f]{40}$`, tok)
		_, dup := seen[tok]
		require.False(t, dup, "minted duplicate token")
		seen[tok] = struct{}{}
	}
}

func TestDigestStableAndOpaque(t *testing.T) {
	tok, err := Mint()
	require.NoError(t, err)

	digest := Digest(tok)
	require.Equal(t, digest, Digest(tok))
	require.Len(t, digest, 64)
	require.NotContains(t, digest, tok[:8], "digest must not embed the token")
}

func TestDigestAcceptsAnyInput(t *testing.T) {
	// Resolution never pre-screens token shape; malformed strings digest
	// like any other and simply fail the lookup.
	seen := make(map[string]struct{})
	for _, tok := range []string{
		"",
		"short",
		"ZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ",
		"0123456789abcdef0123456789abcdef012345678", // 41 chars
	} {
		digest := Digest(tok)
		require.Regexp(t, `^[0-9a-f]{64}$`, digest, "token %q", tok)
		_, dup := seen[digest]
		require.False(t, dup)
		seen[digest] = struct{}{}
	}
}
