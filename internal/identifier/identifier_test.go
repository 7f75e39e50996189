package identifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Shape(t *testing.T) {
	for range 100 {
		id := Generate()

		require.Len(t, id, Length)
		for _, r := range id {
			assert.True(t, strings.ContainsRune(Alphabet, r), "unexpected character %q in %s", r, id)
		}
	}
}

func TestGenerate_NoDuplicates(t *testing.T) {
	seen := make(map[string]struct{}, 10000)

	for range 10000 {
		id := Generate()
		_, exists := seen[id]
		require.False(t, exists, "duplicate identifier %s", id)
		seen[id] = struct{}{}
	}
}
