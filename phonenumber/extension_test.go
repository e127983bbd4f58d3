package phonenumber

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaybeStripExtension(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name, in, rest, ext string
	}{
		{"ext dot", "650 253 0000 ext. 123", "650 253 0000", "123"},
		{"x", "650 253 0000 x1234", "650 253 0000", "1234"},
		{"hash", "650 253 0000#1234", "650 253 0000", "1234"},
		{"rfc3966", "+16502530000;ext=77", "+16502530000", "77"},
		{"auto dial", "650 253 0000,,55", "650 253 0000", "55"},
		{"cyrillic", "650 253 0000 \u0434\u043e\u0431 123", "650 253 0000", "123"},
		{"no marker", "650 253 0000", "650 253 0000", ""},
		{"rest not viable", "1 ext. 23", "1 ext. 23", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rest, ext := maybeStripExtension(tt.in)
			assert.Equal(t, tt.rest, rest)
			assert.Equal(t, tt.ext, ext)
		})
	}
}

func TestMayHaveExtensionIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	assert.True(t, mayHaveExtension("650 253 0000 EXT 9"))
	assert.True(t, mayHaveExtension("650 253 0000 Anexo 9"))
	assert.False(t, mayHaveExtension("650 253 0000"))
}
