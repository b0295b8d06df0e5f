package logincode

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func TestGenerate_Format(t *testing.T) {
	t.Parallel()

	for i := 0; i < 500; i++ {
		code, err := Generate()
		require.NoError(t, err)
		require.Regexp(t, sixDigits, code)
	}
}

func TestGenerate_Varies(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := Generate()
		require.NoError(t, err)
		seen[code] = struct{}{}
	}
	// 200 draws from a million values; a handful of collisions at most.
	assert.Greater(t, len(seen), 190)
}

func TestGenerateN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		n       int
		wantErr bool
	}{
		{name: "one digit", n: 1},
		{name: "eight digits", n: 8},
		{name: "zero", n: 0, wantErr: true},
		{name: "negative", n: -3, wantErr: true},
		{name: "too long", n: 19, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			code, err := GenerateN(tt.n)
			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, code)
				return
			}
			require.NoError(t, err)
			assert.Len(t, code, tt.n)
			assert.Regexp(t, `^[0-9]+$`, code)
		})
	}
}
