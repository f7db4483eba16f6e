package scmver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	t.Run("Normalization", func(t *testing.T) {
		tests := []struct {
			input    string
			expected string
		}{
			{"1.2.3", "1.2.3"},
			{"v1.2.3", "1.2.3"},
			{"01.02.03", "1.2.3"},
			{"22.08.09", "22.8.9"},
			{"2022.8.9.1", "2022.8.9.1"},
			{"1.0-alpha1", "1.0a1"},
			{"1.0.beta.2", "1.0b2"},
			{"1.0rc1", "1.0rc1"},
			{"1.0-preview4", "1.0rc4"},
			{"1.2a", "1.2a0"},
			{"1.0.post2", "1.0.post2"},
			{"1.0-r4", "1.0.post4"},
			{"1.2.dev", "1.2.dev0"},
			{"1.2dev3", "1.2.dev3"},
			{"1!2.0", "1!2.0"},
			{"1.0+ubuntu-1", "1.0+ubuntu.1"},
			{"1.0+foo0100", "1.0+foo0100"},
		}
		for _, test := range tests {
			t.Run(test.input, func(t *testing.T) {
				v, err := ParseVersion(test.input)
				require.NoError(t, err)
				require.Equal(t, test.expected, v.String())
			})
		}
	})

	t.Run("Invalid values", func(t *testing.T) {
		for _, input := range []string{"", "abc", "1.2.3-bogus", "1..2", "final"} {
			t.Run(input, func(t *testing.T) {
				_, err := ParseVersion(input)
				require.Error(t, err)
				require.ErrorIs(t, err, ErrInvalidVersion)
			})
		}
	})
}

func TestVersionCmp(t *testing.T) {
	t.Run("Ordering chain", func(t *testing.T) {
		ordered := []string{
			"1.0.dev1",
			"1.0a1",
			"1.0b2",
			"1.0rc1",
			"1.0",
			"1.0.post1",
			"1.1.dev1",
			"1.1",
			"2013.10",
			"1!0.1",
		}
		for i := 0; i < len(ordered)-1; i++ {
			a, err := ParseVersion(ordered[i])
			require.NoError(t, err)
			b, err := ParseVersion(ordered[i+1])
			require.NoError(t, err)
			require.Negative(t, a.Cmp(b), "%s should sort before %s", ordered[i], ordered[i+1])
			require.Positive(t, b.Cmp(a))
		}
	})

	t.Run("Shorter release pads with zeros", func(t *testing.T) {
		a, err := ParseVersion("1.0")
		require.NoError(t, err)
		b, err := ParseVersion("1.0.0")
		require.NoError(t, err)
		require.Zero(t, a.Cmp(b))
	})

	t.Run("Numeric not lexicographic", func(t *testing.T) {
		a, err := ParseVersion("1.9.9")
		require.NoError(t, err)
		b, err := ParseVersion("1.10.0")
		require.NoError(t, err)
		require.Negative(t, a.Cmp(b))
	})
}
