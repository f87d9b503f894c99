package auth_test

import (
	"strings"
	"testing"

	"github.com/jrsteele09/greentrace/auth"
	"github.com/stretchr/testify/require"
)

func predicateCount(p string) int {
	n := 0
	for _, ok := range []bool{
		len(p) >= 8,
		strings.ContainsAny(p, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"),
		strings.ContainsAny(p, "abcdefghijklmnopqrstuvwxyz"),
		strings.ContainsAny(p, "0123456789"),
		strings.ContainsAny(p, "@$!%*?&"),
	} {
		if ok {
			n++
		}
	}
	return n
}

func TestStrengthScore_CountsPredicates(t *testing.T) {
	passwords := []string{"", "a", "A", "1", "@", "aaaaaaaa", "Aa", "Aa1", "Aa1@", "Aa1@aaaa", "ÄÖÜ12345", "        ", "#########"}
	for _, p := range passwords {
		t.Run(p, func(t *testing.T) {
			require.Equal(t, predicateCount(p), auth.StrengthScore(p))
		})
	}
}

func TestStrengthScore_Monotonic(t *testing.T) {
	// each edit satisfies one more predicate
	steps := []string{"a", "aA", "aA1", "aA1@", "aA1@aaaa"}
	prev := 0
	for _, p := range steps {
		score := auth.StrengthScore(p)
		require.GreaterOrEqual(t, score, prev, p)
		prev = score
	}
	require.Equal(t, 5, prev)
}

func TestPasswordStrength_Levels(t *testing.T) {
	tests := []struct {
		password string
		level    auth.StrengthLevel
		label    string
	}{
		{"", auth.StrengthNone, ""},
		{"a", auth.StrengthWeak, "Weak"},
		{"aA", auth.StrengthWeak, "Weak"},
		{"aA1", auth.StrengthFair, "Fair"},
		{"aA1@", auth.StrengthGood, "Good"},
		{"aA1@aaaa", auth.StrengthStrong, "Strong"},
	}
	for _, tt := range tests {
		t.Run(string(tt.level)+"/"+tt.password, func(t *testing.T) {
			s := auth.PasswordStrength(tt.password)
			require.Equal(t, tt.level, s.Level)
			require.Equal(t, tt.label, s.Label)
			require.InDelta(t, float64(s.Score)/5, s.Progress, 1e-9)
			require.Len(t, s.Requirements, 5)
		})
	}
}

func TestPasswordStrength_Requirements(t *testing.T) {
	s := auth.PasswordStrength("abc")
	met := map[string]bool{}
	for _, r := range s.Requirements {
		met[r.Label] = r.Met
	}
	require.True(t, met["Contains lowercase letter"])
	require.False(t, met["At least 8 characters"])
	require.False(t, met["Contains special character"])
}
