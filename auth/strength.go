package auth

import "strings"

// StrengthLevel buckets the number of satisfied password requirements
type StrengthLevel string

const (
	StrengthNone   StrengthLevel = "none"
	StrengthWeak   StrengthLevel = "weak"
	StrengthFair   StrengthLevel = "fair"
	StrengthGood   StrengthLevel = "good"
	StrengthStrong StrengthLevel = "strong"
)

const maxStrengthScore = 5

type Requirement struct {
	Label string `json:"label"`
	Met   bool   `json:"met"`
}

type Strength struct {
	Score        int           `json:"score"`
	Level        StrengthLevel `json:"level"`
	Label        string        `json:"label"`
	Progress     float64       `json:"progress"`
	Requirements []Requirement `json:"requirements"`
}

var requirements = []struct {
	label string
	test  func(string) bool
}{
	{"At least 8 characters", func(p string) bool { return len(p) >= passwordMinLength }},
	{"Contains uppercase letter", hasUpper},
	{"Contains lowercase letter", hasLower},
	{"Contains number", hasDigit},
	{"Contains special character", hasSpecial},
}

// PasswordStrength scores p by counting the independent requirements it meets
func PasswordStrength(p string) Strength {
	s := Strength{Requirements: make([]Requirement, 0, len(requirements))}
	for _, req := range requirements {
		met := req.test(p)
		if met {
			s.Score++
		}
		s.Requirements = append(s.Requirements, Requirement{Label: req.label, Met: met})
	}
	s.Level, s.Label = strengthLevel(s.Score)
	s.Progress = float64(s.Score) / maxStrengthScore
	return s
}

// StrengthScore is the number of requirements p satisfies, 0 to 5
func StrengthScore(p string) int {
	return PasswordStrength(p).Score
}

func strengthLevel(score int) (StrengthLevel, string) {
	switch {
	case score <= 0:
		return StrengthNone, ""
	case score <= 2:
		return StrengthWeak, "Weak"
	case score == 3:
		return StrengthFair, "Fair"
	case score == 4:
		return StrengthGood, "Good"
	default:
		return StrengthStrong, "Strong"
	}
}

func hasUpper(p string) bool {
	return strings.IndexFunc(p, func(r rune) bool { return r >= 'A' && r <= 'Z' }) >= 0
}

func hasLower(p string) bool {
	return strings.IndexFunc(p, func(r rune) bool { return r >= 'a' && r <= 'z' }) >= 0
}

func hasDigit(p string) bool {
	return strings.IndexFunc(p, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0
}

func hasSpecial(p string) bool {
	return strings.ContainsAny(p, passwordSpecials)
}

