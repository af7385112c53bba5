package sanitizer

import (
	"strings"

	"deskbook/pkg/model"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func trimAndLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func stripMailto(s string) string {
	if after, ok := strings.CutPrefix(s, "mailto:"); ok {
		return after
	}
	return s
}

func stripAngleBrackets(s string) string {
	if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// SanitizeEmail normalises an address so the same mailbox always compares equal
// in ownership checks and the daily quota.
func SanitizeEmail(input string) string {
	p := Pipeline{
		trimAndLower,
		stripAngleBrackets,
		stripMailto,
		strings.TrimSpace,
	}
	return p.Apply(input)
}

func SanitizeRole(input string) string {
	return trimAndLower(input)
}

func SanitizeIdentity(identity model.Identity) model.Identity {
	return model.Identity{
		Email: SanitizeEmail(identity.Email),
		Role:  SanitizeRole(identity.Role),
	}
}
