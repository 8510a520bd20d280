package veto

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxTeamNameLen mirrors the source's team-name cap.
const MaxTeamNameLen = 32

// SanitizeTeamName strips control characters, trims whitespace, and caps
// length. Returns an error (a sanitization error per §7) if the result is
// empty.
func SanitizeTeamName(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	name := strings.TrimSpace(b.String())
	if name == "" {
		return "", fmt.Errorf("veto: team name is empty after sanitization")
	}
	if len(name) > MaxTeamNameLen {
		name = name[:MaxTeamNameLen]
	}
	return name, nil
}
