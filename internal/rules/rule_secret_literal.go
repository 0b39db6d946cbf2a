package rules

import (
	"regexp"
	"strings"
)

var reSecretAssign = regexp.MustCompile(`(?i)\b(password|passwd|secret|api_key|apikey|access_token)\b\s*[:=]\s*["'][^"']+["']`)

func init() {
	registerBuiltin("SECRET-LITERAL", false, func(Settings) Rule {
		return Rule{
			ID:       "SECRET-LITERAL",
			Summary:  "Hardcoded credential literal; load secrets from the environment.",
			Severity: "HIGH",
			Eval:     evalSecretLiteral,
		}
	})
}

func evalSecretLiteral(line string, _ int) (string, bool) {
	m := reSecretAssign.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return "possible hardcoded " + strings.ToLower(m[1]) + ": " + strings.TrimSpace(line), true
}
