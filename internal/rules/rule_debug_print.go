package rules

import "strings"

var debugCalls = []string{"console.log(", "fmt.Println(", "print("}

func init() {
	registerBuiltin("DEBUG-PRINT", false, func(Settings) Rule {
		return Rule{
			ID:       "DEBUG-PRINT",
			Summary:  "Leftover debug print statement.",
			Severity: "LOW",
			Eval:     evalDebugPrint,
		}
	})
}

func evalDebugPrint(line string, _ int) (string, bool) {
	trim := strings.TrimSpace(line)
	if strings.HasPrefix(trim, "//") || strings.HasPrefix(trim, "#") {
		return "", false
	}
	for _, c := range debugCalls {
		i := strings.Index(line, c)
		if i < 0 {
			continue
		}
		// "print(" must not be the tail of a longer identifier like sprint(
		if c == "print(" && i > 0 && isIdentByte(line[i-1]) {
			continue
		}
		return trim, true
	}
	return "", false
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '.' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
