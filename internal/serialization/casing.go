// Package serialization implements the binary self-describing codec for
// orders, commands, and events, plus the camelCase/snake_case helpers
// used at the adapter boundary for option-name conversion.
package serialization

import "strings"

// CamelToSnake converts camelCase or CamelCase into CAMEL_CASE.
func CamelToSnake(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		isUpper := r >= 'A' && r <= 'Z'
		if isUpper {
			if i > 0 {
				prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
				nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
				if prevLower || (nextLower && runes[i-1] != '_') {
					b.WriteByte('_')
				}
			}
			b.WriteRune(r)
		} else if r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune(r - ('a' - 'A'))
		}
	}
	return strings.ToUpper(b.String())
}

// SnakeToCamel converts snake_case or SNAKE_CASE into PascalCase
// ("SnakeCase").
func SnakeToCamel(s string) string {
	parts := strings.Split(strings.ToLower(s), "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
