package query

import (
	"fmt"
	"regexp"
	"strings"
)

var forbiddenStatement = regexp.MustCompile(`(?i)\b(DROP|DELETE|UPDATE|INSERT|CREATE|ALTER|TRUNCATE|GRANT)\b`)

// Validate проверяет, что шаблон является одиночным SELECT без запрещённых конструкций.
func Validate(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return fmt.Errorf("only SELECT statements are allowed")
	}
	if m := forbiddenStatement.FindString(trimmed); m != "" {
		return fmt.Errorf("forbidden operation: %s", strings.ToUpper(m))
	}
	if strings.Contains(strings.TrimSuffix(trimmed, ";"), ";") {
		return fmt.Errorf("multiple statements are not allowed")
	}
	return nil
}
