package render

import (
	"fmt"
	"regexp"
	"strings"
)

// Placeholders follow the $name / ${name} convention; $$ escapes a
// literal dollar sign.
var placeholderExpr = regexp.MustCompile(`\$(?:\$|\{[A-Za-z_][A-Za-z0-9_]*\}|[A-Za-z_][A-Za-z0-9_]*)`)

// SubstitutionError reports a placeholder with no matching data entry.
type SubstitutionError struct {
	Placeholder string
}

func (e *SubstitutionError) Error() string {
	return fmt.Sprintf("render: no value for placeholder $%s", e.Placeholder)
}

// Substitute fills every placeholder in template from data. A placeholder
// without a data entry fails with SubstitutionError rather than leaking
// the literal placeholder into the output.
func Substitute(template string, data map[string]string) (string, error) {
	var missing *SubstitutionError

	out := placeholderExpr.ReplaceAllStringFunc(template, func(match string) string {
		if match == "$$" {
			return "$"
		}

		name := strings.TrimPrefix(match, "$")
		name = strings.TrimPrefix(name, "{")
		name = strings.TrimSuffix(name, "}")

		value, ok := data[name]
		if !ok {
			if missing == nil {
				missing = &SubstitutionError{Placeholder: name}
			}
			return ""
		}
		return value
	})

	if missing != nil {
		return "", missing
	}
	return out, nil
}
