package util

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oliveagle/jsonpath"
)

var tokenPattern = regexp.MustCompile("{(.*?)}")

// ResolveTemplate replaces {$.path.to.value} tokens in a message
// template with values looked up from data. Tokens that do not
// resolve are replaced with an empty string.
func ResolveTemplate(data map[string]any, template string) string {
	tokens := tokenPattern.FindAllString(template, -1)
	result := template
	for _, token := range tokens {
		expr := strings.TrimSuffix(strings.TrimPrefix(token, "{"), "}")
		if !strings.HasPrefix(expr, "$") {
			continue
		}
		value, err := jsonpath.JsonPathLookup(data, expr)
		if err != nil {
			result = strings.ReplaceAll(result, token, "")
			continue
		}
		result = strings.ReplaceAll(result, token, fmt.Sprintf("%v", value))
	}
	return result
}
