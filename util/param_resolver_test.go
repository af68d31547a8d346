package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveTemplate(t *testing.T) {
	data := map[string]any{
		"ticket": map[string]any{
			"title":    "Payment page crashes",
			"priority": "high",
		},
		"user": map[string]any{
			"firstName": "Amy",
		},
	}
	scenarios := map[string]struct {
		template string
		expected string
	}{
		"single token": {
			template: "A new ticket is assigned to you {$.ticket.title}",
			expected: "A new ticket is assigned to you Payment page crashes",
		},
		"multiple tokens": {
			template: "{$.user.firstName}: {$.ticket.title} ({$.ticket.priority})",
			expected: "Amy: Payment page crashes (high)",
		},
		"unresolved path becomes empty": {
			template: "Hello {$.user.lastName}!",
			expected: "Hello !",
		},
		"non path token untouched": {
			template: "literal {braces} stay",
			expected: "literal {braces} stay",
		},
		"no tokens": {
			template: "plain text",
			expected: "plain text",
		},
	}
	for name, scenario := range scenarios {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, scenario.expected, ResolveTemplate(data, scenario.template))
		})
	}
}
