package domain

import "strings"

// FilterCalls returns the calls matching query, in their original order.
// A blank query returns calls as given. Name and email match
// case-insensitively, number matches case-sensitively.
func FilterCalls(calls []NormalizedCall, query string) []NormalizedCall {
	if strings.TrimSpace(query) == "" {
		return calls
	}
	lower := strings.ToLower(query)

	matched := make([]NormalizedCall, 0, len(calls))
	for _, c := range calls {
		if matchesQuery(c, query, lower) {
			matched = append(matched, c)
		}
	}
	return matched
}

func matchesQuery(c NormalizedCall, query, lower string) bool {
	if c.Name != "" && strings.Contains(strings.ToLower(c.Name), lower) {
		return true
	}
	if c.Number != "" && strings.Contains(c.Number, query) {
		return true
	}
	return c.Email != "" && strings.Contains(strings.ToLower(c.Email), lower)
}
