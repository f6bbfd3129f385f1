package service

import "strings"

// normalizeID trims surrounding whitespace. Other payload values are stored
// as given.
func normalizeID(id string) string {
	return strings.TrimSpace(id)
}
