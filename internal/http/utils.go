package http

import (
	"fmt"
	"regexp"
)

// maxIDLength bounds every identifier accepted over the wire.
const maxIDLength = 128

// idPattern allows session IDs, names, and PID strings. Synthetic PIDs
// are negative, hence the optional leading minus.
var idPattern = regexp.MustCompile(`^-?[a-zA-Z0-9_-]+$`)

// validateID checks a required identifier field for length and charset.
func validateID(id, fieldName string) error {
	if id == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("%s exceeds %d characters", fieldName, maxIDLength)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}
	return nil
}
