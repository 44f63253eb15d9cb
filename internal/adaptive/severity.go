package adaptive

import "strings"

// DefaultInitialLimitMs applies when severity is missing or unknown.
const DefaultInitialLimitMs = 45000

// Severity levels accepted at registration.
const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
)

var initialLimits = map[string]int{
	SeverityMild:     30000,
	SeverityModerate: 45000,
	SeveritySevere:   60000,
}

// InitialLimit returns the starting time limit for a user of the given
// severity. Matching is case-insensitive.
func InitialLimit(severity string) int {
	if ms, ok := initialLimits[strings.ToLower(strings.TrimSpace(severity))]; ok {
		return ms
	}
	return DefaultInitialLimitMs
}

// ValidSeverity reports whether severity is one of the known levels.
func ValidSeverity(severity string) bool {
	_, ok := initialLimits[strings.ToLower(strings.TrimSpace(severity))]
	return ok
}
