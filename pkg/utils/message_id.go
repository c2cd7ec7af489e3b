package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateMessageID creates a standardized, human-readable message ID.
// Format: {performative}-{8charHexUUID}
//
// Example:
//   - Input: performative="propose"
//   - Output: "propose-a3f8e2b1"
//
// The generated IDs are:
//   - Short enough to read in agent logs
//   - Prefixed with the performative for quick grepping
//   - Globally unique via UUID suffix
func GenerateMessageID(performative string) string {
	return performative + "-" + generateShortUUID()
}

// GenerateRunID creates the identifier for a single simulation run.
// Format: run-{8charHexUUID}
func GenerateRunID() string {
	return "run-" + generateShortUUID()
}

// generateShortUUID creates an 8-character hex string from a UUID.
// This provides sufficient uniqueness while keeping IDs compact.
func generateShortUUID() string {
	id := uuid.New()
	// Remove hyphens and take first 8 characters
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
