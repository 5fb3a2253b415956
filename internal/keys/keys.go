package keys

import (
	"fmt"
	"strings"
)

// sanitizeKey replaces spaces and underscores with hyphens and lowercases the string.
func sanitizeKey(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	return strings.ToLower(s)
}

// Checkpoint returns the key of a stage's binary checkpoint.
func Checkpoint(stage string) string {
	return fmt.Sprintf("checkpoints/%s.gob.zst", sanitizeKey(stage))
}

// CheckpointText returns the key of a stage's tab-separated checkpoint.
func CheckpointText(stage string) string {
	return fmt.Sprintf("checkpoints/%s.tsv", sanitizeKey(stage))
}

// Table returns the key of a final merged table in the given format
// ("json", "tsv").
func Table(name, format string) string {
	return fmt.Sprintf("tables/%s.%s", strings.ToLower(strings.ReplaceAll(name, " ", "-")), format)
}
