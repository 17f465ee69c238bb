package workspace

import (
	"strings"
	"time"
)

// Op names an edit. The same strings go into the audit log and the journal.
type Op string

const (
	OpAddModel    Op = "add_model"
	OpRemoveModel Op = "remove_model"
	OpAddField    Op = "add_field"
	OpRemoveField Op = "remove_field"
	OpRelation    Op = "relation"
	OpUnrelate    Op = "unrelate"
	OpUndo        Op = "undo"
)

var now = time.Now

// SuggestMigration returns a migration name for an edit of targets.
// Unknown operations and missing targets get a timestamped name.
func SuggestMigration(op Op, targets ...string) string {
	var parts []string
	for _, t := range targets {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, strings.ToLower(t))
		}
	}
	if len(parts) == 0 {
		return TimestampMigration()
	}

	switch op {
	case OpAddModel:
		return "add_" + parts[0]
	case OpAddField, OpRemoveField:
		return "update_" + parts[0]
	case OpRemoveModel:
		return "remove_" + parts[0]
	case OpRelation:
		if len(parts) > 1 {
			return "relation_" + parts[0] + "_" + parts[1]
		}
	case OpUnrelate:
		if len(parts) > 1 {
			return "remove_relation_" + parts[0] + "_" + parts[1]
		}
	}
	return TimestampMigration()
}

// TimestampMigration returns migration_<UTC yyyymmddhhmmss>.
func TimestampMigration() string {
	return "migration_" + now().UTC().Format("20060102150405")
}
