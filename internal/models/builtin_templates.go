package models

// Built-in template IDs shipped with the editor. Collections reference these
// by plain string; there is no referential integrity, so unknown IDs are
// filtered out when a collection is read rather than treated as errors.
var builtinTemplateIDs = map[string]bool{
	"flowchart-basic":    true,
	"flowchart-decision": true,
	"sequence-basic":     true,
	"sequence-loop":      true,
	"class-basic":        true,
	"class-inheritance":  true,
	"state-basic":        true,
	"er-basic":           true,
	"gantt-basic":        true,
	"pie-basic":          true,
	"journey-basic":      true,
	"mindmap-basic":      true,
	"timeline-basic":     true,
	"gitgraph-basic":     true,
}

// IsBuiltinTemplate reports whether id names a shipped template
func IsBuiltinTemplate(id string) bool {
	return builtinTemplateIDs[id]
}

// FilterBuiltinTemplateIDs drops IDs that no longer match a shipped template
func FilterBuiltinTemplateIDs(ids []string) []string {
	filtered := make([]string, 0, len(ids))
	for _, id := range ids {
		if builtinTemplateIDs[id] {
			filtered = append(filtered, id)
		}
	}
	return filtered
}
