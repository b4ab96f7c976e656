// Package checklist computes which mandatory custom fields still block a task
// from leaving its current column. The check is stateless and re-derivable at
// any time: the workflow engine runs it as the advance guard, and the CLI runs
// it to render a live checklist before the user attempts an advance.
package checklist

import "flowboard/internal/board"

// Missing returns the channel's custom fields that are required in the task's
// current column and hold no usable value on the task, ordered by field order.
// A value is missing when absent or when its string payload is empty or
// whitespace-only.
func Missing(task board.Task, channel board.Channel) []board.CustomField {
	var missing []board.CustomField
	for _, field := range channel.SortedFields() {
		if !field.RequiredIn(task.ColumnID) {
			continue
		}
		if task.CustomFieldValues[field.ID].Blank() {
			missing = append(missing, field)
		}
	}
	return missing
}

// Names returns the display names of the given fields, preserving order.
func Names(fields []board.CustomField) []string {
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = field.Name
	}
	return names
}
