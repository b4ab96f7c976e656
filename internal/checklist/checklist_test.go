package checklist_test

import (
	"testing"

	"flowboard/internal/board"
	"flowboard/internal/checklist"
)

func channelWithFields(fields ...board.CustomField) board.Channel {
	return board.Channel{
		ID: "ch1",
		Columns: []board.Column{
			{ID: "col-script", Name: "Script", Order: 0},
			{ID: "col-audio", Name: "Audio", Order: 1},
		},
		CustomFields: fields,
	}
}

func TestMissingSelectsOnlyCurrentColumnRequirements(t *testing.T) {
	channel := channelWithFields(
		board.CustomField{ID: "f-link", Name: "Video Link", Type: board.FieldLink, Order: 0, RequiredInColumns: []string{"col-script"}},
		board.CustomField{ID: "f-mix", Name: "Mix File", Type: board.FieldLink, Order: 1, RequiredInColumns: []string{"col-audio"}},
	)
	task := board.Task{ID: "t1", ChannelID: "ch1", ColumnID: "col-script"}

	missing := checklist.Missing(task, channel)
	if len(missing) != 1 || missing[0].ID != "f-link" {
		t.Fatalf("expected only the script-column requirement, got %v", checklist.Names(missing))
	}
}

func TestMissingTreatsWhitespaceAsBlank(t *testing.T) {
	channel := channelWithFields(
		board.CustomField{ID: "f-link", Name: "Video Link", Type: board.FieldLink, Order: 0, RequiredInColumns: []string{"col-script"}},
	)
	task := board.Task{
		ID:        "t1",
		ColumnID:  "col-script",
		CustomFieldValues: map[string]board.FieldValue{"f-link": board.TextValue(board.FieldLink, "   ")},
	}

	if missing := checklist.Missing(task, channel); len(missing) != 1 {
		t.Fatalf("expected whitespace-only value to count as missing, got %v", checklist.Names(missing))
	}

	task.CustomFieldValues["f-link"] = board.TextValue(board.FieldLink, "https://x.com")
	if missing := checklist.Missing(task, channel); len(missing) != 0 {
		t.Fatalf("expected no missing fields once a value is set, got %v", checklist.Names(missing))
	}
}

func TestMissingFollowsFieldOrder(t *testing.T) {
	channel := channelWithFields(
		board.CustomField{ID: "f-b", Name: "Thumbnail", Type: board.FieldLink, Order: 2, RequiredInColumns: []string{"col-script"}},
		board.CustomField{ID: "f-a", Name: "Script Doc", Type: board.FieldLink, Order: 1, RequiredInColumns: []string{"col-script"}},
	)
	task := board.Task{ID: "t1", ColumnID: "col-script"}

	missing := checklist.Missing(task, channel)
	names := checklist.Names(missing)
	if len(names) != 2 || names[0] != "Script Doc" || names[1] != "Thumbnail" {
		t.Fatalf("expected field-order result, got %v", names)
	}
}

func TestMissingNeverBlocksIrrelevantFields(t *testing.T) {
	channel := channelWithFields(
		board.CustomField{ID: "f-mix", Name: "Mix File", Type: board.FieldLink, Order: 0, RequiredInColumns: []string{"col-audio"}},
	)
	task := board.Task{ID: "t1", ColumnID: "col-script"}

	if missing := checklist.Missing(task, channel); len(missing) != 0 {
		t.Fatalf("requirements in other columns must not block, got %v", checklist.Names(missing))
	}
}
