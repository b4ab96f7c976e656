package board_test

import (
	"testing"
	"time"

	"flowboard/internal/board"
)

func pipelineChannel() board.Channel {
	return board.Channel{
		ID:   "ch-1",
		Name: "Main Channel",
		Columns: []board.Column{
			{ID: "col-script", Name: "Script", Order: 0},
			{ID: "col-audio", Name: "Audio", Order: 1},
			{ID: "col-edit", Name: "Edit", Order: 2},
		},
	}
}

func TestNextColumnFollowsOrder(t *testing.T) {
	ch := pipelineChannel()

	first, ok := ch.ColumnByID("col-script")
	if !ok {
		t.Fatal("expected to find first column")
	}
	next, ok := ch.NextColumn(first)
	if !ok {
		t.Fatal("expected a next column after the first")
	}
	if next.ID != "col-audio" {
		t.Fatalf("expected col-audio, got %s", next.ID)
	}

	last, ok := ch.ColumnByID("col-edit")
	if !ok {
		t.Fatal("expected to find last column")
	}
	if _, ok := ch.NextColumn(last); ok {
		t.Fatal("expected last column to be terminal")
	}
}

func TestSortedColumnsIgnoresSliceOrder(t *testing.T) {
	ch := pipelineChannel()
	ch.Columns[0], ch.Columns[2] = ch.Columns[2], ch.Columns[0]

	sorted := ch.SortedColumns()
	for i, col := range sorted {
		if col.Order != i {
			t.Fatalf("expected order %d at position %d, got %d", i, i, col.Order)
		}
	}
}

func TestParseFieldType(t *testing.T) {
	cases := []struct {
		input string
		want  board.FieldType
		ok    bool
	}{
		{"text", board.FieldText, true},
		{" Dropdown ", board.FieldDropdown, true},
		{"LINK", board.FieldLink, true},
		{"", "", false},
		{"audio", "", false},
	}
	for _, tc := range cases {
		got, ok := board.ParseFieldType(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseFieldType(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFieldValueBlank(t *testing.T) {
	cases := []struct {
		name  string
		value board.FieldValue
		blank bool
	}{
		{"zero", board.FieldValue{}, true},
		{"whitespace text", board.TextValue(board.FieldText, "   "), true},
		{"text", board.TextValue(board.FieldText, "draft v2"), false},
		{"link", board.TextValue(board.FieldLink, "https://x.com"), false},
		{"zero number", board.NumberValue(0), false},
		{"unchecked checkbox", board.CheckboxValue(false), false},
		{"dateless date", board.FieldValue{Kind: board.FieldDate}, true},
		{"date", board.DateValue(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)), false},
	}
	for _, tc := range cases {
		if got := tc.value.Blank(); got != tc.blank {
			t.Fatalf("%s: Blank() = %v, want %v", tc.name, got, tc.blank)
		}
	}
}

func TestFieldValueConformsTo(t *testing.T) {
	dropdown := board.CustomField{
		Name:            "Status",
		Type:            board.FieldDropdown,
		DropdownOptions: []string{"draft", "ready"},
	}
	if err := board.TextValue(board.FieldDropdown, "ready").ConformsTo(dropdown); err != nil {
		t.Fatalf("expected listed option to conform: %v", err)
	}
	if err := board.TextValue(board.FieldDropdown, "published").ConformsTo(dropdown); err == nil {
		t.Fatal("expected unlisted option to be rejected")
	}

	number := board.CustomField{Name: "Runtime", Type: board.FieldNumber}
	if err := board.TextValue(board.FieldText, "12").ConformsTo(number); err == nil {
		t.Fatal("expected kind mismatch to be rejected")
	}
	if err := (board.FieldValue{}).ConformsTo(number); err != nil {
		t.Fatalf("expected blank value to conform (clears the field): %v", err)
	}
}

func TestParseFieldValue(t *testing.T) {
	date := board.CustomField{Name: "Publish Date", Type: board.FieldDate}
	value, err := board.ParseFieldValue(date, "2026-04-01")
	if err != nil {
		t.Fatalf("ParseFieldValue failed: %v", err)
	}
	if value.Date == nil || value.Date.Format("2006-01-02") != "2026-04-01" {
		t.Fatalf("unexpected date value: %#v", value)
	}

	if _, err := board.ParseFieldValue(date, "soon"); err == nil {
		t.Fatal("expected invalid date to be rejected")
	}

	number := board.CustomField{Name: "Runtime", Type: board.FieldNumber}
	if _, err := board.ParseFieldValue(number, "twelve"); err == nil {
		t.Fatal("expected invalid number to be rejected")
	}

	cleared, err := board.ParseFieldValue(number, "   ")
	if err != nil {
		t.Fatalf("ParseFieldValue failed for empty input: %v", err)
	}
	if !cleared.Blank() {
		t.Fatalf("expected empty input to produce a blank value, got %#v", cleared)
	}
}

func TestTaskCloneIsDeep(t *testing.T) {
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	task := board.Task{
		ID:      "task-1",
		Title:   "Episode 12",
		DueDate: &due,
		CustomFieldValues: map[string]board.FieldValue{
			"f1": board.TextValue(board.FieldText, "original"),
		},
		Links: []string{"https://x.com"},
	}

	clone := task.Clone()
	clone.CustomFieldValues["f1"] = board.TextValue(board.FieldText, "mutated")
	clone.Links[0] = "https://y.com"
	*clone.DueDate = due.AddDate(0, 1, 0)

	if task.CustomFieldValues["f1"].Text != "original" {
		t.Fatal("clone shares field-value map with source")
	}
	if task.Links[0] != "https://x.com" {
		t.Fatal("clone shares links slice with source")
	}
	if !task.DueDate.Equal(due) {
		t.Fatal("clone shares due-date pointer with source")
	}
}

func TestChannelCloneIsDeep(t *testing.T) {
	ch := pipelineChannel()
	ch.Members = []string{"u1"}
	ch.ColumnAssignments = map[string][]string{"col-script": {"u1"}}
	ch.CustomFields = []board.CustomField{{
		ID:                "f1",
		Name:              "Video Link",
		Type:              board.FieldLink,
		RequiredInColumns: []string{"col-script"},
		Permissions:       &board.FieldPermissions{EditableByUsers: []string{"u1"}},
	}}

	clone := ch.Clone()
	clone.Members[0] = "u2"
	clone.ColumnAssignments["col-script"][0] = "u2"
	clone.CustomFields[0].RequiredInColumns[0] = "col-audio"
	clone.CustomFields[0].Permissions.EditableByUsers[0] = "u2"

	if ch.Members[0] != "u1" ||
		ch.ColumnAssignments["col-script"][0] != "u1" ||
		ch.CustomFields[0].RequiredInColumns[0] != "col-script" ||
		ch.CustomFields[0].Permissions.EditableByUsers[0] != "u1" {
		t.Fatal("channel clone shares state with source")
	}
}
