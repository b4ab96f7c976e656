package permissions_test

import (
	"testing"

	"flowboard/internal/board"
	"flowboard/internal/permissions"
)

func TestCanEditOpenWithoutPermissions(t *testing.T) {
	field := board.CustomField{ID: "f1", Name: "Video Link", Type: board.FieldLink}
	task := board.Task{ID: "t1", ColumnID: "col-script"}
	channel := board.Channel{ID: "ch1"}

	if !permissions.CanEdit(field, task, channel, board.User{ID: "anyone"}) {
		t.Fatal("expected field without permission record to be editable by anyone")
	}

	field.Permissions = &board.FieldPermissions{}
	if !permissions.CanEdit(field, task, channel, board.User{ID: "anyone"}) {
		t.Fatal("expected field with empty permission record to be editable by anyone")
	}
}

func TestCanEditClauses(t *testing.T) {
	channel := board.Channel{
		ID: "ch1",
		ColumnAssignments: map[string][]string{
			"col-audio": {"sound-team", "u-mixer"},
		},
	}
	task := board.Task{ID: "t1", ChannelID: "ch1", ColumnID: "col-audio"}

	cases := []struct {
		name  string
		perms board.FieldPermissions
		user  board.User
		want  bool
	}{
		{
			name:  "role listed",
			perms: board.FieldPermissions{EditableByRoles: []string{"r-editor"}},
			user:  board.User{ID: "u1", RoleID: "r-editor"},
			want:  true,
		},
		{
			name:  "role not listed",
			perms: board.FieldPermissions{EditableByRoles: []string{"r-editor"}},
			user:  board.User{ID: "u1", RoleID: "r-writer"},
			want:  false,
		},
		{
			name:  "user listed",
			perms: board.FieldPermissions{EditableByUsers: []string{"u1"}},
			user:  board.User{ID: "u1", RoleID: "r-writer"},
			want:  true,
		},
		{
			name:  "column responsibility by user id",
			perms: board.FieldPermissions{EditableByColumnResponsibility: true},
			user:  board.User{ID: "u-mixer", RoleID: "r-writer"},
			want:  true,
		},
		{
			name:  "column responsibility by role id",
			perms: board.FieldPermissions{EditableByColumnResponsibility: true},
			user:  board.User{ID: "u9", RoleID: "sound-team"},
			want:  true,
		},
		{
			name:  "column responsibility elsewhere",
			perms: board.FieldPermissions{EditableByColumnResponsibility: true},
			user:  board.User{ID: "u9", RoleID: "r-writer"},
			want:  false,
		},
		{
			name: "any single clause suffices",
			perms: board.FieldPermissions{
				EditableByRoles: []string{"r-editor"},
				EditableByUsers: []string{"u1"},
			},
			user: board.User{ID: "u1", RoleID: "r-writer"},
			want: true,
		},
	}

	for _, tc := range cases {
		field := board.CustomField{ID: "f1", Type: board.FieldText, Permissions: &tc.perms}
		if got := permissions.CanEdit(field, task, channel, tc.user); got != tc.want {
			t.Fatalf("%s: CanEdit = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCanEditResponsibilityTracksTaskColumn(t *testing.T) {
	channel := board.Channel{
		ID:                "ch1",
		ColumnAssignments: map[string][]string{"col-audio": {"u-mixer"}},
	}
	field := board.CustomField{
		ID:          "f1",
		Type:        board.FieldText,
		Permissions: &board.FieldPermissions{EditableByColumnResponsibility: true},
	}
	user := board.User{ID: "u-mixer"}

	inAudio := board.Task{ID: "t1", ColumnID: "col-audio"}
	if !permissions.CanEdit(field, inAudio, channel, user) {
		t.Fatal("expected edit access while task sits in the assigned column")
	}

	inScript := board.Task{ID: "t1", ColumnID: "col-script"}
	if permissions.CanEdit(field, inScript, channel, user) {
		t.Fatal("expected no access once the task sits in another column")
	}
}
