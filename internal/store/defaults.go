package store

import (
	"time"

	"flowboard/internal/board"
)

// Well-known ids of the built-in default dataset. The dataset seeds a fresh
// data directory and substitutes for any collection whose slot cannot be
// read back.
const (
	DefaultOwnerRoleID   = "role-owner"
	DefaultManagerRoleID = "role-manager"
	DefaultMemberRoleID  = "role-member"
	DefaultAdminUserID   = "user-admin"
)

type collections struct {
	channels  map[string]*board.Channel
	tasks     map[string]*board.Task
	users     map[string]*board.User
	roles     map[string]*board.Role
	overtime  []board.OvertimeEntry
	completed []board.CompletedTask
	events    []board.StageEvent
	settings  board.AppSettings
}

func defaultCollections() collections {
	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	admin := &board.User{
		ID:        DefaultAdminUserID,
		Name:      "Admin",
		RoleID:    DefaultOwnerRoleID,
		CreatedAt: epoch,
	}
	return collections{
		channels: map[string]*board.Channel{},
		tasks:    map[string]*board.Task{},
		users:    map[string]*board.User{admin.ID: admin},
		roles: map[string]*board.Role{
			DefaultOwnerRoleID:   {ID: DefaultOwnerRoleID, Name: board.OwnerRoleName},
			DefaultManagerRoleID: {ID: DefaultManagerRoleID, Name: "manager"},
			DefaultMemberRoleID:  {ID: DefaultMemberRoleID, Name: "member"},
		},
		settings: board.AppSettings{
			DefaultUserID: DefaultAdminUserID,
			UpdatedAt:     epoch,
		},
	}
}
