// Package permissions decides whether an acting user may edit a custom field
// value on a task. The resolver is a pure predicate over data the caller
// already holds; it never touches the store and never fails.
package permissions

import "flowboard/internal/board"

// CanEdit reports whether user may edit field on task within channel.
//
// A field without a permission record is open: every channel member may edit
// it. With a record present, access is granted when any one clause holds: the
// user's role is listed, the user's id is listed, or column responsibility is
// enabled and the user appears (by id or role id) in the channel's
// assignments for the task's current column. An unrecognized field or empty
// record yields open access rather than an error.
func CanEdit(field board.CustomField, task board.Task, channel board.Channel, user board.User) bool {
	perms := field.Permissions
	if perms == nil {
		return true
	}
	if len(perms.EditableByRoles) == 0 && len(perms.EditableByUsers) == 0 && !perms.EditableByColumnResponsibility {
		return true
	}
	if contains(perms.EditableByRoles, user.RoleID) {
		return true
	}
	if contains(perms.EditableByUsers, user.ID) {
		return true
	}
	if perms.EditableByColumnResponsibility {
		assigned := channel.ColumnAssignments[task.ColumnID]
		if contains(assigned, user.ID) || contains(assigned, user.RoleID) {
			return true
		}
	}
	return false
}

func contains(ids []string, id string) bool {
	if id == "" {
		return false
	}
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
