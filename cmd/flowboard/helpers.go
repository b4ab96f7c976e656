package main

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"flowboard/internal/board"
	"flowboard/internal/store"
)

var titleCaser = cases.Title(language.Und)

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// roleDisplay renders a role name for tables ("owner" -> "Owner").
func roleDisplay(name string) string {
	return titleCaser.String(name)
}

// userDisplay renders a user reference, falling back to the raw id when the
// user no longer exists.
func userDisplay(st *store.Store, id string) string {
	if id == "" {
		return ""
	}
	user, err := st.UserByID(id)
	if err != nil {
		return id
	}
	return user.Name
}

// columnDisplay renders a column reference within its channel.
func columnDisplay(channel board.Channel, columnID string) string {
	if column, ok := channel.ColumnByID(columnID); ok {
		return column.Name
	}
	return columnID
}

// canWorkIn reports whether the user may create work in the channel: members,
// the manager, and owner-role users qualify.
func canWorkIn(st *store.Store, channel board.Channel, userID string) bool {
	if channel.HasMember(userID) || channel.ManagerID == userID {
		return true
	}
	user, err := st.UserByID(userID)
	if err != nil {
		return false
	}
	role, err := st.RoleByID(user.RoleID)
	if err != nil {
		return false
	}
	return role.Name == board.OwnerRoleName
}

// parseDate accepts YYYY-MM-DD or RFC 3339 input.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", raw)
}
