package board

import (
	"sort"
	"strings"
	"time"
)

// FieldType enumerates the kinds of custom field a channel can declare.
type FieldType string

const (
	FieldLink     FieldType = "link"
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldDropdown FieldType = "dropdown"
	FieldCheckbox FieldType = "checkbox"
)

var allFieldTypes = []FieldType{
	FieldLink,
	FieldText,
	FieldNumber,
	FieldDate,
	FieldDropdown,
	FieldCheckbox,
}

var fieldTypeSet = func() map[FieldType]struct{} {
	set := make(map[FieldType]struct{}, len(allFieldTypes))
	for _, ft := range allFieldTypes {
		set[ft] = struct{}{}
	}
	return set
}()

// AllFieldTypes returns the ordered list of known field types.
func AllFieldTypes() []FieldType {
	cp := make([]FieldType, len(allFieldTypes))
	copy(cp, allFieldTypes)
	return cp
}

// ParseFieldType converts a string into a known FieldType.
func ParseFieldType(value string) (FieldType, bool) {
	normalized := FieldType(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := fieldTypeSet[normalized]
	return normalized, ok
}

// Column is one ordered step in a channel's pipeline. Order values are unique
// and gapless from zero within a channel.
type Column struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// FieldPermissions restricts who may edit a custom field's value on a task.
// A nil record on the field means the field is open to every channel member.
type FieldPermissions struct {
	EditableByRoles                []string `json:"editable_by_roles,omitempty"`
	EditableByColumnResponsibility bool     `json:"editable_by_column_responsibility,omitempty"`
	EditableByUsers                []string `json:"editable_by_users,omitempty"`
}

// CustomField is a typed, optionally mandatory, optionally permission-restricted
// data slot attached to every task of a channel.
type CustomField struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Type              FieldType         `json:"type"`
	Order             int               `json:"order"`
	ShowOnCardFront   bool              `json:"show_on_card_front,omitempty"`
	DropdownOptions   []string          `json:"dropdown_options,omitempty"`
	RequiredInColumns []string          `json:"required_in_columns,omitempty"`
	Permissions       *FieldPermissions `json:"permissions,omitempty"`
}

// RequiredIn reports whether the field must hold a value before a task may
// leave the given column.
func (f CustomField) RequiredIn(columnID string) bool {
	for _, id := range f.RequiredInColumns {
		if id == columnID {
			return true
		}
	}
	return false
}

// Channel is a unit of work with its own pipeline of columns, custom field
// declarations, and membership.
type Channel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Columns     []Column  `json:"columns"`
	// CustomFields holds the channel's field declarations; order of the slice
	// is not significant, CustomField.Order is.
	CustomFields []CustomField `json:"custom_fields,omitempty"`
	Members      []string      `json:"members,omitempty"`
	ManagerID    string        `json:"manager_id,omitempty"`
	// ColumnAssignments maps a column id to the user and/or role ids
	// responsible for work in that column.
	ColumnAssignments map[string][]string `json:"column_assignments,omitempty"`
	Archived          bool                `json:"archived,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// ColumnByID returns the channel column with the given id.
func (c Channel) ColumnByID(id string) (Column, bool) {
	for _, col := range c.Columns {
		if col.ID == id {
			return col, true
		}
	}
	return Column{}, false
}

// NextColumn returns the column with order current.Order+1. Absence marks the
// current column as terminal.
func (c Channel) NextColumn(current Column) (Column, bool) {
	for _, col := range c.Columns {
		if col.Order == current.Order+1 {
			return col, true
		}
	}
	return Column{}, false
}

// SortedColumns returns the pipeline columns in traversal order.
func (c Channel) SortedColumns() []Column {
	cols := make([]Column, len(c.Columns))
	copy(cols, c.Columns)
	sort.Slice(cols, func(i, j int) bool { return cols[i].Order < cols[j].Order })
	return cols
}

// SortedFields returns the custom fields ordered by their declared order.
func (c Channel) SortedFields() []CustomField {
	fields := make([]CustomField, len(c.CustomFields))
	copy(fields, c.CustomFields)
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Order < fields[j].Order })
	return fields
}

// FieldByID returns the channel's custom field with the given id.
func (c Channel) FieldByID(id string) (CustomField, bool) {
	for _, f := range c.CustomFields {
		if f.ID == id {
			return f, true
		}
	}
	return CustomField{}, false
}

// HasMember reports whether the user id belongs to the channel, either as a
// listed member or as the channel manager.
func (c Channel) HasMember(userID string) bool {
	if userID == "" {
		return false
	}
	if c.ManagerID == userID {
		return true
	}
	for _, id := range c.Members {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand outside the store.
func (c Channel) Clone() Channel {
	cp := c
	cp.Columns = append([]Column(nil), c.Columns...)
	cp.Members = append([]string(nil), c.Members...)
	if c.CustomFields != nil {
		cp.CustomFields = make([]CustomField, len(c.CustomFields))
		for i, f := range c.CustomFields {
			cp.CustomFields[i] = f.Clone()
		}
	}
	if c.ColumnAssignments != nil {
		cp.ColumnAssignments = make(map[string][]string, len(c.ColumnAssignments))
		for col, ids := range c.ColumnAssignments {
			cp.ColumnAssignments[col] = append([]string(nil), ids...)
		}
	}
	return cp
}

// Clone returns a deep copy of the field declaration.
func (f CustomField) Clone() CustomField {
	cp := f
	cp.DropdownOptions = append([]string(nil), f.DropdownOptions...)
	cp.RequiredInColumns = append([]string(nil), f.RequiredInColumns...)
	if f.Permissions != nil {
		perms := FieldPermissions{
			EditableByRoles:                append([]string(nil), f.Permissions.EditableByRoles...),
			EditableByColumnResponsibility: f.Permissions.EditableByColumnResponsibility,
			EditableByUsers:                append([]string(nil), f.Permissions.EditableByUsers...),
		}
		cp.Permissions = &perms
	}
	return cp
}

// Task is an active work item moving through its channel's pipeline. It exists
// exactly while active; finalization replaces it with a CompletedTask.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ChannelID   string     `json:"channel_id"`
	ColumnID    string     `json:"column_id"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	// CustomFieldValues maps a CustomField id to its current value.
	CustomFieldValues map[string]FieldValue `json:"custom_field_values,omitempty"`
	Notes             string                `json:"notes,omitempty"`
	Links             []string              `json:"links,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// Clone returns a deep copy safe to hand outside the store.
func (t Task) Clone() Task {
	cp := t
	if t.DueDate != nil {
		due := *t.DueDate
		cp.DueDate = &due
	}
	if t.CustomFieldValues != nil {
		cp.CustomFieldValues = make(map[string]FieldValue, len(t.CustomFieldValues))
		for id, v := range t.CustomFieldValues {
			cp.CustomFieldValues[id] = v.Clone()
		}
	}
	cp.Links = append([]string(nil), t.Links...)
	return cp
}

// EventType classifies a stage event.
type EventType string

const (
	EventStageCompleted EventType = "stage_completed"
	EventFinalized      EventType = "finalized"
)

// ParseEventType converts a string into a known EventType.
func ParseEventType(value string) (EventType, bool) {
	switch EventType(strings.ToLower(strings.TrimSpace(value))) {
	case EventStageCompleted:
		return EventStageCompleted, true
	case EventFinalized:
		return EventFinalized, true
	default:
		return "", false
	}
}

// StageEvent is one immutable audit record of a stage transition. Events are
// append-only and are the sole source of truth for transition history.
type StageEvent struct {
	ID           string    `json:"id"`
	TaskID       string    `json:"task_id"`
	ChannelID    string    `json:"channel_id"`
	ActorUserID  string    `json:"actor_user_id"`
	FromColumnID string    `json:"from_column_id"`
	ToColumnID   string    `json:"to_column_id"`
	EventType    EventType `json:"event_type"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// CompletedTask is the denormalized snapshot produced exactly once at
// finalization. It copies display names, not references, so later renames of
// the channel or its columns never rewrite history. No update operation exists.
type CompletedTask struct {
	ID                string                `json:"id"`
	TaskID            string                `json:"task_id"`
	Title             string                `json:"title"`
	Description       string                `json:"description,omitempty"`
	ChannelID         string                `json:"channel_id"`
	ChannelName       string                `json:"channel_name"`
	ColumnName        string                `json:"column_name"`
	AssignedTo        string                `json:"assigned_to,omitempty"`
	CustomFieldValues map[string]FieldValue `json:"custom_field_values,omitempty"`
	Notes             string                `json:"notes,omitempty"`
	Links             []string              `json:"links,omitempty"`
	CompletedBy       string                `json:"completed_by"`
	CompletedAt       time.Time             `json:"completed_at"`
	TaskCreatedAt     time.Time             `json:"task_created_at"`
}

// User identifies an acting user as supplied by the authentication
// collaborator: the core authorizes with the id and role it is given.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	RoleID    string    `json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Role names an authority level. The role named "owner" may hard-delete
// channels.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OwnerRoleName is the role name carrying owner-level authority.
const OwnerRoleName = "owner"

// OvertimeEntry records extra hours logged against a channel. Filtering,
// aggregation, and export live in presentation; the entity is persisted here.
type OvertimeEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ChannelID string    `json:"channel_id,omitempty"`
	Date      time.Time `json:"date"`
	Hours     float64   `json:"hours"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AppSettings holds process-wide preferences.
type AppSettings struct {
	DefaultUserID string    `json:"default_user_id,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}
