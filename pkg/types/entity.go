package types

import "time"

// Entity carries the columns every table has.
// A non-nil DeletedAt marks the row as soft-deleted.
type Entity struct {
	ID        string     `json:"id" db:"id"`                 // uuid, assigned on create
	CreatedAt time.Time  `json:"created_at" db:"created_at"` // set on insert
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"` // refreshed on every update
	DeletedAt *time.Time `json:"-" db:"deleted_at"`          // soft delete marker
}

const (
	COLUMN_ID         = "id"
	COLUMN_CREATED_AT = "created_at"
	COLUMN_UPDATED_AT = "updated_at"
	COLUMN_DELETED_AT = "deleted_at"
	COLUMN_USER_ID    = "user_id"
)

// Persistable is implemented by every entity kind the generic repository can store.
// Columns and Values must stay index aligned.
type Persistable interface {
	TableName() TableName
	Columns() []string
	Values() []any
	Base() *Entity
}

// Owned is implemented by entities scoped to a single user.
type Owned interface {
	OwnerID() string
}

func (e *Entity) Base() *Entity {
	return e
}

func (e *Entity) IsDeleted() bool {
	return e.DeletedAt != nil
}

func BaseColumns() []string {
	return []string{COLUMN_ID, COLUMN_CREATED_AT, COLUMN_UPDATED_AT, COLUMN_DELETED_AT}
}

func (e *Entity) baseValues() []any {
	return []any{e.ID, e.CreatedAt, e.UpdatedAt, e.DeletedAt}
}

// IsSystemColumn reports whether the column is managed by the store and may not be patched.
func IsSystemColumn(column string) bool {
	switch column {
	case COLUMN_ID, COLUMN_CREATED_AT, COLUMN_UPDATED_AT, COLUMN_DELETED_AT:
		return true
	}
	return false
}

// Payload is a decoded request body that knows how to flatten itself into column values.
// Optional fields that were not sent serialize to nil.
type Payload interface {
	Serialize() map[string]any
}

func ptrValue[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
