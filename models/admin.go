package models

import (
	"time"
)

// AdminLevel is the privilege of an operator
type AdminLevel string

const (
	AdminLevelNone  AdminLevel = ""
	AdminLevelAdmin AdminLevel = "admin"
	AdminLevelOwner AdminLevel = "owner"
)

// IsPrivileged reports whether the level exempts the user from lookup charges
func (l AdminLevel) IsPrivileged() bool {
	return l == AdminLevelAdmin || l == AdminLevelOwner
}

// Admin is a persisted operator entry
type Admin struct {
	UserID   int64      `db:"user_id"`
	Level    AdminLevel `db:"level"`
	AddedBy  *int64     `db:"added_by"`
	AddedAt  time.Time  `db:"added_at"`
	Username *string    `db:"-"`
}
