package models

import (
	"time"
)

// User is a login credential. TypeID points at the student or supervisor
// row it was provisioned for and is 0 for admins.
type User struct {
	ID           int64          `json:"id" db:"id" example:"1"`
	Type         CredentialType `json:"type" db:"type" example:"Student"`
	TypeID       int64          `json:"typeID" db:"type_id" example:"12"`
	Username     string         `json:"username" db:"username" example:"SCT211-0001/2020"`
	Password     string         `json:"-" db:"password"`
	TempPassword *string        `json:"-" db:"temp_password"`
	Reset        bool           `json:"reset" db:"reset"`
	DateCreated  time.Time      `json:"dateCreated" db:"date_created"`
}
