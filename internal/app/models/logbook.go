package models

import "time"

// LogbookEntry is a dated diary note attached to one attachment
type LogbookEntry struct {
	ID          int64     `json:"id" db:"id"`
	Attachment  int64     `json:"attachment" db:"attachment"`
	LogDate     time.Time `json:"logDate" db:"log_date"`
	Log         string    `json:"log" db:"log"`
	DateCreated time.Time `json:"dateCreated" db:"date_created"`
}
