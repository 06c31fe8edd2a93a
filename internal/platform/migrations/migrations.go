package migrations

import (
	"time"

	"gorm.io/gorm"
)

// Run applies the schema used by the postgres credential backend.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(&credentialRecord{})
}

// Credential schema mirrors the session postgres adapter.
type credentialRecord struct {
	Key       string     `gorm:"primaryKey;column:key;size:128"`
	Token     string     `gorm:"column:token;size:4096"`
	ExpiresAt *time.Time `gorm:"column:expires_at;index"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (credentialRecord) TableName() string { return "client_credentials" }
