package models

import (
	"gorm.io/gorm"
)

// GormMap stores one named generated map as a JSONB payload.
type GormMap struct {
	gorm.Model
	Name string `gorm:"uniqueIndex;not null"`
	Data []byte `gorm:"type:jsonb;not null"`
}

// GormDocument stores a whole-table JSON document (the room table, the user
// table) under a well-known name, mirroring the flat-file layout.
type GormDocument struct {
	gorm.Model
	Name string `gorm:"uniqueIndex;not null"`
	Data []byte `gorm:"type:jsonb;not null"`
}
