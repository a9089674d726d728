package models

import "gorm.io/gorm"

type Instance struct {
	gorm.Model

	Title       string `gorm:"not null"`
	Description string
	TotalAmount float64 `gorm:"not null"`
	OutingID    uint    `gorm:"not null;index"`
	CreatedBy   uint    `gorm:"not null;index"`

	// Relationships
	Outing      Outing       `gorm:"foreignKey:OutingID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Creator     User         `gorm:"foreignKey:CreatedBy;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Settlements []Settlement `gorm:"foreignKey:InstanceID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
