package models

import "gorm.io/gorm"

type Society struct {
	gorm.Model

	Name        string `gorm:"not null"`
	Description string
	CreatedBy   uint `gorm:"not null;index"`

	// Relationships
	Creator User            `gorm:"foreignKey:CreatedBy;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Members []SocietyMember `gorm:"foreignKey:SocietyID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Outings []Outing        `gorm:"foreignKey:SocietyID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
