package models

import "gorm.io/gorm"

type SettlementStatus string

const (
	SettlementPending   SettlementStatus = "PENDING"
	SettlementCompleted SettlementStatus = "COMPLETED"
)

type Settlement struct {
	gorm.Model

	InstanceID uint             `gorm:"not null;index"`
	FromUserID uint             `gorm:"not null;index"`
	ToUserID   uint             `gorm:"not null;index"`
	Amount     float64          `gorm:"not null"`
	Status     SettlementStatus `gorm:"not null;default:PENDING"`

	// Relationships
	Instance Instance `gorm:"foreignKey:InstanceID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	FromUser User     `gorm:"foreignKey:FromUserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	ToUser   User     `gorm:"foreignKey:ToUserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
