package models

import "gorm.io/gorm"

type ParticipantStatus string

const (
	ParticipantConfirmed ParticipantStatus = "CONFIRMED"
	ParticipantPending   ParticipantStatus = "PENDING"
	ParticipantDeclined  ParticipantStatus = "DECLINED"
)

func (s ParticipantStatus) Valid() bool {
	return s == ParticipantConfirmed || s == ParticipantPending || s == ParticipantDeclined
}

type OutingParticipant struct {
	gorm.Model

	OutingID uint              `gorm:"not null;uniqueIndex:idx_outing_user"`
	UserID   uint              `gorm:"not null;uniqueIndex:idx_outing_user"`
	Status   ParticipantStatus `gorm:"not null;default:CONFIRMED"`

	// Relationships
	Outing Outing `gorm:"foreignKey:OutingID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User   User   `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
