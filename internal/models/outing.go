package models

import (
	"time"

	"gorm.io/gorm"
)

type OutingStatus string

const (
	OutingPlanned   OutingStatus = "PLANNED"
	OutingCompleted OutingStatus = "COMPLETED"
	OutingCancelled OutingStatus = "CANCELLED"
)

func (s OutingStatus) Valid() bool {
	return s == OutingPlanned || s == OutingCompleted || s == OutingCancelled
}

type Outing struct {
	gorm.Model

	Title       string `gorm:"not null"`
	Description string
	Date        time.Time `gorm:"not null"`
	Location    string
	Budget      *float64
	Status      OutingStatus `gorm:"not null;default:PLANNED"`
	SocietyID   uint         `gorm:"not null;index"`
	CreatedBy   uint         `gorm:"not null;index"`

	// Relationships
	Society      Society             `gorm:"foreignKey:SocietyID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Creator      User                `gorm:"foreignKey:CreatedBy;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Participants []OutingParticipant `gorm:"foreignKey:OutingID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Instances    []Instance          `gorm:"foreignKey:OutingID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
