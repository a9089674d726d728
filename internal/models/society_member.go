package models

import "gorm.io/gorm"

type MemberRole string

const (
	RoleAdmin  MemberRole = "ADMIN"
	RoleMember MemberRole = "MEMBER"
)

func (r MemberRole) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

type MemberStatus string

const (
	MemberActive   MemberStatus = "ACTIVE"
	MemberInactive MemberStatus = "INACTIVE"
)

type SocietyMember struct {
	gorm.Model

	SocietyID uint         `gorm:"not null;uniqueIndex:idx_society_user"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_society_user"`
	Role      MemberRole   `gorm:"not null;default:MEMBER"`
	Status    MemberStatus `gorm:"not null;default:ACTIVE"`

	// Relationships
	Society Society `gorm:"foreignKey:SocietyID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User    User    `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
