// Package authz gates every society-scoped mutation behind membership, role
// and ownership checks.
package authz

import (
	"errors"

	"github.com/outly-dev/outly/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrNotMember means the caller has no ACTIVE membership in the society.
	ErrNotMember = errors.New("access denied")
	// ErrNotAdmin means the caller is a member but the operation needs ADMIN.
	ErrNotAdmin = errors.New("admin access required")
	// ErrLastAdmin guards the invariant that a society always keeps at least
	// one active admin.
	ErrLastAdmin = errors.New("cannot remove or demote the only admin")
)

// ActiveMember returns the caller's ACTIVE membership row for the society, or
// ErrNotMember when no such row exists.
func ActiveMember(conn *gorm.DB, societyID, userID uint) (*models.SocietyMember, error) {
	var member models.SocietyMember

	err := conn.Where("society_id = ? AND user_id = ? AND status = ?",
		societyID, userID, models.MemberActive).First(&member).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotMember
	}

	if err != nil {
		return nil, err
	}

	return &member, nil
}

// ActiveAdmin returns the caller's membership row when it is ACTIVE with the
// ADMIN role, ErrNotAdmin otherwise.
func ActiveAdmin(conn *gorm.DB, societyID, userID uint) (*models.SocietyMember, error) {
	member, err := ActiveMember(conn, societyID, userID)

	if errors.Is(err, ErrNotMember) {
		return nil, ErrNotAdmin
	}

	if err != nil {
		return nil, err
	}

	if member.Role != models.RoleAdmin {
		return nil, ErrNotAdmin
	}

	return member, nil
}

// CanManageOuting reports whether the user may mutate the outing: its creator
// or an active admin of the owning society.
func CanManageOuting(conn *gorm.DB, outing *models.Outing, userID uint) (bool, error) {
	if outing.CreatedBy == userID {
		return true, nil
	}

	_, err := ActiveAdmin(conn, outing.SocietyID, userID)

	if errors.Is(err, ErrNotAdmin) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

// CanActOnParticipant reports whether actor may mutate target's participant
// row: self-service is always allowed, others only for the outing creator or
// a society admin.
func CanActOnParticipant(member *models.SocietyMember, outing *models.Outing, actorID, targetID uint) bool {
	if actorID == targetID {
		return true
	}

	return outing.CreatedBy == actorID || member.Role == models.RoleAdmin
}

// CheckLastAdmin rejects a self-targeted demotion or removal that would leave
// the society without an active admin. Callers must run it inside the same
// transaction as the subsequent write so the count cannot go stale.
func CheckLastAdmin(tx *gorm.DB, societyID, actorID, targetID uint) error {
	if actorID != targetID {
		return nil
	}

	var admins int64

	err := tx.Model(&models.SocietyMember{}).
		Where("society_id = ? AND role = ? AND status = ?",
			societyID, models.RoleAdmin, models.MemberActive).
		Count(&admins).Error

	if err != nil {
		return err
	}

	if admins <= 1 {
		return ErrLastAdmin
	}

	return nil
}
