// Package split turns declared expense shares into settlement obligations and
// reconciles member balances from the persisted ledger.
package split

import (
	"errors"

	"github.com/outly-dev/outly/internal/models"
)

var (
	ErrNonPositiveTotal = errors.New("total amount must be greater than zero")
	ErrNoParticipants   = errors.New("at least one participant is required")
	ErrNegativeShare    = errors.New("participant amount must not be negative")
)

// Share is one declared per-participant amount on an expense instance.
type Share struct {
	UserID uint
	Amount float64
}

// BuildSettlements validates the declared shares and produces one PENDING
// settlement per share, owed by the participant to the instance creator.
//
// The sum of the shares is deliberately not checked against totalAmount:
// uneven and partial declarations are allowed, the creator fronts whatever
// the shares do not cover.
func BuildSettlements(creatorID uint, totalAmount float64, shares []Share) ([]models.Settlement, error) {
	if totalAmount <= 0 {
		return nil, ErrNonPositiveTotal
	}

	if len(shares) == 0 {
		return nil, ErrNoParticipants
	}

	settlements := make([]models.Settlement, 0, len(shares))

	for _, share := range shares {
		if share.UserID == 0 {
			return nil, ErrNoParticipants
		}

		if share.Amount < 0 {
			return nil, ErrNegativeShare
		}

		settlements = append(settlements, models.Settlement{
			FromUserID: share.UserID,
			ToUserID:   creatorID,
			Amount:     share.Amount,
			Status:     models.SettlementPending,
		})
	}

	return settlements, nil
}

// EvenShare returns the per-head share of total among n participants. It is a
// display helper only; persisted settlements always carry declared amounts.
func EvenShare(total float64, n int) float64 {
	if n <= 0 {
		return 0
	}

	return total / float64(n)
}
