package split

import (
	"sort"

	"github.com/outly-dev/outly/internal/models"
)

// epsilon below which floating point residue is treated as settled.
const epsilon = 0.01

// MemberBalance aggregates one member's position within a society.
type MemberBalance struct {
	UserID     uint
	TotalPaid  float64 // sum of instance totals this member fronted
	TotalOwed  float64 // sum of this member's outstanding settlement amounts
	NetBalance float64 // positive = is owed money, negative = owes money
}

// DebtEdge is a suggested repayment from one member to another.
type DebtEdge struct {
	FromUserID uint
	ToUserID   uint
	Amount     float64
}

// ComputeBalances reconciles balances from persisted rows instead of
// recomputing an even split: every outstanding settlement moves its amount
// from the debtor's net to the creditor's net. COMPLETED settlements are
// skipped, that debt has already been paid. Self-settlements (a creator who
// listed themselves as a participant) cancel out and are ignored.
func ComputeBalances(instances []models.Instance, settlements []models.Settlement) []MemberBalance {
	balances := make(map[uint]*MemberBalance)

	get := func(userID uint) *MemberBalance {
		if bal, ok := balances[userID]; ok {
			return bal
		}
		bal := &MemberBalance{UserID: userID}
		balances[userID] = bal
		return bal
	}

	for _, instance := range instances {
		get(instance.CreatedBy).TotalPaid += instance.TotalAmount
	}

	for _, settlement := range settlements {
		if settlement.Status == models.SettlementCompleted {
			continue
		}
		if settlement.FromUserID == settlement.ToUserID {
			continue
		}

		debtor := get(settlement.FromUserID)
		creditor := get(settlement.ToUserID)

		debtor.TotalOwed += settlement.Amount
		debtor.NetBalance -= settlement.Amount
		creditor.NetBalance += settlement.Amount
	}

	result := make([]MemberBalance, 0, len(balances))
	for _, bal := range balances {
		result = append(result, *bal)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UserID < result[j].UserID
	})

	return result
}

// SimplifyDebts reduces the outstanding balances to a minimal-ish set of
// repayments using greedy matching of the largest debtors against the largest
// creditors.
func SimplifyDebts(balances []MemberBalance) []DebtEdge {
	var debtors, creditors []MemberBalance

	for _, bal := range balances {
		if bal.NetBalance < -epsilon {
			debtors = append(debtors, bal)
		} else if bal.NetBalance > epsilon {
			creditors = append(creditors, bal)
		}
	}

	sort.Slice(debtors, func(i, j int) bool {
		return debtors[i].NetBalance < debtors[j].NetBalance
	})
	sort.Slice(creditors, func(i, j int) bool {
		return creditors[i].NetBalance > creditors[j].NetBalance
	})

	remainingDebt := make(map[uint]float64, len(debtors))
	remainingCredit := make(map[uint]float64, len(creditors))

	for _, d := range debtors {
		remainingDebt[d.UserID] = -d.NetBalance
	}
	for _, c := range creditors {
		remainingCredit[c.UserID] = c.NetBalance
	}

	var edges []DebtEdge
	i, j := 0, 0

	for i < len(debtors) && j < len(creditors) {
		debtor := debtors[i].UserID
		creditor := creditors[j].UserID

		amount := remainingDebt[debtor]
		if remainingCredit[creditor] < amount {
			amount = remainingCredit[creditor]
		}

		if amount > epsilon {
			edges = append(edges, DebtEdge{
				FromUserID: debtor,
				ToUserID:   creditor,
				Amount:     amount,
			})
		}

		remainingDebt[debtor] -= amount
		remainingCredit[creditor] -= amount

		if remainingDebt[debtor] < epsilon {
			i++
		}
		if remainingCredit[creditor] < epsilon {
			j++
		}
	}

	return edges
}
