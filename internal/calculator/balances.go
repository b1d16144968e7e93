package calculator

import (
	"sort"

	"github.com/mmynk/fintrack/internal/models"
)

// MemberDelta is the change a shared expense makes to a member's balance.
// Positive means the member owes the user more.
func MemberDelta(direction models.MemberDirection, amount float64) float64 {
	switch direction {
	case models.PaidForMember:
		return amount
	case models.PaidByMember:
		return -amount
	}
	return 0
}

// MemberBalance summarizes one member's shared-expense ledger.
type MemberBalance struct {
	MemberID   string
	PaidFor    float64 // total the user paid on the member's behalf
	PaidBy     float64 // total the member paid on the user's behalf
	NetBalance float64 // PaidFor - PaidBy; positive = member owes the user
}

// CalculateMemberBalances folds member transactions into per-member balances,
// ordered by member ID.
//
// Algorithm:
// - PAID_FOR_MEMBER adds the amount to what the member owes
// - PAID_BY_MEMBER adds the amount to what the user owes the member
// - net = paid_for - paid_by
func CalculateMemberBalances(entries []models.MemberTransaction) []MemberBalance {
	balances := make(map[string]*MemberBalance)

	for _, e := range entries {
		bal, exists := balances[e.MemberID]
		if !exists {
			bal = &MemberBalance{MemberID: e.MemberID}
			balances[e.MemberID] = bal
		}

		switch e.Direction {
		case models.PaidForMember:
			bal.PaidFor += e.Amount
		case models.PaidByMember:
			bal.PaidBy += e.Amount
		}
	}

	result := make([]MemberBalance, 0, len(balances))
	for _, bal := range balances {
		bal.NetBalance = bal.PaidFor - bal.PaidBy
		result = append(result, *bal)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MemberID < result[j].MemberID })

	return result
}
