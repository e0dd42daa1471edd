package service

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/pathik-bd/pathik-api/internal/model"
)

// Settlement is the equal-split view of a tour's expenses.  Balances are
// raw float64 values; Lines carries the same numbers rounded for display.
type Settlement struct {
	Total     float64            `json:"total"`
	Share     float64            `json:"share"`
	Balances  map[string]float64 `json:"balances"`
	Lines     []SettlementLine   `json:"lines"`
	Transfers []Transfer         `json:"transfers"`
}

// SettlementLine is one member's row, in tour member order.
type SettlementLine struct {
	Member  string `json:"member"`
	Paid    string `json:"paid"`
	Balance string `json:"balance"`
	// Status is "creditor", "debtor" or "settled".
	Status string `json:"status"`
}

// Transfer is a suggested payment that clears part of the balances.
type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

const settleEpsilon = 0.005

// ComputeSettlement splits the total of expenses equally across members and
// returns what each member paid minus their share.  Positive balances are
// owed money by the group.  Members must be non-empty and distinct, and
// every payer must be a member.
func ComputeSettlement(members []string, expenses []model.Expense) (Settlement, error) {
	if len(members) == 0 {
		return Settlement{}, invalid("members", "must not be empty")
	}
	paid := make(map[string]float64, len(members))
	for _, m := range members {
		if _, dup := paid[m]; dup {
			return Settlement{}, invalid("members", "contains duplicate name "+m)
		}
		paid[m] = 0
	}

	var total float64
	for _, e := range expenses {
		if _, ok := paid[e.PaidBy]; !ok {
			return Settlement{}, invalid("paid_by", e.PaidBy+" is not a tour member")
		}
		paid[e.PaidBy] += e.Amount
		total += e.Amount
	}

	share := total / float64(len(members))
	s := Settlement{
		Total:     total,
		Share:     share,
		Balances:  make(map[string]float64, len(members)),
		Lines:     make([]SettlementLine, 0, len(members)),
		Transfers: []Transfer{},
	}
	for _, m := range members {
		b := paid[m] - share
		s.Balances[m] = b
		s.Lines = append(s.Lines, SettlementLine{
			Member:  m,
			Paid:    money(paid[m]),
			Balance: money(b),
			Status:  balanceStatus(b),
		})
	}
	s.Transfers = suggestTransfers(members, s.Balances)
	return s, nil
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func balanceStatus(b float64) string {
	switch {
	case b > settleEpsilon:
		return "creditor"
	case b < -settleEpsilon:
		return "debtor"
	}
	return "settled"
}

// suggestTransfers pairs the largest debtor with the largest creditor until
// every balance is within a paisa of zero.  Ties keep member order.
func suggestTransfers(members []string, balances map[string]float64) []Transfer {
	type party struct {
		name string
		amt  float64
	}
	var debtors, creditors []party
	for _, m := range members {
		b := balances[m]
		switch {
		case b > settleEpsilon:
			creditors = append(creditors, party{m, b})
		case b < -settleEpsilon:
			debtors = append(debtors, party{m, -b})
		}
	}
	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].amt > creditors[j].amt })
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].amt > debtors[j].amt })

	out := []Transfer{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amt := math.Min(debtors[i].amt, creditors[j].amt)
		out = append(out, Transfer{From: debtors[i].name, To: creditors[j].name, Amount: money(amt)})
		debtors[i].amt -= amt
		creditors[j].amt -= amt
		if debtors[i].amt <= settleEpsilon {
			i++
		}
		if creditors[j].amt <= settleEpsilon {
			j++
		}
	}
	return out
}
