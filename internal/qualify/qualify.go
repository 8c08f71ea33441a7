package qualify

import "github.com/globaltelecom/voicebridge/internal/types"

// Thresholds are the minimums a lead must meet for transfer
type Thresholds struct {
	MinDebtAmount    float64
	MinMonthlyIncome float64
}

// Qualified reports whether the collected financial profile meets all
// transfer criteria: debt and income at or above their minimums and an
// active checking account. All three are required. A nil numeric field
// means the value was never collected and fails its threshold.
func Qualified(p types.FinancialProfile, t Thresholds) bool {
	if p.DebtAmount == nil || *p.DebtAmount < t.MinDebtAmount {
		return false
	}
	if p.MonthlyIncome == nil || *p.MonthlyIncome < t.MinMonthlyIncome {
		return false
	}
	return p.HasCheckingAccount
}
