package qualify

import (
	"testing"

	"github.com/globaltelecom/voicebridge/internal/types"
)

func f(v float64) *float64 { return &v }

var defaults = Thresholds{MinDebtAmount: 10000, MinMonthlyIncome: 2000}

func TestQualified(t *testing.T) {
	tests := []struct {
		name    string
		profile types.FinancialProfile
		want    bool
	}{
		{
			name: "all thresholds met",
			profile: types.FinancialProfile{
				DebtAmount:         f(15000),
				MonthlyIncome:      f(2500),
				HasCheckingAccount: true,
			},
			want: true,
		},
		{
			name: "exactly at thresholds",
			profile: types.FinancialProfile{
				DebtAmount:         f(10000),
				MonthlyIncome:      f(2000),
				HasCheckingAccount: true,
			},
			want: true,
		},
		{
			name: "income below minimum",
			profile: types.FinancialProfile{
				DebtAmount:         f(15000),
				MonthlyIncome:      f(500),
				HasCheckingAccount: true,
			},
			want: false,
		},
		{
			name: "debt below minimum",
			profile: types.FinancialProfile{
				DebtAmount:         f(5000),
				MonthlyIncome:      f(2500),
				HasCheckingAccount: true,
			},
			want: false,
		},
		{
			name: "no checking account",
			profile: types.FinancialProfile{
				DebtAmount:         f(15000),
				MonthlyIncome:      f(2500),
				HasCheckingAccount: false,
			},
			want: false,
		},
		{
			name: "missing debt amount never qualifies",
			profile: types.FinancialProfile{
				MonthlyIncome:      f(2500),
				HasCheckingAccount: true,
			},
			want: false,
		},
		{
			name: "missing income never qualifies",
			profile: types.FinancialProfile{
				DebtAmount:         f(15000),
				HasCheckingAccount: true,
			},
			want: false,
		},
		{
			name:    "empty profile",
			profile: types.FinancialProfile{},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Qualified(tt.profile, defaults); got != tt.want {
				t.Errorf("Qualified() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQualifiedDeterministic(t *testing.T) {
	p := types.FinancialProfile{
		DebtAmount:         f(12000),
		MonthlyIncome:      f(3000),
		HasCheckingAccount: true,
	}
	first := Qualified(p, defaults)
	for i := 0; i < 10; i++ {
		if Qualified(p, defaults) != first {
			t.Fatal("qualification not deterministic for identical input")
		}
	}
}

func TestQualifiedConfigurableThresholds(t *testing.T) {
	p := types.FinancialProfile{
		DebtAmount:         f(12000),
		MonthlyIncome:      f(1600),
		HasCheckingAccount: true,
	}

	if Qualified(p, defaults) {
		t.Error("expected unqualified at income minimum 2000")
	}
	if !Qualified(p, Thresholds{MinDebtAmount: 10000, MinMonthlyIncome: 1500}) {
		t.Error("expected qualified at income minimum 1500")
	}
}
