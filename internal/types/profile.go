package types

// CallerProfile is a resolved caller identity. Absent fields are empty
// strings, never nil, so greeting composition is always safe.
type CallerProfile struct {
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	State     string            `json:"state"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// IsEmpty reports whether the profile carries no identifying fields
func (p CallerProfile) IsEmpty() bool {
	return p.FirstName == "" && p.LastName == "" && p.State == ""
}

// FinancialProfile holds the attributes collected during a call.
// Numeric fields are pointers: a nil value means the attribute was never
// provided and must fail its qualification threshold rather than read as 0.
type FinancialProfile struct {
	DebtAmount         *float64 `json:"debtAmount"`
	DebtType           string   `json:"debtType"`
	MonthlyIncome      *float64 `json:"monthlyIncome"`
	HasCheckingAccount bool     `json:"hasCheckingAccount"`
	EmploymentStatus   string   `json:"employmentStatus"`
}

// FinancialProfileFromAttrs extracts a FinancialProfile from a function-call
// parameter map. Unparseable or missing numerics stay nil.
func FinancialProfileFromAttrs(attrs map[string]any) FinancialProfile {
	var p FinancialProfile
	if v, ok := toFloat(attrs["debtAmount"]); ok {
		p.DebtAmount = &v
	}
	if v, ok := toFloat(attrs["monthlyIncome"]); ok {
		p.MonthlyIncome = &v
	}
	if s, ok := attrs["debtType"].(string); ok {
		p.DebtType = s
	}
	if s, ok := attrs["employmentStatus"].(string); ok {
		p.EmploymentStatus = s
	}
	if b, ok := attrs["hasCheckingAccount"].(bool); ok {
		p.HasCheckingAccount = b
	}
	return p
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
