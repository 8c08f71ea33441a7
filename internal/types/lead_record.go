package types

// LeadRecord represents one processed data-submission for DynamoDB persistence
type LeadRecord struct {
	DateKey            string  `json:"dateKey" dynamodbav:"DateKey"` // YYYY-MM-DD (partition key)
	CallID             string  `json:"callId" dynamodbav:"CallID"`   // sort key
	Phone              string  `json:"phone" dynamodbav:"Phone"`
	Subdomain          string  `json:"subdomain" dynamodbav:"Subdomain"`
	Qualified          bool    `json:"qualified" dynamodbav:"Qualified"`
	DataSent           bool    `json:"dataSent" dynamodbav:"DataSent"`
	DebtAmount         float64 `json:"debtAmount" dynamodbav:"DebtAmount"`
	DebtType           string  `json:"debtType" dynamodbav:"DebtType"`
	MonthlyIncome      float64 `json:"monthlyIncome" dynamodbav:"MonthlyIncome"`
	HasCheckingAccount bool    `json:"hasCheckingAccount" dynamodbav:"HasCheckingAccount"`
	EmploymentStatus   string  `json:"employmentStatus" dynamodbav:"EmploymentStatus"`
	ReceivedAt         string  `json:"receivedAt" dynamodbav:"ReceivedAt"` // RFC3339
}
