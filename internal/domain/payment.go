package domain

// PaymentMethod is the recommended way to pay a medical bill.
type PaymentMethod string

const (
	PayWithHSACard PaymentMethod = "hsa_card"
	// PayCardThenReimburse: pay with a rewards credit card, then
	// reimburse yourself from the HSA.
	PayCardThenReimburse PaymentMethod = "card_then_reimburse"
	PayOutOfPocket       PaymentMethod = "out_of_pocket"
)

// PaymentRecommendationRequest is the body for POST /v1/payments/recommend.
type PaymentRecommendationRequest struct {
	Amount float64 `json:"amount"`
	Vendor string  `json:"vendor,omitempty"`
	// MarginalTaxRate as a fraction (e.g. 0.24). Zero means use default.
	MarginalTaxRate float64 `json:"marginal_tax_rate,omitempty"`
	// CardRewardsRate as a fraction (e.g. 0.02). Zero means use default.
	CardRewardsRate float64 `json:"card_rewards_rate,omitempty"`
	HSABalance      float64 `json:"hsa_balance,omitempty"`
}

// PaymentRecommendation is the calculator's output: simple arithmetic
// over tax and rewards rates, not financial advice.
type PaymentRecommendation struct {
	Method      PaymentMethod `json:"method"`
	TaxSavings  float64       `json:"tax_savings"`
	CardRewards float64       `json:"card_rewards"`
	NetBenefit  float64       `json:"net_benefit"`
	HSAEligible bool          `json:"hsa_eligible"`
	Explanation string        `json:"explanation"`
}
