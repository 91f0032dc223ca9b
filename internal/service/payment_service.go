package service

import (
	"context"
	"fmt"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/careledger/careledger-go/internal/recon"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var paymentTracer = otel.Tracer("service/payment")

const (
	defaultMarginalTaxRate = 0.24
	defaultCardRewardsRate = 0.02
)

// PaymentService recommends how to pay a medical bill. The output is
// plain arithmetic over tax and rewards rates, not financial advice.
type PaymentService struct {
	logger *zap.Logger
}

// NewPaymentService creates the payment recommendation calculator.
func NewPaymentService(logger *zap.Logger) *PaymentService {
	return &PaymentService{logger: logger}
}

// Recommend computes the payment recommendation for one bill.
//
// HSA dollars are pre-tax, so paying an eligible expense from the HSA
// saves amount × marginal tax rate. Paying by rewards card and then
// reimbursing from the HSA keeps that saving and adds card rewards,
// so it always wins when the balance covers the expense. Ineligible
// expenses just go on the card for the rewards.
func (s *PaymentService) Recommend(ctx context.Context, req *domain.PaymentRecommendationRequest) (*domain.PaymentRecommendation, error) {
	_, span := paymentTracer.Start(ctx, "PaymentService.Recommend")
	defer span.End()

	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}

	taxRate := req.MarginalTaxRate
	if taxRate == 0 {
		taxRate = defaultMarginalTaxRate
	}
	if taxRate < 0 || taxRate >= 1 {
		return nil, &domain.ErrValidation{Field: "marginal_tax_rate", Message: "must be in [0, 1)"}
	}

	rewardsRate := req.CardRewardsRate
	if rewardsRate == 0 {
		rewardsRate = defaultCardRewardsRate
	}
	if rewardsRate < 0 || rewardsRate >= 1 {
		return nil, &domain.ErrValidation{Field: "card_rewards_rate", Message: "must be in [0, 1)"}
	}

	eligible := recon.IsMedicalVendor(req.Vendor)
	taxSavings := req.Amount * taxRate
	cardRewards := req.Amount * rewardsRate

	rec := &domain.PaymentRecommendation{
		TaxSavings:  taxSavings,
		CardRewards: cardRewards,
		HSAEligible: eligible,
	}

	switch {
	case !eligible:
		rec.Method = domain.PayOutOfPocket
		rec.TaxSavings = 0
		rec.NetBenefit = cardRewards
		rec.Explanation = fmt.Sprintf(
			"this expense does not look HSA-eligible; a %.1f%% rewards card earns $%.2f",
			rewardsRate*100, cardRewards)

	case req.HSABalance >= req.Amount:
		rec.Method = domain.PayCardThenReimburse
		rec.NetBenefit = taxSavings + cardRewards
		rec.Explanation = fmt.Sprintf(
			"pay by card for $%.2f in rewards, then reimburse from your HSA to keep the $%.2f tax saving",
			cardRewards, taxSavings)

	default:
		// Balance can't cover the bill; use the HSA card for whatever
		// pre-tax dollars are available.
		rec.Method = domain.PayWithHSACard
		rec.NetBenefit = taxSavings
		rec.Explanation = fmt.Sprintf(
			"paying with pre-tax HSA dollars saves $%.2f at a %.0f%% marginal rate",
			taxSavings, taxRate*100)
	}

	s.logger.Debug("payment recommendation",
		zap.String("method", string(rec.Method)),
		zap.Float64("net_benefit", rec.NetBenefit),
	)

	return rec, nil
}
