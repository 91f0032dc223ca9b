package service_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/careledger/careledger-go/internal/service"

	"go.uber.org/zap"
)

func TestRecommend_CardThenReimburseWinsWhenBalanceCovers(t *testing.T) {
	svc := service.NewPaymentService(zap.NewNop())

	rec, err := svc.Recommend(context.Background(), &domain.PaymentRecommendationRequest{
		Amount:     500,
		Vendor:     "Aspen Dental",
		HSABalance: 2000,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Method != domain.PayCardThenReimburse {
		t.Errorf("expected card_then_reimburse, got %s", rec.Method)
	}
	if !rec.HSAEligible {
		t.Error("expected dental vendor to be HSA-eligible")
	}
	// Defaults: 24% tax, 2% rewards.
	if math.Abs(rec.NetBenefit-(500*0.24+500*0.02)) > 1e-9 {
		t.Errorf("expected net benefit of tax savings plus rewards, got %f", rec.NetBenefit)
	}
}

func TestRecommend_HSACardWhenBalanceShort(t *testing.T) {
	svc := service.NewPaymentService(zap.NewNop())

	rec, err := svc.Recommend(context.Background(), &domain.PaymentRecommendationRequest{
		Amount:     500,
		Vendor:     "Quest Diagnostics",
		HSABalance: 100,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Method != domain.PayWithHSACard {
		t.Errorf("expected hsa_card, got %s", rec.Method)
	}
	if math.Abs(rec.NetBenefit-500*0.24) > 1e-9 {
		t.Errorf("expected net benefit of tax savings only, got %f", rec.NetBenefit)
	}
}

func TestRecommend_OutOfPocketWhenIneligible(t *testing.T) {
	svc := service.NewPaymentService(zap.NewNop())

	rec, err := svc.Recommend(context.Background(), &domain.PaymentRecommendationRequest{
		Amount:     80,
		Vendor:     "Whole Foods Market",
		HSABalance: 5000,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Method != domain.PayOutOfPocket {
		t.Errorf("expected out_of_pocket, got %s", rec.Method)
	}
	if rec.HSAEligible {
		t.Error("expected grocery vendor to be ineligible")
	}
	if rec.TaxSavings != 0 {
		t.Errorf("expected zero tax savings for ineligible expense, got %f", rec.TaxSavings)
	}
}

func TestRecommend_CustomRates(t *testing.T) {
	svc := service.NewPaymentService(zap.NewNop())

	rec, err := svc.Recommend(context.Background(), &domain.PaymentRecommendationRequest{
		Amount:          1000,
		Vendor:          "Kaiser Permanente",
		MarginalTaxRate: 0.32,
		CardRewardsRate: 0.05,
		HSABalance:      1000,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if math.Abs(rec.TaxSavings-320) > 1e-9 {
		t.Errorf("expected 320 tax savings, got %f", rec.TaxSavings)
	}
	if math.Abs(rec.CardRewards-50) > 1e-9 {
		t.Errorf("expected 50 rewards, got %f", rec.CardRewards)
	}
}

func TestRecommend_Validation(t *testing.T) {
	svc := service.NewPaymentService(zap.NewNop())

	tests := []struct {
		name string
		req  domain.PaymentRecommendationRequest
	}{
		{"zero amount", domain.PaymentRecommendationRequest{Amount: 0}},
		{"negative amount", domain.PaymentRecommendationRequest{Amount: -10}},
		{"tax rate out of range", domain.PaymentRecommendationRequest{Amount: 10, MarginalTaxRate: 1.5}},
		{"negative rewards rate", domain.PaymentRecommendationRequest{Amount: 10, CardRewardsRate: -0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Recommend(context.Background(), &tt.req)
			var vErr *domain.ErrValidation
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
