package recon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMedicalVendor(t *testing.T) {
	tests := []struct {
		name   string
		vendor string
		want   bool
	}{
		{"empty string", "", false},
		{"pharmacy chain with store number", "CVS PHARMACY #1234", true},
		{"lowercase pharmacy chain", "walgreens #552", true},
		{"hospital system", "Kaiser Permanente", true},
		{"diagnostic lab", "LABCORP OF AMERICA", true},
		{"generic clinic token", "Downtown Eye Clinic", true},
		{"doctor prefix", "DR SMITH FAMILY PRACTICE", true},
		{"telehealth brand", "Teladoc Health Inc", true},
		{"coffee shop", "Starbucks", false},
		{"grocery store", "TRADER JOE'S #210", false},
		{"airline", "UNITED AIRLINES", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMedicalVendor(tt.vendor))
		})
	}
}

func TestIsMedicalCategory(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want bool
	}{
		{"nil tags", nil, false},
		{"empty tags", []string{}, false},
		{"healthcare services", []string{"Healthcare Services"}, true},
		{"pharmacy tag", []string{"Shops", "Pharmacies"}, true},
		{"dentist lowercase", []string{"dentists and orthodontists"}, true},
		{"veterinary", []string{"Veterinary Services"}, true},
		{"unrelated tags", []string{"Restaurants", "Coffee Shops"}, false},
		{"empty tag values", []string{"", ""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMedicalCategory(tt.tags))
		})
	}
}

func TestClassifierIsDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.True(t, IsMedicalVendor("CVS PHARMACY #1234"))
		assert.False(t, IsMedicalVendor("Starbucks"))
	}
}
