package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"sbs/src/models"
	"sbs/src/types"
)

func TestPriceSelectionRejectsEmptySelection(t *testing.T) {
	_, err := PriceSelection(nil, nil, nil)
	assert.NotNil(t, err)
	var validationErr *types.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestEvenSetSplitSumsBackToSetPrice(t *testing.T) {
	// a 1500 set across two members splits to 750 each without rounding loss
	setPrice := decimal.NewFromInt(1500)
	members := decimal.NewFromInt(2)
	share := setPrice.Div(members)
	assert.True(t, share.Equal(decimal.NewFromInt(750)))
	assert.True(t, share.Add(share).Equal(setPrice))

	// three-way splits keep full precision per unit and still sum back
	three := decimal.NewFromInt(3)
	third := setPrice.Div(three)
	assert.True(t, third.Add(third).Add(third).Equal(setPrice))
}

func TestComputeDiscountPercentage(t *testing.T) {
	result := &PricingResult{
		Units: []PricedUnit{
			{ServiceID: 1, PriceAtBooking: decimal.NewFromInt(1000), CommissionBase: decimal.NewFromInt(1000)},
			{ServiceID: 2, PriceAtBooking: decimal.NewFromInt(1000), CommissionBase: decimal.NewFromInt(1000)},
		},
		GrandTotal: decimal.NewFromInt(2000),
	}
	discount := &models.Discount{
		Type:  types.DISCOUNT_PERCENTAGE,
		Value: decimal.NewFromInt(10),
	}

	amount := ComputeDiscount(discount, result)
	assert.True(t, amount.Equal(decimal.NewFromInt(200)), "got %s", amount)
}

func TestComputeDiscountScopedToServices(t *testing.T) {
	result := &PricingResult{
		Units: []PricedUnit{
			{ServiceID: 1, PriceAtBooking: decimal.NewFromInt(1000)},
			{ServiceID: 2, PriceAtBooking: decimal.NewFromInt(500)},
		},
		GrandTotal: decimal.NewFromInt(1500),
	}
	discount := &models.Discount{
		Type:     types.DISCOUNT_PERCENTAGE,
		Value:    decimal.NewFromInt(20),
		Services: []*models.Service{{ID: 2}},
	}

	// only the in-scope 500 line counts toward the 20%
	amount := ComputeDiscount(discount, result)
	assert.True(t, amount.Equal(decimal.NewFromInt(100)), "got %s", amount)
}

func TestComputeDiscountAbsoluteClampsToTotal(t *testing.T) {
	result := &PricingResult{
		Units:      []PricedUnit{{ServiceID: 1, PriceAtBooking: decimal.NewFromInt(300)}},
		GrandTotal: decimal.NewFromInt(300),
	}
	discount := &models.Discount{
		Type:  types.DISCOUNT_ABSOLUTE,
		Value: decimal.NewFromInt(500),
	}

	amount := ComputeDiscount(discount, result)
	assert.True(t, amount.Equal(decimal.NewFromInt(300)), "got %s", amount)
}

func TestComputeDiscountNil(t *testing.T) {
	result := &PricingResult{GrandTotal: decimal.NewFromInt(100)}
	assert.True(t, ComputeDiscount(nil, result).IsZero())
}
