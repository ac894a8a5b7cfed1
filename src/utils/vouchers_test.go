package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"sbs/src/types"
)

func TestClampDiscount(t *testing.T) {
	total := decimal.NewFromInt(2000)

	assert.True(t, ClampDiscount(decimal.NewFromInt(500), total).Equal(decimal.NewFromInt(500)))
	assert.True(t, ClampDiscount(decimal.NewFromInt(5000), total).Equal(total))
	assert.True(t, ClampDiscount(decimal.NewFromInt(-10), total).IsZero())
	assert.True(t, ClampDiscount(total, total).Equal(total))
}

func TestCreateNewVoucherRejectsBadValue(t *testing.T) {
	var validationErr *types.ValidationError

	_, err := CreateNewVoucher(&types.CreateVoucherRequestBody{Value: "abc"})
	assert.ErrorAs(t, err, &validationErr)

	_, err = CreateNewVoucher(&types.CreateVoucherRequestBody{Value: "-50"})
	assert.ErrorAs(t, err, &validationErr)

	_, err = CreateNewVoucher(&types.CreateVoucherRequestBody{Value: "0"})
	assert.ErrorAs(t, err, &validationErr)
}

func TestCreateNewDiscountRejectsBadValues(t *testing.T) {
	var validationErr *types.ValidationError

	_, err := CreateNewDiscount(&types.CreateDiscountRequestBody{
		Type:  types.DISCOUNT_PERCENTAGE,
		Value: "150",
	})
	assert.ErrorAs(t, err, &validationErr)

	_, err = CreateNewDiscount(&types.CreateDiscountRequestBody{
		Type:     types.DISCOUNT_ABSOLUTE,
		Value:    "100",
		StartsAt: "not a date",
	})
	assert.ErrorAs(t, err, &validationErr)
}
