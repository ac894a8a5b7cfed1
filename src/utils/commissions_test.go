package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"sbs/src/models"
	"sbs/src/types"
)

func servedAt(t time.Time) *time.Time {
	return &t
}

func TestCommissionEligible(t *testing.T) {
	now := time.Now()
	debounce := 60 * time.Second

	t.Run("no instances is never eligible", func(t *testing.T) {
		eligible, at := CommissionEligible(nil, now, debounce)
		assert.False(t, eligible)
		assert.True(t, at.IsZero())
	})

	t.Run("an unserved unit blocks the whole booking", func(t *testing.T) {
		instances := []models.ServiceInstance{
			{Status: types.INSTANCE_SERVED, ServedAt: servedAt(now.Add(-5 * time.Minute))},
			{Status: types.INSTANCE_CLAIMED},
		}
		eligible, at := CommissionEligible(instances, now, debounce)
		assert.False(t, eligible)
		assert.True(t, at.IsZero())
	})

	t.Run("a fresh serve waits out the debounce window", func(t *testing.T) {
		latest := now.Add(-10 * time.Second)
		instances := []models.ServiceInstance{
			{Status: types.INSTANCE_SERVED, ServedAt: servedAt(now.Add(-5 * time.Minute))},
			{Status: types.INSTANCE_SERVED, ServedAt: servedAt(latest)},
		}
		eligible, at := CommissionEligible(instances, now, debounce)
		assert.False(t, eligible)
		assert.Equal(t, latest.Add(debounce), at)
	})

	t.Run("settled serves are eligible", func(t *testing.T) {
		instances := []models.ServiceInstance{
			{Status: types.INSTANCE_SERVED, ServedAt: servedAt(now.Add(-5 * time.Minute))},
			{Status: types.INSTANCE_SERVED, ServedAt: servedAt(now.Add(-2 * time.Minute))},
		}
		eligible, at := CommissionEligible(instances, now, debounce)
		assert.True(t, eligible)
		assert.True(t, at.Before(now))
	})

	t.Run("re-serving a unit resets the window", func(t *testing.T) {
		instances := []models.ServiceInstance{
			{Status: types.INSTANCE_SERVED, ServedAt: servedAt(now.Add(-2 * time.Minute))},
		}
		eligible, _ := CommissionEligible(instances, now, debounce)
		assert.True(t, eligible)

		instances[0].ServedAt = servedAt(now.Add(-time.Second))
		eligible, at := CommissionEligible(instances, now, debounce)
		assert.False(t, eligible)
		assert.True(t, at.After(now))
	})
}

func TestCommissionAmount(t *testing.T) {
	base := decimal.NewFromInt(750)
	rate := decimal.NewFromFloat(0.10)
	assert.True(t, CommissionAmount(base, rate).Equal(decimal.NewFromInt(75)))

	// rounding happens at the ledger row, not before
	third := decimal.NewFromInt(1000).Div(decimal.NewFromInt(3))
	amount := CommissionAmount(third, decimal.NewFromFloat(0.15))
	assert.Equal(t, "50", amount.String())
}
