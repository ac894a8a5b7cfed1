package utils

import (
	"sbs/src/models"
	"sbs/src/types"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PricedUnit is one service instance to be, with its frozen price and
// commission base.
type PricedUnit struct {
	ServiceID      uint
	ServiceSetID   *uint
	PriceAtBooking decimal.Decimal
	CommissionBase decimal.Decimal
	SequenceOrder  uint
}

type PricingResult struct {
	Units      []PricedUnit
	GrandTotal decimal.Decimal
	Duration   uint
}

// PriceSelection resolves every referenced service and set and computes the
// line totals, total duration and per-unit commission bases. Set members
// without an adjusted price share the set price divided evenly across the
// member count; the division stays a decimal value and is never rounded per
// item, so the bases of all members sum back to the set price.
func PriceSelection(tx *gorm.DB, services []types.SelectionItem, serviceSets []types.SelectionItem) (*PricingResult, error) {
	if len(services) == 0 && len(serviceSets) == 0 {
		return nil, &types.ValidationError{Field: "services", Reason: "at least one service or service set is required"}
	}

	result := PricingResult{
		Units:      []PricedUnit{},
		GrandTotal: decimal.Zero,
	}
	seq := uint(0)

	for _, item := range services {
		var service models.Service
		err := tx.Where(&models.Service{ID: item.ID}).First(&service).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, &types.NotFoundError{Entity: "service", ID: item.ID}
			}
			return nil, &types.PersistenceError{Op: "pricing", Err: err}
		}
		if !service.Active {
			return nil, &types.InactiveEntityError{Entity: "service", ID: service.ID}
		}
		qty := decimal.NewFromInt(int64(item.Qty))
		result.GrandTotal = result.GrandTotal.Add(service.Price.Mul(qty))
		result.Duration += service.Duration * item.Qty
		for range item.Qty {
			seq++
			result.Units = append(result.Units, PricedUnit{
				ServiceID:      service.ID,
				PriceAtBooking: service.Price,
				CommissionBase: service.Price,
				SequenceOrder:  seq,
			})
		}
	}

	for _, item := range serviceSets {
		var set models.ServiceSet
		err := tx.Where(&models.ServiceSet{ID: item.ID}).Preload("Items.Service").First(&set).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, &types.NotFoundError{Entity: "service set", ID: item.ID}
			}
			return nil, &types.PersistenceError{Op: "pricing", Err: err}
		}
		if !set.Active {
			return nil, &types.InactiveEntityError{Entity: "service set", ID: set.ID}
		}
		if len(set.Items) == 0 {
			return nil, &types.ValidationError{Field: "service_sets", Reason: "set has no member services"}
		}
		memberCount := decimal.NewFromInt(int64(len(set.Items)))
		evenShare := set.Price.Div(memberCount)
		qty := decimal.NewFromInt(int64(item.Qty))
		result.GrandTotal = result.GrandTotal.Add(set.Price.Mul(qty))
		for range item.Qty {
			for _, member := range set.Items {
				if member.Service == nil {
					return nil, &types.NotFoundError{Entity: "service", ID: member.ServiceID}
				}
				if !member.Service.Active {
					return nil, &types.InactiveEntityError{Entity: "service", ID: member.ServiceID}
				}
				base := evenShare
				if member.AdjustedPrice != nil {
					base = *member.AdjustedPrice
				}
				seq++
				setId := set.ID
				result.Units = append(result.Units, PricedUnit{
					ServiceID:      member.ServiceID,
					ServiceSetID:   &setId,
					PriceAtBooking: base,
					CommissionBase: base,
					SequenceOrder:  seq,
				})
				result.Duration += member.Service.Duration
			}
		}
	}

	return &result, nil
}
