package utils

import (
	"errors"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sbs/src/db"
	"sbs/src/models"
	"sbs/src/types"
)

func CreateNewService(params *types.CreateServiceRequestBody) (*models.Service, error) {
	price, err := decimal.NewFromString(params.Price)
	if err != nil || price.IsNegative() {
		return nil, &types.ValidationError{Field: "price", Reason: "must be a non-negative amount"}
	}
	service := models.Service{
		Name:     params.Name,
		Slug:     slug.Make(params.Name),
		Price:    price,
		Duration: params.Duration,
		Active:   true,
	}
	if params.Category != "" {
		service.Category = params.Category
	}
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&service).Error; err != nil {
			return err
		}
		for i, step := range params.Steps {
			var stepService models.Service
			if err := tx.Where(&models.Service{ID: step.ServiceID}).First(&stepService).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return &types.NotFoundError{Entity: "service", ID: step.ServiceID}
				}
				return err
			}
			row := models.ServiceAppointmentStep{
				ServiceID:     service.ID,
				StepOrder:     uint(i + 1),
				StepServiceID: step.ServiceID,
				DaysUntilNext: step.DaysUntilNext,
			}
			if step.Label != "" {
				label := step.Label
				row.Label = &label
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var notFound *types.NotFoundError
		if errors.As(err, &notFound) {
			return nil, err
		}
		return nil, &types.PersistenceError{Op: "service create", Err: err}
	}
	return &service, nil
}

func CreateNewServiceSet(params *types.CreateServiceSetRequestBody) (*models.ServiceSet, error) {
	price, err := decimal.NewFromString(params.Price)
	if err != nil || price.IsNegative() {
		return nil, &types.ValidationError{Field: "price", Reason: "must be a non-negative amount"}
	}
	set := models.ServiceSet{
		Name:   params.Name,
		Slug:   slug.Make(params.Name),
		Price:  price,
		Active: true,
	}
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&set).Error; err != nil {
			return err
		}
		for _, item := range params.Items {
			var service models.Service
			if err := tx.Where(&models.Service{ID: item.ServiceID}).First(&service).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return &types.NotFoundError{Entity: "service", ID: item.ServiceID}
				}
				return err
			}
			if !service.Active {
				return &types.InactiveEntityError{Entity: "service", ID: item.ServiceID}
			}
			row := models.ServiceSetItem{
				ServiceSetID: set.ID,
				ServiceID:    item.ServiceID,
			}
			if item.AdjustedPrice != nil {
				adjusted, err := decimal.NewFromString(*item.AdjustedPrice)
				if err != nil || adjusted.IsNegative() {
					return &types.ValidationError{Field: "adjusted_price", Reason: "must be a non-negative amount"}
				}
				row.AdjustedPrice = &adjusted
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var notFound *types.NotFoundError
		var inactive *types.InactiveEntityError
		var invalid *types.ValidationError
		if errors.As(err, &notFound) || errors.As(err, &inactive) || errors.As(err, &invalid) {
			return nil, err
		}
		return nil, &types.PersistenceError{Op: "service set create", Err: err}
	}
	return &set, nil
}

func CreateNewCustomer(params *types.CreateCustomerRequestBody) (*models.Customer, error) {
	customer := models.Customer{
		Name:  CapitalizeWords(params.Name),
		Email: params.Email,
		Phone: params.Phone,
	}
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&customer).Error
	})
	if err != nil {
		return nil, &types.PersistenceError{Op: "customer create", Err: err}
	}
	return &customer, nil
}
