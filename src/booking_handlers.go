package main

import (
	"log"
	"net/http"
	"sbs/src/common"
	"sbs/src/config"
	"sbs/src/db"
	"sbs/src/models"
	"sbs/src/types"
	"sbs/src/utils"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func bookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/bookings", func(ctx *gin.Context) {
			var body types.CreateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			booking, err := utils.CreateBooking(&body)
			if err != nil {
				log.Printf("[CreateBooking] error: %s\n", err.Error())
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": booking})
		}).
		GET("/bookings", func(ctx *gin.Context) {
			db := db.GetDb()
			var bookings []models.Booking
			err := db.Transaction(func(tx *gorm.DB) error {
				err := tx.
					Model(&models.Booking{}).
					Preload("Customer").
					Order("appointment_at desc").
					Limit(100).
					Find(&bookings).
					Error
				if err != nil {
					return err
				}
				return nil
			})
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			booking, err := utils.GetBooking(params.ID)
			if err != nil {
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		GET("/bookings/day/:date", func(ctx *gin.Context) {
			var params struct {
				Date string `uri:"date" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			if _, err := time.Parse(config.DAY_FORMAT, params.Date); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
				return
			}
			bookings, err := common.CachedDayView(params.Date)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"date": params.Date, "bookings": bookings, "count": len(bookings)})
		}).
		PUT("/bookings/:id/status", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body struct {
				Status string `json:"status" binding:"required,oneof=pending confirmed in_progress completed paid no_show cancelled"`
				From   string `json:"from" binding:"required,oneof=pending confirmed in_progress completed paid no_show"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			err := utils.UpdateBookingStatus(params.ID, types.BookingStatus(body.Status), types.BookingStatus(body.From))
			if err != nil {
				log.Printf("[UpdateBookingStatus] error: %s\n", err.Error())
				abortWithDomainError(ctx, err)
				return
			}
			ctx.Status(http.StatusOK)
		}).
		PUT("/bookings/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := utils.CancelBooking(params.ID); err != nil {
				log.Printf("[CancelBooking] error: %s\n", err.Error())
				abortWithDomainError(ctx, err)
				return
			}
			ctx.Status(http.StatusOK)
		})
	return g
}
