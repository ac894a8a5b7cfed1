package main

import (
	"log"
	"net/http"
	"sbs/src/db"
	"sbs/src/types"
	"sbs/src/utils"

	"github.com/gin-gonic/gin"
)

func voucherHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/vouchers", func(ctx *gin.Context) {
			var body types.CreateVoucherRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			voucher, err := utils.CreateNewVoucher(&body)
			if err != nil {
				log.Printf("[CreateVoucher] error: %s\n", err.Error())
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": voucher})
		}).
		GET("/vouchers/:code", func(ctx *gin.Context) {
			var params struct {
				Code string `uri:"code" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			voucher, err := utils.ValidateVoucher(db, params.Code)
			if err != nil {
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": voucher})
		})
	return g
}

func discountHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/discounts", func(ctx *gin.Context) {
			var body types.CreateDiscountRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			discount, err := utils.CreateNewDiscount(&body)
			if err != nil {
				log.Printf("[CreateDiscount] error: %s\n", err.Error())
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": discount})
		}).
		GET("/discounts/active", func(ctx *gin.Context) {
			var query struct {
				Branch string `form:"branch"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			discount, err := utils.ActiveDiscount(db, query.Branch)
			if err != nil {
				abortWithDomainError(ctx, err)
				return
			}
			if discount == nil {
				ctx.Status(http.StatusNoContent)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": discount})
		}).
		PUT("/discounts/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := utils.CancelDiscount(params.ID); err != nil {
				log.Printf("[CancelDiscount] error: %s\n", err.Error())
				abortWithDomainError(ctx, err)
				return
			}
			ctx.Status(http.StatusOK)
		})
	return g
}
