package main

import (
	"log"
	"net/http"
	"sbs/src/db"
	"sbs/src/models"
	"sbs/src/types"
	"sbs/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func catalogHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/services", func(ctx *gin.Context) {
			var body types.CreateServiceRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			service, err := utils.CreateNewService(&body)
			if err != nil {
				log.Printf("[CreateService] error: %s\n", err.Error())
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": service})
		}).
		GET("/services", func(ctx *gin.Context) {
			db := db.GetDb()
			var services []models.Service
			err := db.
				Model(&models.Service{}).
				Where("active = ?", true).
				Preload("Steps").
				Order("name asc").
				Find(&services).
				Error
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": services, "count": len(services)})
		}).
		GET("/services/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			var service models.Service
			ss := db.Session(&gorm.Session{PrepareStmt: true})
			if err := ss.
				Model(&models.Service{}).
				Where(&models.Service{ID: params.ID}).
				Preload("Steps").
				First(&service).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": service})
		}).
		POST("/service-sets", func(ctx *gin.Context) {
			var body types.CreateServiceSetRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			set, err := utils.CreateNewServiceSet(&body)
			if err != nil {
				log.Printf("[CreateServiceSet] error: %s\n", err.Error())
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": set})
		}).
		GET("/service-sets", func(ctx *gin.Context) {
			db := db.GetDb()
			var sets []models.ServiceSet
			err := db.
				Model(&models.ServiceSet{}).
				Where("active = ?", true).
				Preload("Items.Service").
				Order("name asc").
				Find(&sets).
				Error
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": sets, "count": len(sets)})
		}).
		POST("/customers", func(ctx *gin.Context) {
			var body types.CreateCustomerRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			customer, err := utils.CreateNewCustomer(&body)
			if err != nil {
				log.Printf("[CreateCustomer] error: %s\n", err.Error())
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": customer})
		}).
		GET("/customers/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			var customer models.Customer
			if err := db.
				Model(&models.Customer{}).
				Where(&models.Customer{ID: params.ID}).
				First(&customer).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": customer})
		})
	return g
}
