package main

import (
	"log"
	"net/http"
	"sbs/src/config"
	"sbs/src/types"
	"sbs/src/utils"
	"time"

	"github.com/gin-gonic/gin"
)

func commissionHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/commissions", func(ctx *gin.Context) {
			employeeId := ctx.GetUint("id")
			commissions, err := utils.ListEmployeeCommissions(employeeId, 100)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": commissions, "count": len(commissions)})
		}).
		GET("/employees/:id/commissions", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			if !overrideRoles[ctx.GetString("role")] && ctx.GetUint("id") != params.ID {
				ctx.Status(http.StatusForbidden)
				return
			}
			commissions, err := utils.ListEmployeeCommissions(params.ID, 100)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": commissions, "count": len(commissions)})
		}).
		GET("/employees/:id/payroll", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var query struct {
				From string `form:"from" binding:"required"`
				To   string `form:"to" binding:"required"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			from, err := time.Parse(config.DAY_FORMAT, query.From)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
				return
			}
			to, err := time.Parse(config.DAY_FORMAT, query.To)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
				return
			}
			if !overrideRoles[ctx.GetString("role")] && ctx.GetUint("id") != params.ID {
				ctx.Status(http.StatusForbidden)
				return
			}
			summary, err := utils.PayrollSummary(params.ID, from, to)
			if err != nil {
				log.Printf("[PayrollSummary] error: %s\n", err.Error())
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": summary})
		}).
		GET("/sales/:date", func(ctx *gin.Context) {
			var params struct {
				Date string `uri:"date" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			day, err := time.Parse(config.DAY_FORMAT, params.Date)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
				return
			}
			if !overrideRoles[ctx.GetString("role")] {
				ctx.Status(http.StatusForbidden)
				return
			}
			summary, err := utils.SalesSummary(day)
			if err != nil {
				log.Printf("[SalesSummary] error: %s\n", err.Error())
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": summary})
		})
	return g
}
