package main

import (
	"log"
	"net/http"
	"sbs/src/types"
	"sbs/src/utils"

	"github.com/gin-gonic/gin"
)

func sessionHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/sessions", func(ctx *gin.Context) {
			var body types.FindOrCreateSessionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			session, err := utils.FindOrCreateSession(body.CustomerID, body.ServiceID)
			if err != nil {
				log.Printf("[FindOrCreateSession] error: %s\n", err.Error())
				abortWithDomainError(ctx, err)
				return
			}
			if session == nil {
				// service has no step template, nothing to track
				ctx.Status(http.StatusNoContent)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": session})
		}).
		POST("/sessions/:id/link", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.LinkSessionBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			link, err := utils.LinkBookingToSession(params.ID, body.BookingID, body.StepOrder)
			if err != nil {
				log.Printf("[LinkBookingToSession] error: %s\n", err.Error())
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": link})
		}).
		POST("/sessions/:id/attended", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.MarkAttendedRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			step, completed, err := utils.MarkAttended(params.ID, body.BookingID)
			if err != nil {
				log.Printf("[MarkAttended] error: %s\n", err.Error())
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"current_step": step, "completed": completed})
		}).
		GET("/sessions/:id/next-date", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			next, err := utils.NextRecommendedDate(params.ID)
			if err != nil {
				abortWithDomainError(ctx, err)
				return
			}
			if next == nil {
				ctx.Status(http.StatusNoContent)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"next_date": next})
		})
	return g
}
