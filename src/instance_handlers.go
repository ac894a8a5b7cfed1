package main

import (
	"log"
	"net/http"
	"sbs/src/types"
	"sbs/src/utils"

	"github.com/gin-gonic/gin"
)

var overrideRoles = map[string]bool{
	"manager": true,
	"admin":   true,
}

func instanceHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/instances/:id/claim", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			actorId := ctx.GetUint("id")
			instance, err := utils.ClaimInstance(params.ID, actorId)
			if err != nil {
				log.Printf("[ClaimInstance] error: %s\n", err.Error())
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": instance})
		}).
		POST("/instances/:id/serve", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			actorId := ctx.GetUint("id")
			override := overrideRoles[ctx.GetString("role")]
			instance, err := utils.ServeInstance(params.ID, actorId, override)
			if err != nil {
				log.Printf("[ServeInstance] error: %s\n", err.Error())
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": instance})
		}).
		POST("/instances/:id/unclaim", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			actorId := ctx.GetUint("id")
			override := overrideRoles[ctx.GetString("role")]
			instance, err := utils.UnclaimInstance(params.ID, actorId, override)
			if err != nil {
				log.Printf("[UnclaimInstance] error: %s\n", err.Error())
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": instance})
		}).
		POST("/instances/:id/unserve", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			actorId := ctx.GetUint("id")
			override := overrideRoles[ctx.GetString("role")]
			instance, err := utils.UnserveInstance(params.ID, actorId, override)
			if err != nil {
				log.Printf("[UnserveInstance] error: %s\n", err.Error())
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": instance})
		})
	return g
}
