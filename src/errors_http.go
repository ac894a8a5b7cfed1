package main

import (
	"errors"
	"log"
	"net/http"
	"sbs/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// abortWithDomainError translates a core error into an HTTP response so
// handlers stay thin. Unknown errors fall through as 422 with the message.
func abortWithDomainError(ctx *gin.Context, err error) {
	var (
		validationErr *types.ValidationError
		notFoundErr   *types.NotFoundError
		inactiveErr   *types.InactiveEntityError
		voucherErr    *types.InvalidVoucherError
		expiredErr    *types.ExpiredError
		conflictErr   *types.ConflictError
		storageErr    *types.PersistenceError
	)
	switch {
	case errors.As(err, &validationErr):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &notFoundErr):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &conflictErr):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &inactiveErr), errors.As(err, &voucherErr), errors.As(err, &expiredErr):
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &storageErr):
		log.Printf("storage error: %s\n", err.Error())
		ctx.Status(http.StatusInternalServerError)
	case errors.Is(err, gorm.ErrRecordNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	}
}
