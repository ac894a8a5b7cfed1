package middlewares

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"sbs/src/db"
	"sbs/src/models"
	"sbs/src/types"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

// AuthMiddleware resolves the acting principal from the bearer token and
// loads the matching employee row. Claim/serve attribution uses the id set
// here.
func AuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer") {
		ctx.AbortWithStatus(401)
		return
	}
	reqToken := strings.Split(bearerToken, " ")[1]
	if reqToken == "" {
		ctx.AbortWithStatus(401)
		return
	}
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return jwtKey, nil
	})
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		if err == jwt.ErrSignatureInvalid || err == jwt.ErrTokenMalformed {
			ctx.AbortWithStatus(401)
			return
		}
		ctx.AbortWithError(401, err)
		return
	}
	if !tkn.Valid {
		ctx.AbortWithStatus(401)
		return
	}

	db := db.GetDb()
	var employee models.Employee
	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		log.Println("error parsing claims:", err.Error())
		ctx.AbortWithStatus(401)
		return
	}
	db.Model(&models.Employee{}).Where(&models.Employee{ID: uint(id)}).Find(&employee)

	if uint(id) != employee.ID || employee.ID < 1 || !employee.Active {
		ctx.AbortWithStatus(401)
		return
	}
	ctx.Set("email", employee.Email)
	ctx.Set("id", employee.ID)
	ctx.Set("uid", employee.UID)
	ctx.Set("role", employee.Role)
	ctx.Set("branch", employee.Branch)
}
