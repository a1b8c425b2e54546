package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/freshroots/harvest-backend/internal/adapters/repository"
	"github.com/freshroots/harvest-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate = validator.New()

const requestTimeout = 10 * time.Second

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// objectIDParam parses the :id route parameter and answers 400 when it is
// not a valid ObjectID.
func objectIDParam(c *gin.Context, what string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid "+what+" ID"))
		return primitive.NilObjectID, false
	}
	return id, true
}

// repoError answers with the status that matches a repository error.
func repoError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, utils.ErrorResponse(what+" not found"))
	case errors.Is(err, repository.ErrTerminalOrder):
		c.JSON(http.StatusConflict, utils.ErrorResponse("Order is already delivered or cancelled"))
	default:
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to process "+what))
	}
}
