package controllers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"civicsync-workflow/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// respondError maps domain errors to HTTP responses. Unknown errors are
// logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	var transition *models.TransitionError
	switch {
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{
			"error":  err.Error(),
			"code":   "invalid_transition",
			"status": transition.From,
		})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "conflict"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrValidation):
		body := gin.H{"error": err.Error()}
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			body["field"] = ve.Field
		}
		c.JSON(http.StatusBadRequest, body)
	default:
		slog.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}

func pathObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return primitive.NilObjectID, false
	}
	return id, true
}

// optionalObjectID parses a hex id that binding already checked. Empty
// input yields nil.
func optionalObjectID(hex string) *primitive.ObjectID {
	if hex == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil
	}
	return &id
}

// bindOptionalJSON binds a request body whose fields are all optional; an
// empty body is accepted as-is.
func bindOptionalJSON(c *gin.Context, obj any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		// Chunked requests report ContentLength -1 even when empty.
		if errors.Is(err, io.EOF) {
			return true
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}
