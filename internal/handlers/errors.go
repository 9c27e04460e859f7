package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voyago/travel-booking/internal/apperr"
	"github.com/voyago/travel-booking/internal/services"
)

func respondError(c *gin.Context, err error) {
	if tbe, ok := services.IsTripBookingError(err); ok {
		c.JSON(apperr.HTTPStatus(err), gin.H{
			"error":               tbe.Error(),
			"saga_id":             tbe.SagaID,
			"failed_items":        tbe.FailedItems(),
			"compensation_failed": tbe.CompensationFailedItems(),
		})
		return
	}
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
