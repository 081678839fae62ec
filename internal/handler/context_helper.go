package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sigmadocs/ged-api/internal/middleware"
	"github.com/sigmadocs/ged-api/internal/models"
)

func principalFromContext(c *gin.Context) *models.Principal {
	return middleware.CurrentPrincipal(c)
}
