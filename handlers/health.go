package handlers

import (
	"github.com/Ca23187/easypan/utils"

	"github.com/gin-gonic/gin"
)

func HealthCheck(c *gin.Context) {
	utils.Success(c, gin.H{"status": "ok"})
}
