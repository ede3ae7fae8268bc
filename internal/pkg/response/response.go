package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type errBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func Error(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{"error": errBody{Code: code, Message: message}})
}
