package utils

import "github.com/gin-gonic/gin"

// SuccessResponse is the envelope every handler answers with on success.
func SuccessResponse(message string, data any) gin.H {
	resp := gin.H{
		"success": true,
		"message": message,
	}
	if data != nil {
		resp["data"] = data
	}
	return resp
}

func ErrorResponse(message string) gin.H {
	return gin.H{
		"success": false,
		"message": message,
	}
}
