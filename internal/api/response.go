package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response defines the standard JSON structure.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    any    `json:"data"`
}

// Success returns a success response with data.
func Success(c *gin.Context, data any) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(http.StatusOK, Response{
		Code:    OK.Code,
		Message: OK.Message,
		Data:    data,
	})
}

// Error returns an error response with the status the error maps to.
func Error(c *gin.Context, err error) {
	status, code, msg := Decode(err)
	c.JSON(status, Response{
		Code:    code,
		Message: msg,
		Data:    gin.H{},
	})
}
