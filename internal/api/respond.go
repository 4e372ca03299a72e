package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope 是所有 JSON 响应的统一外壳。
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK 200 成功响应
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// OKMessage 带提示语的成功响应
func OKMessage(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created 201 创建成功
func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Fail 失败响应，只携带面向用户的提示语
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: false, Message: message})
}

// FailWithError 失败响应，额外附带底层错误文本
func FailWithError(c *gin.Context, status int, message string, err error) {
	envelope := Envelope{Success: false, Message: message}
	if err != nil {
		envelope.Error = err.Error()
	}
	c.JSON(status, envelope)
}

// AbortUnauthorized 中间件专用的 401 终止响应
func AbortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{Success: false, Message: message})
}
