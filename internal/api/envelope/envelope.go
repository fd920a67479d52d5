// Package envelope writes the uniform {success, message, data} response body.
package envelope

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cmsadmin/internal/errcode"
)

// Body is the wire shape of every API response. Error is the failure kind and
// is only set when Success is false.
type Body struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
}

func OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Body{Success: true, Message: message, Data: data})
}

func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Body{Success: true, Message: message, Data: data})
}

// Fail writes err with the status of its kind and a client-safe message.
func Fail(c *gin.Context, err error) {
	kind := errcode.KindOf(err)
	c.JSON(kind.HTTPStatus(), failure(kind, err))
}

// Abort is Fail for middleware: the remaining handlers do not run.
func Abort(c *gin.Context, err error) {
	kind := errcode.KindOf(err)
	c.AbortWithStatusJSON(kind.HTTPStatus(), failure(kind, err))
}

func failure(kind errcode.Kind, err error) Body {
	return Body{
		Success: false,
		Message: errcode.PublicMessage(err),
		Data:    nil,
		Error:   kind.String(),
	}
}
