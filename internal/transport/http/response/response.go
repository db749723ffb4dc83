package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-realtime-crud/internal/domain"
)

// Envelope 成功响应；data 始终输出（删除时为 null）
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func OK(data any, msg string) Envelope {
	return Envelope{Success: true, Data: data, Message: msg}
}

func Fail(msg string) ErrorBody {
	return ErrorBody{Success: false, Error: msg}
}

// FromError 错误 -> (状态码, 响应体)；known=false 表示未识别的内部错误，调用方负责记日志
func FromError(err error) (status int, body ErrorBody, known bool) {
	if de, ok := domain.As(err); ok {
		return de.StatusCode(), Fail(de.Msg), true
	}
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge, Fail(MsgBodyTooLarge), true
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, Fail(MsgTimeout), true
	}
	return http.StatusInternalServerError, Fail(MsgInternal), false
}

func JSON(c *gin.Context, status int, data any, msg string) {
	c.JSON(status, OK(data, msg))
}

func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Fail(msg))
}
