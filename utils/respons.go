package utils

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

// RespondError maps err to its HTTP status. Anything that is not an
// *AppError, or is an Internal one, is logged and reported generically.
func RespondError(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = Internal(err)
	}

	if appErr.Kind == KindInternal {
		ErrorLogger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Errorf("%+v", appErr.Err)
	}

	var data interface{}
	if appErr.RetryAfter > 0 {
		secs := appErr.RetryAfterSeconds()
		c.Header("Retry-After", strconv.Itoa(secs))
		data = gin.H{"retry_after": secs}
	}

	c.JSON(appErr.Kind.HTTPStatus(), JSONResponse{
		Status:  false,
		Message: appErr.Message,
		Data:    data,
	})
}

// RespondBindError reports a request body or parameter that failed to bind.
func RespondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, JSONResponse{
		Status:  false,
		Message: err.Error(),
	})
}
