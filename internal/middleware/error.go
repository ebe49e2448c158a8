package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/logger"
)

// ErrorHandler turns errors attached with c.Error, and panics, into the JSON
// error body every handler uses. Only AppError codes and messages reach the
// client; anything else becomes INTERNAL_ERROR and is logged.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Get().Errorw("panic in handler",
					"panic", fmt.Sprint(rec),
					"request_id", c.GetString(requestIDKey),
					"path", c.Request.URL.Path,
				)
				if !c.Writer.Written() {
					abortWithError(c, apperrors.ErrInternalServer)
				}
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		appErr := toAppError(c, err)
		if c.Writer.Written() {
			// The handler already answered; keep the record only.
			return
		}
		c.JSON(statusOf(appErr), errorBody(appErr))
	}
}

// toAppError maps err to the AppError sent to the client and logs what the
// client will not see.
func toAppError(c *gin.Context, err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"request_id", c.GetString(requestIDKey),
				"path", c.Request.URL.Path,
			)
		}
		return appErr
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"request_id", c.GetString(requestIDKey),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)
	return apperrors.ErrInternalServer
}

func abortWithError(c *gin.Context, err error) {
	appErr := toAppError(c, err)
	c.AbortWithStatusJSON(statusOf(appErr), errorBody(appErr))
}

func statusOf(appErr *apperrors.AppError) int {
	if appErr.StatusCode == 0 {
		return http.StatusInternalServerError
	}
	return appErr.StatusCode
}

func errorBody(appErr *apperrors.AppError) gin.H {
	return gin.H{"error": gin.H{"code": appErr.Code, "message": appErr.Message}}
}
