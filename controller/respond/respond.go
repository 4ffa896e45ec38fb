package respond

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"bot-file-system/common"

	"github.com/gin-gonic/gin"
)

// Response unified response envelope
type Response struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message" example:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// Business codes, 0 means success
const (
	CodeSuccess            = 0
	CodeInvalidParam       = 40000
	CodeUnauthorized       = 40100
	CodeForbidden          = 40300
	CodeNotFound           = 40400
	CodeConflict           = 40900
	CodeChunksMissing      = 40901
	CodeGone               = 41000
	CodePayloadTooLarge    = 41300
	CodeServerError        = 50000
	CodeServiceUnavailable = 50300
	CodeQuotaExceeded      = 50700
)

func write(c *gin.Context, status, code int, message string, data interface{}) {
	c.JSON(status, Response{Code: code, Message: message, Data: data})
}

// Success 200 with data
func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, CodeSuccess, "success", data)
}

// SuccessWithCode success with a specific HTTP status, e.g. 201
func SuccessWithCode(c *gin.Context, status int, data interface{}) {
	write(c, status, CodeSuccess, "success", data)
}

func InvalidParam(c *gin.Context, message string) {
	write(c, http.StatusBadRequest, CodeInvalidParam, message, nil)
}

func Unauthorized(c *gin.Context, message string) {
	write(c, http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

func NotFound(c *gin.Context, message string) {
	write(c, http.StatusNotFound, CodeNotFound, message, nil)
}

func ServerError(c *gin.Context, message string) {
	write(c, http.StatusInternalServerError, CodeServerError, message, nil)
}

// Error map a service error to its HTTP status and business code
func Error(c *gin.Context, err error) {
	var missing *common.ChunksMissingError
	switch {
	case errors.As(err, &missing):
		write(c, http.StatusConflict, CodeChunksMissing, err.Error(), gin.H{
			"expected": missing.Expected,
			"actual":   missing.Actual,
			"missing":  missing.Missing(),
		})
	case errors.Is(err, common.ErrNotFound):
		write(c, http.StatusNotFound, CodeNotFound, err.Error(), nil)
	case errors.Is(err, common.ErrForbidden):
		write(c, http.StatusForbidden, CodeForbidden, err.Error(), nil)
	case errors.Is(err, common.ErrConflict):
		write(c, http.StatusConflict, CodeConflict, err.Error(), nil)
	case errors.Is(err, common.ErrGone):
		write(c, http.StatusGone, CodeGone, err.Error(), nil)
	case errors.Is(err, common.ErrInvalidArgument):
		write(c, http.StatusBadRequest, CodeInvalidParam, err.Error(), nil)
	case errors.Is(err, common.ErrPayloadTooLarge):
		write(c, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, err.Error(), nil)
	case errors.Is(err, common.ErrQuotaExceeded):
		write(c, http.StatusInsufficientStorage, CodeQuotaExceeded, err.Error(), nil)
	case errors.Is(err, common.ErrServiceUnavailable):
		write(c, http.StatusServiceUnavailable, CodeServiceUnavailable, common.ErrServiceUnavailable.Error(), nil)
	case errors.Is(err, common.ErrStorageUnavailable):
		// Transport details stay in the logs
		log.Printf("Storage unavailable: %v", err)
		write(c, http.StatusServiceUnavailable, CodeServiceUnavailable, common.ErrStorageUnavailable.Error(), nil)
	default:
		log.Printf("Request failed: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		write(c, http.StatusInternalServerError, CodeServerError, err.Error(), nil)
	}
}

// TimingMiddleware stamps X-Request-Start (unix millis) and logs slow
// requests. Headers must be set before the handler writes.
func TimingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Writer.Header().Set("X-Request-Start", strconv.FormatInt(start.UnixMilli(), 10))
		c.Next()
		elapsed := time.Since(start)
		if elapsed > 5*time.Second {
			log.Printf("Slow request: %s %s took %s", c.Request.Method, c.Request.URL.Path, elapsed)
		}
	}
}
