package api

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"archgraph/internal/envelope"
	"archgraph/internal/errors"
)

// StatusFor maps error codes to HTTP status codes
func StatusFor(code errors.ErrorCode) int {
	switch code {
	case errors.InvalidArgument:
		return http.StatusBadRequest
	case errors.ComponentNotFound, errors.ConnectionNotFound, errors.SnapshotNotFound, errors.StoreMissing:
		return http.StatusNotFound
	case errors.InvalidRuleFile, errors.InvalidConfig, errors.InvalidSignatureFile:
		return http.StatusUnprocessableEntity
	case errors.RateLimited:
		return http.StatusTooManyRequests
	case errors.Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respond writes an envelope with a status derived from its error code
func respond(c *gin.Context, resp *envelope.Response) {
	status := http.StatusOK
	if resp.Error != nil {
		status = StatusFor(errors.ErrorCode(resp.ErrorCode))
	}
	c.JSON(status, resp)
}

// fail writes an error envelope, keeping any partial builder state
func fail(c *gin.Context, b *envelope.Builder, err error) {
	if b == nil {
		b = envelope.New()
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		err = errors.New(errors.Timeout, "request cancelled", err)
	}
	respond(c, b.Error(err).Build())
}

func badRequest(c *gin.Context, msg string) {
	fail(c, nil, errors.New(errors.InvalidArgument, msg, nil))
}

func notFound(c *gin.Context, msg string) {
	fail(c, nil, errors.New(errors.ComponentNotFound, msg, nil))
}
