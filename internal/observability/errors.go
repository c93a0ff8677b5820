package observability

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/wafflestudio/siksha-crawler/internal/httpx"
)

const (
	ErrorNetwork   = "network"
	ErrorParsing   = "parsing"
	ErrorRateLimit = "rate_limit"
	ErrorStore     = "store"
	ErrorUnknown   = "unknown"
)

func ClassifyFetchError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	var fe *httpx.FetchError
	if errors.As(err, &fe) {
		if fe.Status == http.StatusTooManyRequests {
			return ErrorRateLimit
		}
		return ErrorNetwork
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorNetwork
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "parse failed") {
		return ErrorParsing
	}
	return ErrorUnknown
}
