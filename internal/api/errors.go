package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Conflict identifies the existing file that caused a 409 name conflict.
type Conflict struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ErrorContextInfo carries additional detail from a Box error response.
type ErrorContextInfo struct {
	Conflicts Conflict `json:"conflicts"`
}

// Error is a Box API error response. StatusCode zero means the request
// never produced an HTTP response (transport failure).
type Error struct {
	StatusCode  int              `json:"status"`
	Code        string           `json:"code"`
	Message     string           `json:"message"`
	ContextInfo ErrorContextInfo `json:"context_info"`
	// RetryAfter is the server-provided retry-after value in seconds,
	// zero if the header was absent.
	RetryAfter int
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("box api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("box api error %d (%s)", e.StatusCode, e.Code)
}

// IsConflict reports whether the error is a 409 name conflict.
func (e *Error) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// IsRateLimited reports whether the error is a rate-limit response.
func (e *Error) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Code == "too_many_requests"
}

// parseErrorResponse builds an *Error from a non-2xx response.
func parseErrorResponse(statusCode int, header http.Header, body []byte) *Error {
	apiErr := &Error{}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = string(body)
	}
	// The wire status wins over whatever the body claims.
	apiErr.StatusCode = statusCode

	if header != nil {
		if retryAfter := header.Get("Retry-After"); retryAfter != "" {
			fmt.Sscanf(retryAfter, "%d", &apiErr.RetryAfter)
		}
	}

	return apiErr
}
