package notion

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jomei/notionapi"
)

// APIError represents a Notion API error response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion: API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// HTTPStatus reports the upstream status code for retry classification.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// wrapError converts notionapi errors to APIError so the status reaches
// the limiter. The client reports 429s with a dedicated type that
// carries no status field, so it maps to 429 explicitly.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var rateErr *notionapi.RateLimitedError
	if errors.As(err, &rateErr) {
		return &APIError{
			StatusCode: http.StatusTooManyRequests,
			Code:       "rate_limited",
			Message:    rateErr.Message,
		}
	}

	var notionErr *notionapi.Error
	if errors.As(err, &notionErr) {
		return &APIError{
			StatusCode: notionErr.Status,
			Code:       string(notionErr.Code),
			Message:    notionErr.Message,
		}
	}

	return err
}
