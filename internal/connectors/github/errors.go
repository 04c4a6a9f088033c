package github

import (
	"errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v80/github"
)

// APIError represents a GitHub API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
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

// IsForbidden checks if the error indicates a forbidden resource.
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden
}

// wrapError converts go-github errors to APIError so the status reaches
// the limiter. Primary and secondary rate limit errors map to 429.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &APIError{
			StatusCode: http.StatusTooManyRequests,
			Message:    rateErr.Message,
			URL:        requestURL(rateErr.Response),
		}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &APIError{
			StatusCode: http.StatusTooManyRequests,
			Message:    abuseErr.Message,
			URL:        requestURL(abuseErr.Response),
		}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) {
		return &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
			URL:        requestURL(ghErr.Response),
		}
	}

	return err
}

// requestURL extracts the request URL from a response, if available.
func requestURL(resp *http.Response) string {
	if resp == nil || resp.Request == nil || resp.Request.URL == nil {
		return ""
	}
	return resp.Request.URL.String()
}
