package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/go-github/v62/github"
)

// APIError is returned when GitHub answers with a non-2xx status.
type APIError struct {
	Status     int
	StatusText string
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API error: %d %s", e.Status, e.StatusText)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// AccessDeniedError is returned when listing an organization's repositories is forbidden.
type AccessDeniedError struct {
	Organization string
	Err          *APIError
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("Access denied: you do not have permission to list the repositories of organization %q", e.Organization)
}

func (e *AccessDeniedError) Unwrap() error {
	return e.Err
}

// asAPIError converts the error values of go-github that carry an HTTP
// response into an *APIError. Other errors are returned unchanged.
func asAPIError(err error) error {
	var (
		errResp   *github.ErrorResponse
		rateErr   *github.RateLimitError
		abuseErr  *github.AbuseRateLimitError
		httpResp  *http.Response
		converted *APIError
	)
	switch {
	case errors.As(err, &converted):
		return converted
	case errors.As(err, &errResp):
		httpResp = errResp.Response
	case errors.As(err, &rateErr):
		httpResp = rateErr.Response
	case errors.As(err, &abuseErr):
		httpResp = abuseErr.Response
	}
	if httpResp == nil {
		return err
	}
	return &APIError{
		Status:     httpResp.StatusCode,
		StatusText: statusText(httpResp),
		Err:        err,
	}
}

// statusText strips the numeric code from a response status line such as "403 Forbidden".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
