package provider

import (
	"errors"
	"fmt"
)

// SanitizedError is the serializable form of a caught scraping error:
// circular or unbounded structures (HTTP client internals, response bodies
// of arbitrary size) are reduced to the fields worth persisting.
type SanitizedError struct {
	Name     string         `json:"name"`
	Message  string         `json:"message"`
	Config   *ErrorConfig   `json:"config,omitempty"`
	Response *ErrorResponse `json:"response,omitempty"`
}

// ErrorConfig captures the outbound request that failed.
type ErrorConfig struct {
	URL    string `json:"url"`
	Method string `json:"method"`
}

// ErrorResponse captures the upstream response that failed.
type ErrorResponse struct {
	Status int `json:"status"`
	Data   any `json:"data,omitempty"`
}

func (e *SanitizedError) Error() string {
	if e.Response != nil {
		return fmt.Sprintf("%s: %s (status %d)", e.Name, e.Message, e.Response.Status)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// HTTPError is returned by the retry client for non-2xx upstream responses.
type HTTPError struct {
	URL    string
	Method string
	Status int
	Data   any
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
}

// Sanitize converts any error into its serializable form, preserving
// request/response details for HTTP failures.
func Sanitize(err error) *SanitizedError {
	if err == nil {
		return nil
	}
	var sanitized *SanitizedError
	if errors.As(err, &sanitized) {
		return sanitized
	}
	clean := &SanitizedError{
		Name:    fmt.Sprintf("%T", err),
		Message: err.Error(),
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		clean.Name = "HTTPError"
		clean.Config = &ErrorConfig{URL: httpErr.URL, Method: httpErr.Method}
		clean.Response = &ErrorResponse{Status: httpErr.Status, Data: httpErr.Data}
	}
	return clean
}
