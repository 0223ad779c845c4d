// package services implements the authorized HTTP client for the Spotify Web API.
package services

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/soundwave/internal/shared"
)

// APIError is a non-2xx response from the remote service.
//
// It unwraps to [shared.ErrTransientAPI] so callers can branch on the taxonomy
// while still inspecting the status (e.g. 404 from playback start).
type APIError struct {
	Status   int
	Method   string
	Endpoint string
	Message  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("spotify API error: %s %s: status %d: %s", e.Method, e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("spotify API error: %s %s: status %d", e.Method, e.Endpoint, e.Status)
}

func (e *APIError) Unwrap() error { return shared.ErrTransientAPI }

// NotFound reports whether the remote answered 404.
func (e *APIError) NotFound() bool { return e.Status == http.StatusNotFound }

// errorBody is the Web API's regular error object
type errorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseAPIError(resp *http.Response, method, endpoint string) *APIError {
	apiErr := &APIError{Status: resp.StatusCode, Method: method, Endpoint: endpoint}

	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Message = body.Error.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
