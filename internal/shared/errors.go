package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthExchange     = fmt.Errorf("authorization exchange failed")
	ErrAuthCancelled    = fmt.Errorf("authorization cancelled")
	ErrStateMismatch    = fmt.Errorf("authorization state mismatch")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Remote playback errors
	ErrNoActiveDevice = fmt.Errorf("no active device found")
	ErrDeviceTransfer = fmt.Errorf("device transfer failed")
	ErrTransientAPI   = fmt.Errorf("API request failed")

	// Storage errors
	ErrStorage  = fmt.Errorf("token storage failed")
	ErrNotFound = fmt.Errorf("record not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// UserMessage maps an error to the short, actionable text shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthCancelled):
		return "Login was cancelled."
	case errors.Is(err, ErrTimeout):
		return "Timed out waiting for the browser."
	case errors.Is(err, ErrAuthExchange):
		return "Login failed. Please try again."
	case errors.Is(err, ErrNotAuthenticated):
		return "You are not logged in. Run `soundwave auth login` first."
	case errors.Is(err, ErrNoActiveDevice):
		return "No active device. Open Spotify on a device, or pick one, and try again."
	case errors.Is(err, ErrDeviceTransfer):
		return "Could not switch to that device. Make sure it is available."
	case errors.Is(err, ErrStorage):
		return "Could not save your credentials."
	case errors.Is(err, ErrMissingCredentials):
		return "Spotify client credentials are not configured. Run `soundwave setup`."
	case errors.Is(err, ErrTransientAPI):
		return "Request to Spotify failed. Please try again."
	default:
		return err.Error()
	}
}
