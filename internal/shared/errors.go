package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrSessionExpired   = fmt.Errorf("session expired, log in again")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")

	// API and service errors
	ErrUpstreamUnavailable = fmt.Errorf("upstream unavailable")
	ErrServiceUnavailable  = fmt.Errorf("service unavailable")
	ErrBlockNotFound       = fmt.Errorf("curation block not found")
	ErrTimeout             = fmt.Errorf("operation timed out")

	// Playback and curation errors
	ErrNothingPlaying    = fmt.Errorf("nothing is playing")
	ErrPartialRelocation = fmt.Errorf("track added to target but not removed from source")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
