package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed = fmt.Errorf("authentication failed")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrInvalidPlaylistID  = fmt.Errorf("invalid playlist identifier")

	// Download errors
	ErrNoResult       = fmt.Errorf("no downloadable result")
	ErrDownloadFailed = fmt.Errorf("download failed")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
