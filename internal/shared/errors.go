package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrListNotFound       = fmt.Errorf("list not found")
	ErrDuplicateItem      = fmt.Errorf("item already exists in list")

	// Sync run errors
	ErrSetup             = fmt.Errorf("sync setup failed")
	ErrCancelled         = fmt.Errorf("sync cancelled")
	ErrDatasetUnreadable = fmt.Errorf("dataset unreadable")
	ErrListResolution    = fmt.Errorf("target list could not be resolved")
	ErrResolution        = fmt.Errorf("title resolution failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
