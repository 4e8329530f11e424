package provider

import (
	"context"
	"errors"
	"fmt"

	"health_dashboard/internal/models"
)

// SDK abstracts the vendor health SDK handle so the delegating provider can be
// exercised without the native binding.
type SDK interface {
	// CheckAvailability reports whether the health service can be used on this device.
	CheckAvailability(ctx context.Context) (ConnectionResult, error)
	// Connect opens the data store connection. Failures should be *ConnectionError.
	Connect(ctx context.Context) error
	// RequestPermissions prompts once for all keys and reports the grant per key.
	RequestPermissions(ctx context.Context, keys []PermissionKey) (map[PermissionKey]bool, error)
	// ReadData runs one read request and returns the matching records.
	ReadData(ctx context.Context, req ReadRequest) ([]Record, error)
}

// ConnectionResult is the SDK availability check outcome.
type ConnectionResult int

const (
	ConnectionSuccess ConnectionResult = iota
	ConnectionNotInstalled
	ConnectionNotSupported
	ConnectionOutdatedSDK
	ConnectionUnknown
)

func (r ConnectionResult) String() string {
	switch r {
	case ConnectionSuccess:
		return "SUCCESS"
	case ConnectionNotInstalled:
		return "NOT_INSTALLED"
	case ConnectionNotSupported:
		return "NOT_SUPPORTED"
	case ConnectionOutdatedSDK:
		return "OUTDATED_SDK"
	default:
		return "UNKNOWN_ERROR"
	}
}

// AccessType is the permission access level requested from the SDK.
type AccessType string

const (
	AccessRead  AccessType = "read"
	AccessWrite AccessType = "write"
)

// PermissionKey names one vendor data type plus access level.
type PermissionKey struct {
	DataType string
	Access   AccessType
}

// ReadRequest selects records of one vendor data type inside a time range.
type ReadRequest struct {
	DataType   string
	Properties []string
	Range      models.TimeRange
}

// Record is one loosely typed row returned by the SDK, keyed by property name.
type Record map[string]any

// Vendor record property names.
const (
	PropCount     = "count"
	PropStartTime = "start_time"
	PropEndTime   = "end_time"
	PropHeartRate = "heart_rate"
)

// ErrNoActivity is returned by SDK.RequestPermissions when no foreground
// activity can host the permission prompt.
var ErrNoActivity = errors.New("no current activity available for permission request")

// ConnectionError carries the vendor error code of a failed Connect.
type ConnectionError struct {
	Code int
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to health data store: %d", e.Code)
}
