// Package healtherr defines the error taxonomy shared by health data
// providers and the session facade.
//
// Every provider failure is an *Error carrying a Kind. Vendor SDK error codes
// are preserved in Code so callers can log them, while Kind drives behavior.
package healtherr

import (
	"errors"
	"fmt"
	"strings"

	"health_dashboard/internal/models"
)

// Kind categorizes a health data failure.
type Kind string

const (
	KindPlatformUnsupported Kind = "PLATFORM_UNSUPPORTED"
	KindSdkUnavailable      Kind = "SDK_UNAVAILABLE"
	KindVersionIncompatible Kind = "VERSION_INCOMPATIBLE"
	KindNotInitialized      Kind = "NOT_INITIALIZED"
	KindNoActivityContext   Kind = "NO_ACTIVITY_CONTEXT"
	KindPermissionDenied    Kind = "PERMISSION_DENIED"
	KindReadFailure         Kind = "READ_FAILURE"
	KindUnknown             Kind = "UNKNOWN_ERROR"
)

// Error is the structured failure returned by providers and the facade.
type Error struct {
	Kind        Kind              // drives status mapping and recovery
	Code        string            // vendor SDK code, if any (e.g. "NOT_INSTALLED")
	Message     string            // user-facing message
	Cause       error             // underlying error, if any
	DeniedTypes []models.DataType // set only for KindPermissionDenied
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(string(e.Kind))
	if e.Code != "" {
		b.WriteString("/")
		b.WriteString(e.Code)
	}
	b.WriteString("] ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same Kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// WithCause returns a copy wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

// WithCode returns a copy tagged with a vendor code.
func (e *Error) WithCode(code string) *Error {
	cp := *e
	cp.Code = code
	return &cp
}

// WithMessage returns a copy with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// Sentinels for errors.Is checks. Use the constructors below to build
// concrete values.
var (
	ErrPlatformUnsupported = &Error{Kind: KindPlatformUnsupported, Message: "health data is not available on this platform"}
	ErrSdkUnavailable      = &Error{Kind: KindSdkUnavailable, Message: "health SDK is not installed or not reachable"}
	ErrVersionIncompatible = &Error{Kind: KindVersionIncompatible, Message: "health SDK version is not supported"}
	ErrNotInitialized      = &Error{Kind: KindNotInitialized, Message: "health session is not initialized"}
	ErrNoActivityContext   = &Error{Kind: KindNoActivityContext, Message: "no foreground activity available for permission request"}
	ErrPermissionDenied    = &Error{Kind: KindPermissionDenied, Message: "some permissions were denied"}
	ErrReadFailure         = &Error{Kind: KindReadFailure, Message: "failed to read health data"}
	ErrUnknown             = &Error{Kind: KindUnknown, Message: "unknown health data error"}
)

// PlatformUnsupported reports that the current platform cannot host the SDK.
func PlatformUnsupported(platform, supported string) *Error {
	return ErrPlatformUnsupported.WithMessage(
		fmt.Sprintf("health data is only available on %s (running on %s)", supported, platform))
}

// NotInitialized reports an operation issued before its prerequisite step.
func NotInitialized(msg string) *Error {
	if msg == "" {
		return ErrNotInitialized
	}
	return ErrNotInitialized.WithMessage(msg)
}

// PermissionDenied reports which of the requested types were refused.
func PermissionDenied(denied []models.DataType) *Error {
	names := make([]string, 0, len(denied))
	for _, d := range denied {
		names = append(names, string(d))
	}
	e := ErrPermissionDenied.WithMessage("some permissions were denied: " + strings.Join(names, ", "))
	e.DeniedTypes = append([]models.DataType(nil), denied...)
	return e
}

// ReadFailure wraps a failed read of the named metric.
func ReadFailure(metric string, cause error) *Error {
	return ErrReadFailure.WithMessage("error reading "+metric).WithCause(cause)
}

// Unknown wraps an unmapped failure, keeping the vendor code.
func Unknown(code string, cause error) *Error {
	return ErrUnknown.WithCode(code).WithCause(cause)
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind
	}
	return KindUnknown
}

// DeniedTypes extracts the refused data types from a permission failure.
func DeniedTypes(err error) []models.DataType {
	var he *Error
	if errors.As(err, &he) && he.Kind == KindPermissionDenied {
		return append([]models.DataType(nil), he.DeniedTypes...)
	}
	return nil
}

// UserMessage returns the message shown to end users for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var he *Error
	if errors.As(err, &he) {
		return he.Message
	}
	return err.Error()
}
