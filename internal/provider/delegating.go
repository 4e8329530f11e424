package provider

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"health_dashboard/internal/healtherr"
	"health_dashboard/internal/logger"
	"health_dashboard/internal/models"

	"github.com/spf13/cast"
)

// DefaultSupportedPlatform is the only OS the vendor SDK ships for.
const DefaultSupportedPlatform = "android"

// Vendor error codes surfaced in healtherr.Error.Code.
const (
	codeInitialization = "INITIALIZATION_ERROR"
	codeConnection     = "CONNECTION_FAILED"
	codeConnectionErr  = "CONNECTION_ERROR"
	codePermission     = "PERMISSION_ERROR"
	codeNoActivity     = "NO_ACTIVITY"
	codeNotInitialized = "NOT_INITIALIZED"
	codeReadError      = "READ_ERROR"
)

const (
	connectedResult  = "health SDK connected successfully"
	permissionResult = "all permissions granted"
)

// DelegatingConfig configures the SDK-backed provider.
type DelegatingConfig struct {
	Platform          string // runtime platform; empty means runtime.GOOS
	SupportedPlatform string // empty means DefaultSupportedPlatform
	// PermissionKeys maps each data type to the vendor's reverse-DNS type id.
	PermissionKeys map[models.DataType]string
}

// Delegating forwards every call to a vendor SDK handle and translates its
// result codes into healtherr kinds.
type Delegating struct {
	sdk SDK
	cfg DelegatingConfig
	log *logger.Logger

	mu        sync.Mutex // guards connected
	connected bool
}

// NewDelegating builds the provider. A nil sdk is allowed: every call then
// fails with SdkUnavailable, which is what a build without the native binding
// should report.
func NewDelegating(sdk SDK, cfg DelegatingConfig, log *logger.Logger) *Delegating {
	if cfg.Platform == "" {
		cfg.Platform = runtime.GOOS
	}
	if cfg.SupportedPlatform == "" {
		cfg.SupportedPlatform = DefaultSupportedPlatform
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Delegating{sdk: sdk, cfg: cfg, log: log}
}

var _ Provider = (*Delegating)(nil)

// guard rejects calls on unsupported platforms or without an SDK handle,
// before the SDK is touched.
func (d *Delegating) guard() error {
	if d.cfg.Platform != d.cfg.SupportedPlatform {
		return healtherr.PlatformUnsupported(d.cfg.Platform, d.cfg.SupportedPlatform)
	}
	if d.sdk == nil {
		return healtherr.ErrSdkUnavailable.WithMessage("health SDK native module is not available in this build")
	}
	return nil
}

func (d *Delegating) isConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

func (d *Delegating) setConnected(v bool) {
	d.mu.Lock()
	d.connected = v
	d.mu.Unlock()
}

// Initialize checks SDK availability, then connects the data store.
func (d *Delegating) Initialize(ctx context.Context) (string, error) {
	if err := d.guard(); err != nil {
		return "", err
	}
	d.setConnected(false)

	res, err := d.sdk.CheckAvailability(ctx)
	if err != nil {
		return "", healtherr.Unknown(codeInitialization, err).
			WithMessage("error initializing health SDK")
	}
	if err := availabilityError(res); err != nil {
		return "", err
	}

	if err := d.sdk.Connect(ctx); err != nil {
		var ce *ConnectionError
		if errors.As(err, &ce) {
			return "", healtherr.Unknown(codeConnection, err).
				WithMessage(fmt.Sprintf("failed to connect to health SDK: %d", ce.Code))
		}
		return "", healtherr.Unknown(codeConnectionErr, err).
			WithMessage("error connecting to health SDK")
	}

	d.setConnected(true)
	d.log.Infow("delegating_provider_connected", "platform", d.cfg.Platform)
	return connectedResult, nil
}

// availabilityError maps a non-success availability result to its kind.
func availabilityError(res ConnectionResult) error {
	switch res {
	case ConnectionSuccess:
		return nil
	case ConnectionNotInstalled:
		return healtherr.ErrSdkUnavailable.WithCode(res.String()).
			WithMessage("health SDK is not installed")
	case ConnectionNotSupported:
		return healtherr.ErrPlatformUnsupported.WithCode(res.String()).
			WithMessage("health SDK is not supported on this device")
	case ConnectionOutdatedSDK:
		return healtherr.ErrVersionIncompatible.WithCode(res.String()).
			WithMessage("health SDK is outdated")
	default:
		return healtherr.ErrUnknown.WithCode(res.String()).
			WithMessage("unknown error initializing health SDK")
	}
}

// RequestPermissions issues a single combined read-permission request.
func (d *Delegating) RequestPermissions(ctx context.Context, types models.DataTypeSet) (string, error) {
	if err := d.guard(); err != nil {
		return "", err
	}
	if !d.isConnected() {
		return "", healtherr.NotInitialized("health SDK not initialized").WithCode(codeNotInitialized)
	}

	ordered := types.Sorted()
	keys := make([]PermissionKey, 0, len(ordered))
	byKey := make(map[PermissionKey]models.DataType, len(ordered))
	for _, t := range ordered {
		id, ok := d.cfg.PermissionKeys[t]
		if !ok || id == "" {
			return "", healtherr.Unknown(codePermission, fmt.Errorf("no permission key configured for %s", t)).
				WithMessage("error requesting permissions")
		}
		k := PermissionKey{DataType: id, Access: AccessRead}
		keys = append(keys, k)
		byKey[k] = t
	}

	granted, err := d.sdk.RequestPermissions(ctx, keys)
	if err != nil {
		if errors.Is(err, ErrNoActivity) {
			return "", healtherr.ErrNoActivityContext.WithCode(codeNoActivity).WithCause(err)
		}
		return "", healtherr.Unknown(codePermission, err).WithMessage("error requesting permissions")
	}

	var denied []models.DataType
	for _, k := range keys {
		if !granted[k] {
			denied = append(denied, byKey[k])
		}
	}
	if len(denied) > 0 {
		return "", healtherr.PermissionDenied(denied)
	}
	return permissionResult, nil
}

// ReadSteps reads step count buckets over r.
func (d *Delegating) ReadSteps(ctx context.Context, r models.TimeRange) ([]models.StepSample, error) {
	records, err := d.read(ctx, models.DataTypeSteps, r, PropCount, PropStartTime, PropEndTime)
	if err != nil {
		return nil, err
	}

	out := make([]models.StepSample, 0, len(records))
	for i, rec := range records {
		s, err := toStepSample(rec)
		if err != nil {
			return nil, healtherr.ReadFailure("step count", fmt.Errorf("record %d: %w", i, err)).WithCode(codeReadError)
		}
		out = append(out, s)
	}
	return out, nil
}

// ReadHeartRate reads heart rate readings over r.
func (d *Delegating) ReadHeartRate(ctx context.Context, r models.TimeRange) ([]models.HeartRateSample, error) {
	records, err := d.read(ctx, models.DataTypeHeartRate, r, PropHeartRate, PropStartTime)
	if err != nil {
		return nil, err
	}

	out := make([]models.HeartRateSample, 0, len(records))
	for i, rec := range records {
		s, err := toHeartRateSample(rec)
		if err != nil {
			return nil, healtherr.ReadFailure("heart rate", fmt.Errorf("record %d: %w", i, err)).WithCode(codeReadError)
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *Delegating) read(ctx context.Context, t models.DataType, r models.TimeRange, props ...string) ([]Record, error) {
	if err := d.guard(); err != nil {
		return nil, err
	}
	if !d.isConnected() {
		return nil, healtherr.NotInitialized("health SDK not initialized").WithCode(codeNotInitialized)
	}
	id, ok := d.cfg.PermissionKeys[t]
	if !ok || id == "" {
		return nil, healtherr.ReadFailure(string(t), fmt.Errorf("no data type id configured for %s", t)).WithCode(codeReadError)
	}

	records, err := d.sdk.ReadData(ctx, ReadRequest{DataType: id, Properties: props, Range: r})
	if err != nil {
		return nil, healtherr.ReadFailure(string(t), err).WithCode(codeReadError)
	}
	return records, nil
}

var (
	errMissingField = errors.New("missing field")
	errOutOfRange   = errors.New("value out of range")
)

// int64Field coerces a required record field. cast maps nil to 0, so
// presence is checked first.
func int64Field(rec Record, key string) (int64, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%s: %w", key, errMissingField)
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func float64Field(rec Record, key string) (float64, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%s: %w", key, errMissingField)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

// toStepSample requires count >= 0.
func toStepSample(rec Record) (models.StepSample, error) {
	count, err := int64Field(rec, PropCount)
	if err != nil {
		return models.StepSample{}, err
	}
	if count < 0 {
		return models.StepSample{}, fmt.Errorf("%s %d: %w", PropCount, count, errOutOfRange)
	}
	start, err := int64Field(rec, PropStartTime)
	if err != nil {
		return models.StepSample{}, err
	}
	end, err := int64Field(rec, PropEndTime)
	if err != nil {
		return models.StepSample{}, err
	}
	return models.StepSample{Count: count, StartTime: start, EndTime: end}, nil
}

// toHeartRateSample requires bpm > 0; zero never stands for "no data".
func toHeartRateSample(rec Record) (models.HeartRateSample, error) {
	bpm, err := float64Field(rec, PropHeartRate)
	if err != nil {
		return models.HeartRateSample{}, err
	}
	if bpm <= 0 {
		return models.HeartRateSample{}, fmt.Errorf("%s %v: %w", PropHeartRate, bpm, errOutOfRange)
	}
	ts, err := int64Field(rec, PropStartTime)
	if err != nil {
		return models.HeartRateSample{}, err
	}
	return models.HeartRateSample{HeartRate: bpm, Timestamp: ts}, nil
}

// ParsePermissionKeys converts config keys (data type names, any case) into
// the map DelegatingConfig expects.
func ParsePermissionKeys(raw map[string]string) (map[models.DataType]string, error) {
	out := make(map[models.DataType]string, len(raw))
	for name, id := range raw {
		dt, err := models.ParseDataType(name)
		if err != nil {
			return nil, fmt.Errorf("permission key %q: %w", name, err)
		}
		out[dt] = id
	}
	return out, nil
}
