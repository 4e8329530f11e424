package models

import "time"

// Phase is the health session state machine position.
type Phase string

const (
	PhaseUninitialized     Phase = "UNINITIALIZED"
	PhaseConnecting        Phase = "CONNECTING"
	PhaseConnected         Phase = "CONNECTED"
	PhasePermissionPending Phase = "PERMISSION_PENDING"
	PhaseReady             Phase = "READY"
	PhaseErrored           Phase = "ERRORED"
)

// SessionSnapshot is the reactive state exposed to UI and API callers.
type SessionSnapshot struct {
	Phase           Phase      `json:"phase"`
	IsInitialized   bool       `json:"is_initialized"`
	HasPermissions  bool       `json:"has_permissions"`
	TodaySteps      *int64     `json:"today_steps"`       // nil until the first successful fetch
	LatestHeartRate *float64   `json:"latest_heart_rate"` // nil when absent
	IsLoading       bool       `json:"is_loading"`
	Error           *string    `json:"error"`
	GrantedTypes    []DataType `json:"granted_types,omitempty"`
	DeniedTypes     []DataType `json:"denied_types,omitempty"`
	LastRefreshAt   *time.Time `json:"last_refresh_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
