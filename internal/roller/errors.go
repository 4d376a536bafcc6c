package roller

import "errors"

var (
	// ErrHistoryDisabled is returned by history calls when no store is configured.
	ErrHistoryDisabled = errors.New("roll history is disabled (set DATABASE_URL)")
	// ErrPresetsDisabled is returned by preset calls when no store is configured.
	ErrPresetsDisabled = errors.New("presets are disabled (set DATABASE_URL)")
	// ErrInvalidPresetName rejects names that could not be referenced as @name.
	ErrInvalidPresetName = errors.New("preset names use letters, digits and '_' (at most 40)")
)

// Log messages.
const (
	LogMsgRolled          = "expression rolled"
	LogMsgRollFailed      = "expression rejected"
	LogMsgHistoryFailed   = "failed to record roll history"
	LogMsgDistComputed    = "distribution computed"
	LogMsgDistCacheHit    = "distribution served from cache"
	LogMsgDistApproximate = "distribution is approximate"
	LogMsgPresetSaved     = "preset saved"
	LogMsgPresetDeleted   = "preset deleted"
)
