package hybrid

// Conditions describes the device state a recommendation is based on.
// The caller reports what it knows; the coordinator contributes its own
// credential state.
type Conditions struct {
	// Offline reports that the device has no network connectivity.
	Offline bool `json:"offline"`

	// LowPowerMode reports that the device is in a power-saving mode.
	LowPowerMode bool `json:"low_power_mode"`

	// BatteryLevel is the battery percentage from 0 to 100. A negative
	// value means unknown.
	BatteryLevel float64 `json:"battery_level"`
}

// DefaultConditions returns a Conditions value with battery level marked
// unknown rather than empty.
func DefaultConditions() Conditions {
	return Conditions{BatteryLevel: -1}
}

// lowBatteryThreshold is the battery percentage below which cloud
// round-trips are not worth the radio time.
const lowBatteryThreshold = 20

// Recommendation is the advisory outcome of condition evaluation.
type Recommendation struct {
	// Method is the suggested path: "cloud" or "local".
	Method string `json:"method"`

	// Reason explains the suggestion.
	Reason string `json:"reason"`
}

// Recommendation evaluates device conditions and suggests a processing
// method. Purely advisory: ProcessImage does not consult it, and callers
// are free to ignore it.
func (c *Coordinator) Recommendation(cond Conditions) Recommendation {
	if c.currentCloud() == nil {
		return Recommendation{Method: "local", Reason: "no cloud credential configured"}
	}
	if cond.Offline {
		return Recommendation{Method: "local", Reason: "device is offline"}
	}
	if cond.LowPowerMode {
		return Recommendation{Method: "local", Reason: "device is in low-power mode"}
	}
	if cond.BatteryLevel >= 0 && cond.BatteryLevel < lowBatteryThreshold {
		return Recommendation{Method: "local", Reason: "battery level is low"}
	}
	return Recommendation{Method: "cloud", Reason: "optimal conditions for cloud recognition"}
}
