package hybrid

import (
	"strings"
	"testing"
)

func TestRecommendation(t *testing.T) {
	withCloud := func(t *testing.T) *Coordinator {
		return newTestCoordinator(t, &fakeLocal{result: textResult(70)}, &fakeCloud{result: textResult(90)})
	}

	tests := []struct {
		name       string
		coord      func(t *testing.T) *Coordinator
		conditions Conditions
		wantMethod string
		wantReason string
	}{
		{
			name:       "no credential",
			coord:      func(t *testing.T) *Coordinator { return newTestCoordinator(t, &fakeLocal{result: textResult(70)}, nil) },
			conditions: DefaultConditions(),
			wantMethod: "local",
			wantReason: "no cloud credential",
		},
		{
			name:       "offline",
			coord:      withCloud,
			conditions: Conditions{Offline: true, BatteryLevel: -1},
			wantMethod: "local",
			wantReason: "offline",
		},
		{
			name:       "low power mode",
			coord:      withCloud,
			conditions: Conditions{LowPowerMode: true, BatteryLevel: 90},
			wantMethod: "local",
			wantReason: "low-power",
		},
		{
			name:       "low battery",
			coord:      withCloud,
			conditions: Conditions{BatteryLevel: 15},
			wantMethod: "local",
			wantReason: "battery",
		},
		{
			name:       "battery at threshold",
			coord:      withCloud,
			conditions: Conditions{BatteryLevel: 20},
			wantMethod: "cloud",
			wantReason: "optimal",
		},
		{
			name:       "unknown battery",
			coord:      withCloud,
			conditions: DefaultConditions(),
			wantMethod: "cloud",
			wantReason: "optimal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.coord(t).Recommendation(tt.conditions)
			if got.Method != tt.wantMethod {
				t.Errorf("method: got %q, want %q", got.Method, tt.wantMethod)
			}
			if !strings.Contains(got.Reason, tt.wantReason) {
				t.Errorf("reason %q does not mention %q", got.Reason, tt.wantReason)
			}
		})
	}
}
