package hybrid

import "sync"

// Progress milestones published per request. The local engine's own 0..100
// progress is scaled into the 40..80 band when it runs.
const (
	progressStart        = 0
	progressCloudAttempt = 20
	progressLocalBandLow = 40
	progressLocalBandTop = 80
	progressAttemptDone  = 80
	progressDone         = 100
)

// ProgressEvent is one progress notification for one request.
type ProgressEvent struct {
	// RequestID correlates events belonging to the same request.
	RequestID string `json:"request_id"`

	// Status is a short machine-readable phase name: "started",
	// "cloud_processing", "local_processing", "completed", "failed".
	Status string `json:"status"`

	// Message is a human-readable description of the phase.
	Message string `json:"message"`

	// Progress is the overall completion estimate from 0 to 100. A
	// failed request reports 0 together with the failure message.
	Progress int `json:"progress"`
}

// ProgressListener receives progress events. Implementations must return
// quickly; events are delivered synchronously from the goroutine running
// the request.
type ProgressListener interface {
	OnProgress(event ProgressEvent)
}

// ProgressListenerFunc adapts a plain function to the listener interface.
type ProgressListenerFunc func(event ProgressEvent)

// OnProgress implements ProgressListener.
func (f ProgressListenerFunc) OnProgress(event ProgressEvent) { f(event) }

// progressHub fans events out to every subscribed listener.
type progressHub struct {
	mu        sync.RWMutex
	listeners []ProgressListener
}

func (h *progressHub) subscribe(l ProgressListener) {
	if l == nil {
		return
	}
	h.mu.Lock()
	h.listeners = append(h.listeners, l)
	h.mu.Unlock()
}

func (h *progressHub) publish(event ProgressEvent) {
	h.mu.RLock()
	listeners := h.listeners
	h.mu.RUnlock()
	for _, l := range listeners {
		l.OnProgress(event)
	}
}

// scaleLocalProgress maps the local engine's 0..100 progress into the
// coordinator's 40..80 band.
func scaleLocalProgress(engineProgress int) int {
	if engineProgress < 0 {
		engineProgress = 0
	}
	if engineProgress > 100 {
		engineProgress = 100
	}
	span := progressLocalBandTop - progressLocalBandLow
	return progressLocalBandLow + engineProgress*span/100
}
