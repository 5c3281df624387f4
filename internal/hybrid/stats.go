package hybrid

import "time"

// emaWeight is the weight of the newest sample in the processing-time
// moving average.
const emaWeight = 0.2

// UsageStatistics are the running counters the coordinator maintains
// across completed requests. Failed requests never touch them.
//
// The counters are owned and mutated only by the coordinator, and the
// mutation is not atomic across concurrent requests (see the package
// documentation).
type UsageStatistics struct {
	// TotalProcessed counts completed requests.
	TotalProcessed int `json:"total_processed"`

	// CloudUsedCount counts requests in which a cloud attempt was issued.
	CloudUsedCount int `json:"cloud_used_count"`

	// LocalUsedCount counts requests in which the local engine ran.
	LocalUsedCount int `json:"local_used_count"`

	// FallbackCount counts requests that switched from the cloud path to
	// the local path, whether after a cloud failure or after losing the
	// low-confidence arbitration.
	FallbackCount int `json:"fallback_count"`

	// LastProcessingTimeMs is the duration of the most recent completed
	// request.
	LastProcessingTimeMs int64 `json:"last_processing_time_ms"`

	// AverageProcessingTimeMs is an exponential moving average of request
	// durations, seeded by the first sample.
	AverageProcessingTimeMs float64 `json:"average_processing_time_ms"`
}

// record folds one completed request into the counters.
func (s *UsageStatistics) record(elapsed time.Duration, cloudUsed, localUsed, fellBack bool) {
	s.TotalProcessed++
	if cloudUsed {
		s.CloudUsedCount++
	}
	if localUsed {
		s.LocalUsedCount++
	}
	if fellBack {
		s.FallbackCount++
	}

	ms := elapsed.Milliseconds()
	s.LastProcessingTimeMs = ms
	if s.TotalProcessed == 1 {
		s.AverageProcessingTimeMs = float64(ms)
	} else {
		s.AverageProcessingTimeMs = emaWeight*float64(ms) + (1-emaWeight)*s.AverageProcessingTimeMs
	}
}
