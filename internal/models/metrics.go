package models

import "time"

// SystemMetrics summarises instrumentation counters for the operator summary endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	LMSCallCount             uint64    `json:"lms_call_count"`
	LMSCallFailures          uint64    `json:"lms_call_failures"`
	AverageLMSCallDurationMs float64   `json:"average_lms_call_duration_ms"`
	CorrectionWrites         uint64    `json:"correction_writes"`
	CorrectionWriteFailures  uint64    `json:"correction_write_failures"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
