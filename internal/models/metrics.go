package models

import "time"

// OpsMetricsSnapshot aggregates runtime counters for the operations dashboard.
type OpsMetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	AssignmentsTotal         uint64    `json:"assignmentsTotal"`
	DeclinesTotal            uint64    `json:"declinesTotal"`
	ReturnsTotal             uint64    `json:"returnsTotal"`
	AutoVoidsTotal           uint64    `json:"autoVoidsTotal"`
	PropagationFailures      uint64    `json:"propagationFailures"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
