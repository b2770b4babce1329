package scm

import "math"

const (
	MetricTotalShipments = "Total Shipments"
	MetricDelivered      = "Delivered"
	MetricDelayed        = "Delayed"
	MetricOnTimeRate     = "On-Time Rate"
)

// PerformanceMetric is a derived, never persisted value.
type PerformanceMetric struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// PerformanceSummary is the typed form of the dashboard metrics.
type PerformanceSummary struct {
	Total      int `json:"total"`
	Delivered  int `json:"delivered"`
	Delayed    int `json:"delayed"`
	OnTimeRate int `json:"on_time_rate"`
}

// Metrics lists the summary in display order.
func (s PerformanceSummary) Metrics() []PerformanceMetric {
	return []PerformanceMetric{
		{Label: MetricTotalShipments, Value: float64(s.Total)},
		{Label: MetricDelivered, Value: float64(s.Delivered)},
		{Label: MetricDelayed, Value: float64(s.Delayed)},
		{Label: MetricOnTimeRate, Value: float64(s.OnTimeRate), Unit: "%"},
	}
}

// ComputePerformanceMetrics counts shipments by status.
//
// The on-time rate is round((delivered-delayed)/max(delivered,1)*100). It
// treats "on time" as "not delayed among delivered" and goes negative when
// delayed outnumbers delivered. Kept as-is for compatibility with existing
// dashboards; do not reuse it as a real on-time calculation.
func ComputePerformanceMetrics(shipments []*Shipment) PerformanceSummary {
	var sum PerformanceSummary
	for _, s := range shipments {
		if s == nil {
			continue
		}
		sum.Total++
		switch s.CurrentStatus {
		case StatusDelivered:
			sum.Delivered++
		case StatusDelayed:
			sum.Delayed++
		}
	}
	denominator := sum.Delivered
	if denominator < 1 {
		denominator = 1
	}
	// Half values round toward positive infinity.
	sum.OnTimeRate = int(math.Floor(float64(sum.Delivered-sum.Delayed)/float64(denominator)*100 + 0.5))
	return sum
}
