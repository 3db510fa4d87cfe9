package sim

import (
	"errors"
	"fmt"
)

// Metric names recognized by Evaluate.
const (
	MetricTotalUniqueKeys = "Total Unique Keys"
	MetricMaxValue        = "Max Value"
)

var (
	// ErrUnknownMetric is returned for metric names Evaluate does not
	// recognize.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrPipelineNotComplete is returned when a metric is requested
	// before the pipeline has run to its terminal stage.
	ErrPipelineNotComplete = errors.New("pipeline not complete")
)

// Metrics returns the recognized metric names.
func Metrics() []string {
	return []string{MetricTotalUniqueKeys, MetricMaxValue}
}

// Evaluate computes the named metric over the current record
// collection. Metrics are only defined once the pipeline has run to
// completion; before that Evaluate returns ErrPipelineNotComplete.
//
// MetricMaxValue over an empty collection is 0, not an error.
func (s *Simulator) Evaluate(name string) (float64, error) {
	if !s.stage.Terminal() {
		return 0, fmt.Errorf("%w: at stage %q", ErrPipelineNotComplete, s.stage)
	}

	switch name {
	case MetricTotalUniqueKeys:
		return float64(len(s.records)), nil
	case MetricMaxValue:
		if len(s.records) == 0 {
			return 0, nil
		}
		max := s.records[0].Value
		for _, r := range s.records[1:] {
			if r.Value > max {
				max = r.Value
			}
		}
		return max, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
}
