package report

import (
	"encoding/json"
	"math"
)

// Metric is a percentage that may be undefined. Undefined values are carried
// as NaN in memory, which encoding/json refuses to emit, so Metric marshals
// them as null instead.
type Metric float64

func (m Metric) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(m)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(m))
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*m = Metric(f)
	return nil
}

// IsNaN reports whether the metric is undefined.
func (m Metric) IsNaN() bool {
	return math.IsNaN(float64(m))
}
