package weatherlink

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CurrentObservationKey holds the nested object with Davis-specific extended data
const CurrentObservationKey = "davis_current_observation"

// ErrFieldMissing is returned when a requested field is absent from an observation
var ErrFieldMissing = errors.New("field not present")

// Observation is a decoded NoaaExt.json object.  WeatherLink reports most numbers
// as JSON strings, so values are kept untyped and parsed on access.
type Observation map[string]any

// Has reports whether key is present and non-null
func (o Observation) Has(key string) bool {
	v, ok := o[key]
	return ok && v != nil
}

// Float returns the numeric value of key.  It returns ErrFieldMissing when the
// key is absent and a parse error when the value is present but not a finite
// number.
func (o Observation) Float(key string) (float64, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%s: %w", key, ErrFieldMissing)
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(n), 64); err != nil {
			return 0, fmt.Errorf("%s: invalid number %q", key, n)
		}
	case bool:
		if n {
			f = 1
		}
	default:
		return 0, fmt.Errorf("%s: unexpected type %T", key, v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s: non-finite number %v", key, v)
	}
	return f, nil
}

// String returns the value of key as a string
func (o Observation) String(key string) (string, bool) {
	v, ok := o[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	default:
		return fmt.Sprint(v), true
	}
}

// Sub returns the nested object stored under key, or an empty Observation when
// key is missing or does not hold an object
func (o Observation) Sub(key string) Observation {
	if m, ok := o[key].(map[string]any); ok {
		return Observation(m)
	}
	return Observation{}
}

// Current returns the davis_current_observation block
func (o Observation) Current() Observation {
	return o.Sub(CurrentObservationKey)
}
