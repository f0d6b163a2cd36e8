// Package units converts between the imperial values reported by WeatherLink
// and the metric values published when a node server runs in metric mode.
package units

import (
	"math"
	"strings"
)

// System is the unit system a node server publishes in
type System int

const (
	US System = iota
	Metric
)

// Conversion factors
const (
	mbPerInHg = 33.8639
	mmPerInch = 25.4
	kphPerMph = 1.609344
	kphPerKt  = 1.852
)

// ParseSystem maps the user's "Units" parameter onto a System.  "metric", "si"
// and anything starting with "m" select Metric; everything else is US.
func ParseSystem(s string) System {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "si" || strings.HasPrefix(s, "m") {
		return Metric
	}
	return US
}

func (s System) String() string {
	if s == Metric {
		return "metric"
	}
	return "us"
}

// FtoC converts degrees Fahrenheit to degrees Celsius
func FtoC(f float64) float64 {
	return (f - 32) * 5 / 9
}

// CtoF converts degrees Celsius to degrees Fahrenheit
func CtoF(c float64) float64 {
	return c*9/5 + 32
}

// InHgToMb converts inches of mercury to millibars
func InHgToMb(in float64) float64 {
	return in * mbPerInHg
}

// MbToInHg converts millibars to inches of mercury
func MbToInHg(mb float64) float64 {
	return mb / mbPerInHg
}

// InchToMm converts inches to millimeters
func InchToMm(in float64) float64 {
	return in * mmPerInch
}

// MmToInch converts millimeters to inches
func MmToInch(mm float64) float64 {
	return mm / mmPerInch
}

// MphToKph converts miles per hour to kilometers per hour
func MphToKph(mph float64) float64 {
	return mph * kphPerMph
}

// KphToMph converts kilometers per hour to miles per hour
func KphToMph(kph float64) float64 {
	return kph / kphPerMph
}

// KtToKph converts knots to kilometers per hour
func KtToKph(kt float64) float64 {
	return kt * kphPerKt
}

// Round rounds v to the given number of decimal places, half away from zero
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
