package nodes

import (
	"github.com/chrissnell/weatherlink-ns/pkg/units"
	"github.com/chrissnell/weatherlink-ns/pkg/weatherlink"
)

// Field maps one payload key onto one driver
type Field struct {
	Driver string
	// Key is read in US mode, MetricKey (or Key when empty) in metric mode
	Key       string
	MetricKey string
	// Convert is applied to the value in metric mode only
	Convert func(float64) float64
}

func (f Field) key(s units.System) string {
	if s == units.Metric && f.MetricKey != "" {
		return f.MetricKey
	}
	return f.Key
}

// fieldSet is a table of fields read from one part of the payload
type fieldSet struct {
	fields []Field
	source func(weatherlink.Observation) weatherlink.Observation
}

func topLevel(o weatherlink.Observation) weatherlink.Observation { return o }

func currentBlock(o weatherlink.Observation) weatherlink.Observation { return o.Current() }

type driverDef struct {
	name string
	uom  units.UOM
}

// pressureField also feeds the barometer history used for the trend fallback
var pressureField = Field{Driver: "BARPRES", Key: "pressure_in", MetricKey: "pressure_mb"}

// Current conditions, top level of NoaaExt.json.  The metric keys already carry
// metric values, except wind which is only reported in mph and knots.
var currentFields = []Field{
	{Driver: "CLITEMP", Key: "temp_f", MetricKey: "temp_c"},
	{Driver: "CLIHUM", Key: "relative_humidity"},
	{Driver: "DEWPT", Key: "dewpoint_f", MetricKey: "dewpoint_c"},
	{Driver: "GV3", Key: "heat_index_f", MetricKey: "heat_index_c"},
	{Driver: "GV4", Key: "windchill_f", MetricKey: "windchill_c"},
	pressureField,
	{Driver: "WINDDIR", Key: "wind_degrees"},
	{Driver: "SPEED", Key: "wind_mph", MetricKey: "wind_kt", Convert: units.KtToKph},
}

// Current conditions read from davis_current_observation
var currentExtendedFields = []Field{
	{Driver: "SOLRAD", Key: "solar_radiation"},
}

var controllerDrivers = []driverDef{
	{"ST", units.UOMBoolean},
	{"CLITEMP", units.UOMFahrenheit},
	{"CLIHUM", units.UOMPercent},
	{"DEWPT", units.UOMFahrenheit},
	{"GV3", units.UOMFahrenheit}, // heat index
	{"GV4", units.UOMFahrenheit}, // windchill
	{"BARPRES", units.UOMInHg},
	{"WINDDIR", units.UOMDegrees},
	{"SPEED", units.UOMMph},
	{"GV16", units.UOMIndex}, // pressure trend
	{"SOLRAD", units.UOMWattsPerM2},
}

// periodFields builds the high/low table for a summary period ("day", "month"
// or "year").  Every key is imperial.
func periodFields(period string, withGust bool) []Field {
	f := []Field{
		{Driver: "GV0", Key: "temp_" + period + "_high_f", Convert: units.FtoC},
		{Driver: "GV1", Key: "temp_" + period + "_low_f", Convert: units.FtoC},
		{Driver: "GV2", Key: "dewpoint_" + period + "_high_f", Convert: units.FtoC},
		{Driver: "GV3", Key: "dewpoint_" + period + "_low_f", Convert: units.FtoC},
		{Driver: "GV4", Key: "heat_index_" + period + "_high_f", Convert: units.FtoC},
		{Driver: "GV5", Key: "windchill_" + period + "_low_f", Convert: units.FtoC},
		{Driver: "GV8", Key: "relative_humidity_" + period + "_high"},
		{Driver: "GV9", Key: "relative_humidity_" + period + "_low"},
		{Driver: "GV10", Key: "pressure_" + period + "_high_in", Convert: units.InHgToMb},
		{Driver: "GV11", Key: "pressure_" + period + "_low_in", Convert: units.InHgToMb},
		{Driver: "GV12", Key: "rain_" + period + "_in", Convert: units.InchToMm},
		{Driver: "RAINRT", Key: "rain_rate_" + period + "_high_in_per_hr", Convert: units.InchToMm},
		{Driver: "SPEED", Key: "wind_" + period + "_high_mph", Convert: units.MphToKph},
	}
	if withGust {
		f = append(f, Field{Driver: "GV13", Key: "wind_ten_min_gust_mph", Convert: units.MphToKph})
	}
	return append(f,
		Field{Driver: "SOLRAD", Key: "solar_radiation_" + period + "_high"},
		Field{Driver: "UV", Key: "uv_index_" + period + "_high"},
		Field{Driver: "GV20", Key: "et_" + period, Convert: units.InchToMm},
	)
}

func periodDrivers(withGust bool) []driverDef {
	d := []driverDef{
		{"GV0", units.UOMFahrenheit},   // temp high
		{"GV1", units.UOMFahrenheit},   // temp low
		{"GV2", units.UOMFahrenheit},   // dewpoint high
		{"GV3", units.UOMFahrenheit},   // dewpoint low
		{"GV4", units.UOMFahrenheit},   // heat index high
		{"GV5", units.UOMFahrenheit},   // windchill low
		{"GV8", units.UOMPercent},      // humidity high
		{"GV9", units.UOMPercent},      // humidity low
		{"GV10", units.UOMInHg},        // pressure high
		{"GV11", units.UOMInHg},        // pressure low
		{"GV12", units.UOMInches},      // precipitation
		{"RAINRT", units.UOMInPerHour}, // rain rate
		{"SPEED", units.UOMMph},        // wind speed
	}
	if withGust {
		d = append(d, driverDef{"GV13", units.UOMMph})
	}
	return append(d,
		driverDef{"SOLRAD", units.UOMWattsPerM2},
		driverDef{"UV", units.UOMUVIndex},
		driverDef{"GV20", units.UOMInPerDay}, // ETo
	)
}
