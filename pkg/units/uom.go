package units

// UOM is the host's numeric unit-of-measure code for a driver value
type UOM int

// Host unit-of-measure codes used by the weather nodes
const (
	UOMIndex      UOM = 25
	UOMBoolean    UOM = 2
	UOMCelsius    UOM = 4
	UOMFahrenheit UOM = 17
	UOMPercent    UOM = 22
	UOMInHg       UOM = 23
	UOMInPerHour  UOM = 24
	UOMKph        UOM = 32
	UOMMmPerHour  UOM = 46
	UOMMph        UOM = 48
	UOMMps        UOM = 49
	UOMDecibel    UOM = 56
	UOMUVIndex    UOM = 71
	UOMWattsPerM2 UOM = 74
	UOMDegrees    UOM = 76
	UOMMm         UOM = 82
	UOMKm         UOM = 83
	UOMInches     UOM = 105
	UOMMmPerDay   UOM = 106
	UOMMiles      UOM = 116
	UOMMb         UOM = 117
	UOMInPerDay   UOM = 120
)

var usTable = map[string]UOM{
	"ST":      UOMBoolean,
	"CLITEMP": UOMFahrenheit,
	"CLIHUM":  UOMPercent,
	"BARPRES": UOMInHg,
	"WINDDIR": UOMDegrees,
	"DEWPT":   UOMFahrenheit,
	"SOLRAD":  UOMWattsPerM2,
	"RAINRT":  UOMInPerHour,
	"SPEED":   UOMMph,
	"DISTANC": UOMMiles,
	"UV":      UOMUVIndex,
	"GV0":     UOMFahrenheit, // max temp
	"GV1":     UOMFahrenheit, // min temp
	"GV2":     UOMFahrenheit, // max dewpoint
	"GV3":     UOMFahrenheit, // min dewpoint
	"GV4":     UOMFahrenheit, // heat index
	"GV5":     UOMFahrenheit, // windchill
	"GV6":     UOMInches,
	"GV7":     UOMMph,
	"GV8":     UOMPercent, // humidity high
	"GV9":     UOMPercent, // humidity low
	"GV10":    UOMInHg,    // pressure high
	"GV11":    UOMInHg,    // pressure low
	"GV12":    UOMInches,  // precipitation
	"GV13":    UOMMph,     // gust
	"GV14":    UOMPercent,
	"GV15":    UOMInches,
	"GV16":    UOMIndex, // pressure trend
	"GV17":    UOMDecibel,
	"GV18":    UOMPercent,
	"GV19":    UOMIndex,
	"GV20":    UOMInPerDay, // ETo
}

var metricTable = map[string]UOM{
	"ST":      UOMBoolean,
	"CLITEMP": UOMCelsius,
	"CLIHUM":  UOMPercent,
	"BARPRES": UOMMb,
	"WINDDIR": UOMDegrees,
	"DEWPT":   UOMCelsius,
	"SOLRAD":  UOMWattsPerM2,
	"RAINRT":  UOMMmPerHour,
	"SPEED":   UOMKph,
	"DISTANC": UOMKm,
	"UV":      UOMUVIndex,
	"GV0":     UOMCelsius,
	"GV1":     UOMCelsius,
	"GV2":     UOMCelsius,
	"GV3":     UOMCelsius,
	"GV4":     UOMCelsius,
	"GV5":     UOMCelsius,
	"GV6":     UOMMm,
	"GV7":     UOMMps,
	"GV8":     UOMPercent,
	"GV9":     UOMPercent,
	"GV10":    UOMMb,
	"GV11":    UOMMb,
	"GV12":    UOMMm,
	"GV13":    UOMKph,
	"GV14":    UOMPercent,
	"GV15":    UOMMm,
	"GV16":    UOMIndex,
	"GV17":    UOMDecibel,
	"GV18":    UOMPercent,
	"GV19":    UOMIndex,
	"GV20":    UOMMmPerDay,
}

// UOMTable returns a copy of the driver name to UOM table for the given system
func UOMTable(s System) map[string]UOM {
	src := usTable
	if s == Metric {
		src = metricTable
	}
	t := make(map[string]UOM, len(src))
	for k, v := range src {
		t[k] = v
	}
	return t
}

// Lookup returns the UOM for a single driver, and whether the driver is known
func Lookup(s System, driver string) (UOM, bool) {
	if s == Metric {
		u, ok := metricTable[driver]
		return u, ok
	}
	u, ok := usTable[driver]
	return u, ok
}
