package nodes

import (
	"context"
	"math"
	"testing"

	"github.com/chrissnell/weatherlink-ns/internal/host"
	"github.com/chrissnell/weatherlink-ns/internal/host/memory"
	"github.com/chrissnell/weatherlink-ns/pkg/units"
	"github.com/chrissnell/weatherlink-ns/pkg/weatherlink"
	"go.uber.org/zap"
)

var nop = zap.NewNop().Sugar()

func dayObservation() weatherlink.Observation {
	return weatherlink.Observation{
		"davis_current_observation": map[string]any{
			"temp_day_high_f":              "80.0",
			"temp_day_low_f":               "50.0",
			"dewpoint_day_high_f":          "55.4",
			"relative_humidity_day_high":   "90",
			"pressure_day_high_in":         "30.000",
			"rain_day_in":                  "1.00",
			"rain_rate_day_high_in_per_hr": "0.50",
			"wind_day_high_mph":            "10",
			"wind_ten_min_gust_mph":        "20",
			"solar_radiation_day_high":     "850",
			"uv_index_day_high":            "6.1",
			"et_day":                       "0.2",
			"windchill_day_low_f":          "N/A",
		},
	}
}

func TestDayNodeParseUS(t *testing.T) {
	h := memory.New()
	n := NewDayNode(h, nop, ControllerAddress)
	n.SetUnits(units.US)

	applied := n.Parse(context.Background(), dayObservation())
	if applied != 12 {
		t.Errorf("Parse() applied %d fields, want 12", applied)
	}

	tests := []struct {
		driver string
		value  float64
		uom    units.UOM
	}{
		{"GV0", 80, units.UOMFahrenheit},
		{"GV1", 50, units.UOMFahrenheit},
		{"GV2", 55.4, units.UOMFahrenheit},
		{"GV8", 90, units.UOMPercent},
		{"GV10", 30, units.UOMInHg},
		{"GV12", 1, units.UOMInches},
		{"RAINRT", 0.5, units.UOMInPerHour},
		{"SPEED", 10, units.UOMMph},
		{"GV13", 20, units.UOMMph},
		{"SOLRAD", 850, units.UOMWattsPerM2},
		{"UV", 6.1, units.UOMUVIndex},
		{"GV20", 0.2, units.UOMInPerDay},
	}

	for _, tt := range tests {
		d, ok := h.Driver("day", tt.driver)
		if !ok {
			t.Errorf("driver %s not published", tt.driver)
			continue
		}
		if d.Value != tt.value || d.UOM != tt.uom {
			t.Errorf("driver %s = %v (uom %d), want %v (uom %d)", tt.driver, d.Value, d.UOM, tt.value, tt.uom)
		}
	}

	// Malformed and missing keys leave drivers untouched
	for _, name := range []string{"GV5", "GV3", "GV4", "GV9", "GV11"} {
		if _, ok := h.Driver("day", name); ok {
			t.Errorf("driver %s published without data", name)
		}
	}
}

func TestDayNodeParseMetric(t *testing.T) {
	h := memory.New()
	n := NewDayNode(h, nop, ControllerAddress)
	n.SetUnits(units.Metric)
	n.Parse(context.Background(), dayObservation())

	tests := []struct {
		driver string
		value  float64
		uom    units.UOM
	}{
		{"GV0", 26.67, units.UOMCelsius},
		{"GV1", 10, units.UOMCelsius},
		{"GV2", 13, units.UOMCelsius},
		{"GV8", 90, units.UOMPercent},
		{"GV10", 1015.92, units.UOMMb},
		{"GV12", 25.4, units.UOMMm},
		{"RAINRT", 12.7, units.UOMMmPerHour},
		{"SPEED", 16.09, units.UOMKph},
		{"GV13", 32.19, units.UOMKph},
		{"SOLRAD", 850, units.UOMWattsPerM2},
		{"GV20", 5.08, units.UOMMmPerDay},
	}

	for _, tt := range tests {
		d, ok := h.Driver("day", tt.driver)
		if !ok {
			t.Errorf("driver %s not published", tt.driver)
			continue
		}
		if math.Abs(d.Value-tt.value) > 0.005 || d.UOM != tt.uom {
			t.Errorf("driver %s = %v (uom %d), want %v (uom %d)", tt.driver, d.Value, d.UOM, tt.value, tt.uom)
		}
	}
}

func TestMonthAndYearNodes(t *testing.T) {
	obs := weatherlink.Observation{
		"davis_current_observation": map[string]any{
			"temp_month_high_f":     "88.1",
			"rain_month_in":         "2.5",
			"temp_year_low_f":       "-4.0",
			"et_year":               "30.1",
			"wind_ten_min_gust_mph": "25",
		},
	}

	h := memory.New()
	month := NewMonthNode(h, nop, ControllerAddress)
	year := NewYearNode(h, nop, ControllerAddress)
	month.Parse(context.Background(), obs)
	year.Parse(context.Background(), obs)

	if d, _ := h.Driver("month", "GV0"); d.Value != 88.1 {
		t.Errorf("month GV0 = %v, want 88.1", d.Value)
	}
	if d, _ := h.Driver("month", "GV12"); d.Value != 2.5 {
		t.Errorf("month GV12 = %v, want 2.5", d.Value)
	}
	if d, _ := h.Driver("year", "GV1"); d.Value != -4 {
		t.Errorf("year GV1 = %v, want -4", d.Value)
	}
	if d, _ := h.Driver("year", "GV20"); d.Value != 30.1 {
		t.Errorf("year GV20 = %v, want 30.1", d.Value)
	}

	// Gusts are only published on the day node
	for _, n := range []*Node{month, year} {
		if _, ok := n.Driver("GV13"); ok {
			t.Errorf("node %s declares GV13", n.Address())
		}
	}
}

func TestUpdateDriverDeduplicates(t *testing.T) {
	h := memory.New()
	n := NewDayNode(h, nop, ControllerAddress)
	ctx := context.Background()

	var changes []host.Driver
	n.SetChangeFunc(func(address string, d host.Driver) { changes = append(changes, d) })

	for _, v := range []float64{70, 70.001, 70} {
		if err := n.UpdateDriver(ctx, "GV0", v, false); err != nil {
			t.Fatalf("UpdateDriver() error = %v", err)
		}
	}
	if h.Updates() != 1 {
		t.Errorf("host received %d updates, want 1", h.Updates())
	}

	if err := n.UpdateDriver(ctx, "GV0", 70, true); err != nil {
		t.Fatalf("UpdateDriver(force) error = %v", err)
	}
	if h.Updates() != 2 {
		t.Errorf("forced update not sent, host updates = %d", h.Updates())
	}

	// A unit change re-publishes even with the same value
	n.SetUnits(units.Metric)
	if err := n.UpdateDriver(ctx, "GV0", 70, false); err != nil {
		t.Fatalf("UpdateDriver() error = %v", err)
	}
	if h.Updates() != 3 {
		t.Errorf("UOM change not sent, host updates = %d", h.Updates())
	}

	if len(changes) != 2 {
		t.Errorf("change callback fired %d times, want 2", len(changes))
	}

	if err := n.UpdateDriver(ctx, "NOPE", 1, false); err == nil {
		t.Error("UpdateDriver() on unknown driver returned nil error")
	}
}

func TestSetUnitsAssignsUOMs(t *testing.T) {
	n := NewYearNode(memory.New(), nop, ControllerAddress)

	n.SetUnits(units.Metric)
	for _, d := range n.Snapshot() {
		want, _ := units.Lookup(units.Metric, d.Name)
		if d.UOM != want {
			t.Errorf("metric %s uom = %d, want %d", d.Name, d.UOM, want)
		}
	}

	n.SetUnits(units.US)
	if d, _ := n.Driver("GV10"); d.UOM != units.UOMInHg {
		t.Errorf("US GV10 uom = %d, want %d", d.UOM, units.UOMInHg)
	}
}

func TestReportDrivers(t *testing.T) {
	h := memory.New()
	n := NewMonthNode(h, nop, ControllerAddress)

	if err := n.ReportDrivers(context.Background()); err != nil {
		t.Fatalf("ReportDrivers() error = %v", err)
	}
	if h.Updates() != len(n.Snapshot()) {
		t.Errorf("ReportDrivers sent %d updates, want %d", h.Updates(), len(n.Snapshot()))
	}
}
