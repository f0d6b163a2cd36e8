package nodes

import (
	"strings"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Pressure trend codes published on GV16
const (
	TrendFallingRapidly = 0
	TrendFallingSlowly  = 1
	TrendSteady         = 2
	TrendRisingSlowly   = 3
	TrendRisingRapidly  = 4
)

var tendencies = map[string]int{
	"falling rapidly": TrendFallingRapidly,
	"falling slowly":  TrendFallingSlowly,
	"steady":          TrendSteady,
	"rising slowly":   TrendRisingSlowly,
	"rising rapidly":  TrendRisingRapidly,
}

// TrendFromTendency maps WeatherLink's pressure_tendency_string onto a trend code
func TrendFromTendency(s string) (int, bool) {
	t, ok := tendencies[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

// Change over three hours, in inHg, that separates steady/slow/rapid
const (
	slowChange  = 0.06
	rapidChange = 0.18

	trendWindow     = time.Hour
	minTrendSamples = 3
)

type pressureSample struct {
	at   time.Time
	inHg float64
}

// pressureHistory keeps the last hour of barometer readings so a trend can be
// derived when the vendor omits the tendency string
type pressureHistory struct {
	mu      sync.Mutex
	samples []pressureSample
}

func (p *pressureHistory) add(at time.Time, inHg float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.samples = append(p.samples, pressureSample{at: at, inHg: inHg})
	cutoff := at.Add(-trendWindow)
	i := 0
	for i < len(p.samples) && p.samples[i].at.Before(cutoff) {
		i++
	}
	p.samples = p.samples[i:]
}

// trend fits a line through the window and scales its slope to a three hour change
func (p *pressureHistory) trend() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.samples) < minTrendSamples {
		return TrendSteady
	}

	t0 := p.samples[0].at
	xs := make([]float64, len(p.samples))
	ys := make([]float64, len(p.samples))
	for i, s := range p.samples {
		xs[i] = s.at.Sub(t0).Hours()
		ys[i] = s.inHg
	}
	if xs[len(xs)-1] == 0 {
		return TrendSteady
	}

	_, slope := stat.LinearRegression(xs, ys, nil, false)
	change := slope * 3

	switch {
	case change <= -rapidChange:
		return TrendFallingRapidly
	case change <= -slowChange:
		return TrendFallingSlowly
	case change >= rapidChange:
		return TrendRisingRapidly
	case change >= slowChange:
		return TrendRisingSlowly
	default:
		return TrendSteady
	}
}
