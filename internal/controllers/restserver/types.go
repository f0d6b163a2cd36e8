package restserver

import (
	"time"

	"github.com/chrissnell/weatherlink-ns/internal/types"
	"github.com/chrissnell/weatherlink-ns/pkg/units"
)

// HealthResponse is returned by /healthz
type HealthResponse struct {
	Status     string            `json:"status"`
	Configured bool              `json:"configured"`
	LastPoll   *time.Time        `json:"last_poll,omitempty"`
	LastError  string            `json:"last_error,omitempty"`
	Uptime     string            `json:"uptime"`
	Storage    map[string]string `json:"storage,omitempty"`
}

// NodeResponse represents a node and its drivers for JSON output
type NodeResponse struct {
	Address string           `json:"address"`
	Primary string           `json:"primary"`
	Name    string           `json:"name"`
	NodeDef string           `json:"nodedef"`
	Units   string           `json:"units"`
	Drivers []DriverResponse `json:"drivers"`
}

// DriverResponse represents a single driver for JSON output
type DriverResponse struct {
	Driver string    `json:"driver"`
	Value  float64   `json:"value"`
	UOM    units.UOM `json:"uom"`
}

// HistoryResponse is returned by the driver history endpoint
type HistoryResponse struct {
	Address  string                `json:"address"`
	Driver   string                `json:"driver"`
	Since    time.Time             `json:"since"`
	Readings []types.DriverReading `json:"readings"`
}

// QueryResponse is returned after a query was sent to the host
type QueryResponse struct {
	Status string `json:"status"`
}
