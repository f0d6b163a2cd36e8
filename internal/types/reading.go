// Package types holds data types shared between the node server and its
// storage backends.
package types

import (
	"time"

	"github.com/chrissnell/weatherlink-ns/internal/host"
	"github.com/chrissnell/weatherlink-ns/pkg/units"
)

// DriverReading is one accepted driver update
type DriverReading struct {
	Time    time.Time `gorm:"column:time;not null" json:"time" msgpack:"time"`
	Station string    `gorm:"column:station" json:"station" msgpack:"station"`
	Node    string    `gorm:"column:node;not null" json:"node" msgpack:"node"`
	Driver  string    `gorm:"column:driver;not null" json:"driver" msgpack:"driver"`
	Value   float64   `gorm:"column:value" json:"value" msgpack:"value"`
	UOM     units.UOM `gorm:"column:uom" json:"uom" msgpack:"uom"`
}

// TableName implements the Tabler interface for the DriverReading struct
func (DriverReading) TableName() string {
	return "driver_readings"
}

// NewDriverReading builds a reading for a driver accepted on node
func NewDriverReading(at time.Time, station, node string, d host.Driver) DriverReading {
	return DriverReading{
		Time:    at,
		Station: station,
		Node:    node,
		Driver:  d.Name,
		Value:   d.Value,
		UOM:     d.UOM,
	}
}
