// Package host defines the contract between the node server and the
// home-automation controller that hosts it.
package host

import (
	"context"

	"github.com/chrissnell/weatherlink-ns/pkg/units"
)

// Driver is a single named attribute of a node
type Driver struct {
	Name  string    `json:"driver"`
	Value float64   `json:"value"`
	UOM   units.UOM `json:"uom"`
}

// NodeDef describes a node to be created on the host
type NodeDef struct {
	Address   string   `json:"address"`
	Primary   string   `json:"primary"`
	Name      string   `json:"name"`
	NodeDefID string   `json:"node_def_id"`
	Hint      [4]int   `json:"hint"`
	Drivers   []Driver `json:"drivers"`
}

// Notice is a message shown to the user in the host's UI
type Notice struct {
	Key  string `json:"key"`
	Text string `json:"value"`
}

// Command is a request sent from the host to one of our nodes
type Command struct {
	Address string `json:"address"`
	Cmd     string `json:"cmd"`
	Value   string `json:"value,omitempty"`
}

// CustomParams are the user-editable parameters stored by the host
type CustomParams map[string]string

// Host is the plugin API exposed by the home-automation controller
type Host interface {
	Start(ctx context.Context) error
	Stop()

	AddNode(ctx context.Context, n NodeDef) error
	SetDriver(ctx context.Context, address string, d Driver) error
	ReportCommand(ctx context.Context, address, cmd string, value int) error

	AddNotice(ctx context.Context, n Notice) error
	RemoveNoticesAll(ctx context.Context) error

	OnConfig(func(CustomParams))
	OnCommand(func(Command))
}
