// Package memory is an in-process Host that records everything the node
// server sends.  It backs dry runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/chrissnell/weatherlink-ns/internal/host"
)

// ReportedCommand is a command the node server reported on one of its nodes
type ReportedCommand struct {
	Address string
	Cmd     string
	Value   int
}

// Host records nodes, driver values, reported commands and notices
type Host struct {
	mu        sync.Mutex
	nodes     map[string]host.NodeDef
	drivers   map[string]map[string]host.Driver
	updates   int
	commands  []ReportedCommand
	notices   map[string]string
	onConfig  func(host.CustomParams)
	onCommand func(host.Command)
}

var _ host.Host = (*Host)(nil)

// New creates an empty in-memory host
func New() *Host {
	return &Host{
		nodes:   make(map[string]host.NodeDef),
		drivers: make(map[string]map[string]host.Driver),
		notices: make(map[string]string),
	}
}

func (h *Host) Start(ctx context.Context) error { return nil }

func (h *Host) Stop() {}

func (h *Host) AddNode(ctx context.Context, n host.NodeDef) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nodes[n.Address] = n
	if _, ok := h.drivers[n.Address]; !ok {
		h.drivers[n.Address] = make(map[string]host.Driver)
	}
	for _, d := range n.Drivers {
		h.drivers[n.Address][d.Name] = d
	}
	return nil
}

func (h *Host) SetDriver(ctx context.Context, address string, d host.Driver) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.drivers[address]; !ok {
		h.drivers[address] = make(map[string]host.Driver)
	}
	h.drivers[address][d.Name] = d
	h.updates++
	return nil
}

func (h *Host) ReportCommand(ctx context.Context, address, cmd string, value int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = append(h.commands, ReportedCommand{Address: address, Cmd: cmd, Value: value})
	return nil
}

func (h *Host) AddNotice(ctx context.Context, n host.Notice) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notices[n.Key] = n.Text
	return nil
}

func (h *Host) RemoveNoticesAll(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notices = make(map[string]string)
	return nil
}

func (h *Host) OnConfig(fn func(host.CustomParams)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onConfig = fn
}

func (h *Host) OnCommand(fn func(host.Command)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onCommand = fn
}

// SendConfig delivers custom params as if the user had saved them on the host
func (h *Host) SendConfig(p host.CustomParams) {
	h.mu.Lock()
	fn := h.onConfig
	h.mu.Unlock()
	if fn != nil {
		fn(p)
	}
}

// SendCommand delivers a command as if the user had issued it on the host
func (h *Host) SendCommand(c host.Command) {
	h.mu.Lock()
	fn := h.onCommand
	h.mu.Unlock()
	if fn != nil {
		fn(c)
	}
}

// Driver returns the last value recorded for address/driver
func (h *Host) Driver(address, name string) (host.Driver, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.drivers[address][name]
	return d, ok
}

// Drivers returns the drivers of a node sorted by name
func (h *Host) Drivers(address string) []host.Driver {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]host.Driver, 0, len(h.drivers[address]))
	for _, d := range h.drivers[address] {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Nodes returns the addresses of all added nodes, sorted
func (h *Host) Nodes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.nodes))
	for a := range h.nodes {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Node returns the definition a node was added with
func (h *Host) Node(address string) (host.NodeDef, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.nodes[address]
	return n, ok
}

// Updates returns the number of SetDriver calls received
func (h *Host) Updates() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.updates
}

// Commands returns the commands reported so far
func (h *Host) Commands() []ReportedCommand {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ReportedCommand(nil), h.commands...)
}

// Notices returns a copy of the active notices
func (h *Host) Notices() map[string]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]string, len(h.notices))
	for k, v := range h.notices {
		out[k] = v
	}
	return out
}
