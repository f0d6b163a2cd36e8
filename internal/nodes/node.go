// Package nodes holds the weather nodes published to the host and the
// tables that map WeatherLink payload fields onto their drivers.
package nodes

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chrissnell/weatherlink-ns/internal/host"
	"github.com/chrissnell/weatherlink-ns/pkg/units"
	"github.com/chrissnell/weatherlink-ns/pkg/weatherlink"
	"go.uber.org/zap"
)

// Published values are rounded to this many decimal places
const precision = 2

// ChangeFunc is called after a driver value was accepted by the host
type ChangeFunc func(address string, d host.Driver)

// Node is a virtual device on the host with a fixed set of drivers
type Node struct {
	address   string
	primary   string
	name      string
	nodeDefID string
	hint      [4]int

	host     host.Host
	logger   *zap.SugaredLogger
	onChange ChangeFunc

	mu        sync.Mutex
	system    units.System
	order     []string
	defaults  map[string]units.UOM
	drivers   map[string]host.Driver
	sent      map[string]host.Driver
	stale     map[string]bool
	fieldSets []fieldSet
}

func newNode(h host.Host, logger *zap.SugaredLogger, address, primary, name, nodeDefID string, hint [4]int, defs []driverDef, sets ...fieldSet) *Node {
	n := &Node{
		address:   address,
		primary:   primary,
		name:      name,
		nodeDefID: nodeDefID,
		hint:      hint,
		host:      h,
		logger:    logger,
		defaults:  make(map[string]units.UOM, len(defs)),
		drivers:   make(map[string]host.Driver, len(defs)),
		sent:      make(map[string]host.Driver, len(defs)),
		stale:     make(map[string]bool),
		fieldSets: sets,
	}
	for _, d := range defs {
		n.order = append(n.order, d.name)
		n.defaults[d.name] = d.uom
		n.drivers[d.name] = host.Driver{Name: d.name, UOM: d.uom}
	}
	return n
}

// NewDayNode creates the daily observations node
func NewDayNode(h host.Host, logger *zap.SugaredLogger, primary string) *Node {
	return newNode(h, logger, "day", primary, "Daily Observations", "day", [4]int{1, 11, 4, 0},
		periodDrivers(true), fieldSet{fields: periodFields("day", true), source: currentBlock})
}

// NewMonthNode creates the month-to-date observations node
func NewMonthNode(h host.Host, logger *zap.SugaredLogger, primary string) *Node {
	return newNode(h, logger, "month", primary, "Month Observations", "month", [4]int{1, 11, 4, 0},
		periodDrivers(false), fieldSet{fields: periodFields("month", false), source: currentBlock})
}

// NewYearNode creates the year-to-date observations node
func NewYearNode(h host.Host, logger *zap.SugaredLogger, primary string) *Node {
	return newNode(h, logger, "year", primary, "Yearly Observations", "year", [4]int{1, 11, 4, 0},
		periodDrivers(false), fieldSet{fields: periodFields("year", false), source: currentBlock})
}

// Address returns the node address
func (n *Node) Address() string { return n.address }

// Name returns the node's display name
func (n *Node) Name() string { return n.name }

// SetChangeFunc registers a callback for accepted driver updates
func (n *Node) SetChangeFunc(fn ChangeFunc) {
	n.mu.Lock()
	n.onChange = fn
	n.mu.Unlock()
}

// SetUnits switches the node's unit system and re-assigns every driver's UOM.
// Drivers missing from the unit table keep their declared default.  A driver
// whose UOM changes loses its cached value; it is stale until the next update.
func (n *Node) SetUnits(s units.System) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.logger.Debugf("node [%s] units set to %s", n.address, s)
	n.system = s
	for name, d := range n.drivers {
		uom := n.uomFor(name)
		if uom == d.UOM {
			continue
		}
		if _, sent := n.sent[name]; sent {
			n.stale[name] = true
			delete(n.sent, name)
		}
		n.drivers[name] = host.Driver{Name: name, UOM: uom}
	}
}

// Stale reports whether a driver's value was dropped by a unit change and has
// not been updated since
func (n *Node) Stale(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stale[name]
}

// Units returns the node's unit system
func (n *Node) Units() units.System {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.system
}

func (n *Node) uomFor(driver string) units.UOM {
	if u, ok := units.Lookup(n.system, driver); ok {
		return u
	}
	return n.defaults[driver]
}

// Def returns the node definition with the current driver values
func (n *Node) Def() host.NodeDef {
	return host.NodeDef{
		Address:   n.address,
		Primary:   n.primary,
		Name:      n.name,
		NodeDefID: n.nodeDefID,
		Hint:      n.hint,
		Drivers:   n.Snapshot(),
	}
}

// Snapshot returns the node's drivers in declaration order
func (n *Node) Snapshot() []host.Driver {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]host.Driver, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.drivers[name])
	}
	return out
}

// Driver returns a single driver
func (n *Node) Driver(name string) (host.Driver, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	d, ok := n.drivers[name]
	return d, ok
}

// UpdateDriver rounds value, assigns the driver's UOM and sends it to the host
// when the value or UOM changed since the last successful update, or when force
// is set.
func (n *Node) UpdateDriver(ctx context.Context, name string, value float64, force bool) error {
	n.mu.Lock()
	if _, ok := n.drivers[name]; !ok {
		n.mu.Unlock()
		return fmt.Errorf("node [%s] has no driver %s", n.address, name)
	}

	d := host.Driver{Name: name, Value: units.Round(value, precision), UOM: n.uomFor(name)}
	last, sent := n.sent[name]
	if !force && sent && last == d {
		n.mu.Unlock()
		return nil
	}
	onChange := n.onChange
	n.mu.Unlock()

	if err := n.host.SetDriver(ctx, n.address, d); err != nil {
		return fmt.Errorf("node [%s] driver %s: %w", n.address, name, err)
	}

	n.mu.Lock()
	last, sent = n.sent[name]
	changed := !sent || last != d
	n.drivers[name] = d
	n.sent[name] = d
	delete(n.stale, name)
	n.mu.Unlock()

	if changed && onChange != nil {
		onChange(n.address, d)
	}
	return nil
}

// ReportDrivers re-sends every driver to the host.  Stale drivers are skipped.
func (n *Node) ReportDrivers(ctx context.Context) error {
	var errs []error
	for _, d := range n.Snapshot() {
		if n.Stale(d.Name) {
			continue
		}
		if err := n.UpdateDriver(ctx, d.Name, d.Value, true); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Parse applies every mapped field found in obs.  Missing keys are skipped;
// malformed values are logged and skipped without affecting other fields.
// It returns the number of drivers that were read from the payload.
func (n *Node) Parse(ctx context.Context, obs weatherlink.Observation) int {
	n.logger.Debugf("parsing observation for node [%s]", n.address)

	system := n.Units()
	applied := 0
	for _, set := range n.fieldSets {
		src := set.source(obs)
		for _, f := range set.fields {
			v, err := src.Float(f.key(system))
			if errors.Is(err, weatherlink.ErrFieldMissing) {
				continue
			}
			if err != nil {
				n.logger.Errorf("parse failure for %s: %v", n.address, err)
				continue
			}
			if system == units.Metric && f.Convert != nil {
				v = f.Convert(v)
			}
			if err := n.UpdateDriver(ctx, f.Driver, v, false); err != nil {
				n.logger.Errorf("update failure for %s: %v", n.address, err)
				continue
			}
			applied++
		}
	}
	return applied
}
