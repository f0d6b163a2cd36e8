package nodes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/chrissnell/weatherlink-ns/internal/host"
	"github.com/chrissnell/weatherlink-ns/pkg/units"
	"github.com/chrissnell/weatherlink-ns/pkg/weatherlink"
	"go.uber.org/zap"
)

// ControllerAddress is the address of the primary node
const ControllerAddress = "wl"

// Host commands handled by the controller
const (
	CmdDiscover         = "DISCOVER"
	CmdUpdateProfile    = "UPDATE_PROFILE"
	CmdRemoveNoticesAll = "REMOVE_NOTICES_ALL"
	CmdDebug            = "DEBUG"
	CmdQuery            = "QUERY"
)

// Fetcher retrieves one WeatherLink observation
type Fetcher interface {
	Fetch(ctx context.Context) (weatherlink.Observation, error)
}

// FetcherFactory builds a Fetcher from the current parameters
type FetcherFactory func(p map[string]string) (Fetcher, error)

// LevelFunc changes the log level.  level uses the host's numbering
// (10 debug, 20 info, 30 warning, 40 error).
type LevelFunc func(level int) error

// ParamsFunc persists parameters after the host changed them
type ParamsFunc func(p map[string]string) error

// ControllerOptions configure a Controller
type ControllerOptions struct {
	Params     *Params
	NewFetcher FetcherFactory
	SetLevel   LevelFunc
	OnChange   ChangeFunc
	SaveParams ParamsFunc
	Now        func() time.Time
}

// Controller is the primary node.  It publishes current conditions and owns
// the day, month and year nodes.
type Controller struct {
	*Node

	host       host.Host
	logger     *zap.SugaredLogger
	params     *Params
	newFetcher FetcherFactory
	setLevel   LevelFunc
	saveParams ParamsFunc
	now        func() time.Time

	children []*Node
	pressure pressureHistory

	pollMu sync.Mutex

	mu         sync.Mutex
	configured bool
	fetcher    Fetcher
	hb         int
	lastPoll   time.Time
	lastErr    error
}

// NewController creates the controller and its child nodes
func NewController(h host.Host, logger *zap.SugaredLogger, opts ControllerOptions) *Controller {
	if opts.Params == nil {
		opts.Params = NewParams(DefaultParamSpecs, nil)
	}
	if opts.NewFetcher == nil {
		opts.NewFetcher = WeatherLinkFetcher(logger)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := &Controller{
		Node: newNode(h, logger, ControllerAddress, ControllerAddress, "WeatherLink", "WeatherLink", [4]int{1, 11, 0, 0},
			controllerDrivers,
			fieldSet{fields: currentFields, source: topLevel},
			fieldSet{fields: currentExtendedFields, source: currentBlock},
		),
		host:       h,
		logger:     logger,
		params:     opts.Params,
		newFetcher: opts.NewFetcher,
		setLevel:   opts.SetLevel,
		saveParams: opts.SaveParams,
		now:        opts.Now,
	}
	c.children = []*Node{
		NewDayNode(h, logger, ControllerAddress),
		NewMonthNode(h, logger, ControllerAddress),
		NewYearNode(h, logger, ControllerAddress),
	}

	for _, n := range c.Nodes() {
		n.SetChangeFunc(opts.OnChange)
	}

	return c
}

// WeatherLinkFetcher returns a FetcherFactory backed by the WeatherLink cloud API
func WeatherLinkFetcher(logger *zap.SugaredLogger, opts ...weatherlink.Option) FetcherFactory {
	return func(p map[string]string) (Fetcher, error) {
		creds := weatherlink.Credentials{
			User:     p[ParamUser],
			Password: p[ParamPassword],
			APIToken: p[ParamAPIToken],
		}
		return weatherlink.NewClient(creds, append(opts, weatherlink.WithLogger(logger))...)
	}
}

// Nodes returns the controller followed by its children
func (c *Controller) Nodes() []*Node {
	return append([]*Node{c.Node}, c.children...)
}

// NodeByAddress looks up a node
func (c *Controller) NodeByAddress(address string) (*Node, bool) {
	for _, n := range c.Nodes() {
		if n.Address() == address {
			return n, true
		}
	}
	return nil, false
}

// Configured reports whether all required parameters are set
func (c *Controller) Configured() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.configured
}

// LastPoll returns the time of the last successful poll and the last poll error
func (c *Controller) LastPoll() (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPoll, c.lastErr
}

// Start validates the parameters, adds the nodes to the host and performs an
// initial poll when configured
func (c *Controller) Start(ctx context.Context) error {
	c.logger.Info("Starting Davis WeatherLink node server")

	c.host.OnConfig(func(p host.CustomParams) { c.ProcessConfig(ctx, p) })
	c.host.OnCommand(func(cmd host.Command) {
		if err := c.HandleCommand(ctx, cmd); err != nil {
			c.logger.Errorf("command %s failed: %v", cmd.Cmd, err)
		}
	})

	c.checkParams(ctx)
	c.applyUnits()

	if err := c.Discover(ctx); err != nil {
		return err
	}

	if err := c.UpdateDriver(ctx, "ST", 1, true); err != nil {
		c.logger.Warnf("could not report node server status: %v", err)
	}

	if c.Configured() {
		if err := c.ShortPoll(ctx); err != nil {
			c.logger.Errorf("initial poll failed: %v", err)
		}
	}
	return nil
}

func (c *Controller) checkParams(ctx context.Context) {
	if err := c.host.RemoveNoticesAll(ctx); err != nil {
		c.logger.Warnf("could not clear notices: %v", err)
	}

	if c.params.Valid() {
		c.logger.Debug("All required parameters are set!")
		c.setConfigured(true)
		return
	}

	c.logger.Debug("Configuration required.")
	c.setConfigured(false)
	c.sendNotices(ctx)
}

func (c *Controller) sendNotices(ctx context.Context) {
	for _, n := range c.params.Notices() {
		if err := c.host.AddNotice(ctx, n); err != nil {
			c.logger.Warnf("could not send notice %s: %v", n.Key, err)
		}
	}
}

func (c *Controller) setConfigured(v bool) {
	c.mu.Lock()
	c.configured = v
	// Credentials may have changed; the next poll builds a new client
	c.fetcher = nil
	c.mu.Unlock()
}

func (c *Controller) applyUnits() {
	s := units.ParseSystem(c.params.Get(ParamUnits))
	for _, n := range c.Nodes() {
		n.SetUnits(s)
	}
}

// Discover adds every node to the host
func (c *Controller) Discover(ctx context.Context) error {
	for _, n := range c.Nodes() {
		if err := c.host.AddNode(ctx, n.Def()); err != nil {
			return fmt.Errorf("could not add node %s: %w", n.Address(), err)
		}
	}
	return nil
}

// ProcessConfig merges parameters received from the host
func (c *Controller) ProcessConfig(ctx context.Context, p host.CustomParams) {
	before := c.Units()
	valid, changed := c.params.Update(p)

	switch {
	case changed && !valid:
		c.logger.Debug("-- configuration not yet valid")
		if err := c.host.RemoveNoticesAll(ctx); err != nil {
			c.logger.Warnf("could not clear notices: %v", err)
		}
		c.setConfigured(false)
		c.sendNotices(ctx)
	case changed && valid:
		c.logger.Debug("-- configuration is valid")
		if err := c.host.RemoveNoticesAll(ctx); err != nil {
			c.logger.Warnf("could not clear notices: %v", err)
		}
		c.setConfigured(true)
	case valid:
		c.logger.Debug("-- configuration not changed, but is valid")
	}

	if !changed {
		return
	}
	c.applyUnits()
	if c.saveParams != nil {
		if err := c.saveParams(c.params.Values()); err != nil {
			c.logger.Warnf("could not save parameters: %v", err)
		}
	}

	// Cached values are in the old units; fetch them again in the new ones
	if c.Units() != before && c.Configured() {
		if err := c.ShortPoll(ctx); err != nil {
			c.logger.Errorf("poll after units change failed: %v", err)
		}
	}
}

// ShortPoll fetches a new observation and updates every node
func (c *Controller) ShortPoll(ctx context.Context) error {
	if !c.Configured() {
		return nil
	}

	c.pollMu.Lock()
	defer c.pollMu.Unlock()

	obs, err := c.fetch(ctx)
	c.mu.Lock()
	c.lastErr = err
	if err == nil {
		c.lastPoll = c.now()
	}
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	c.parseCurrentConditions(ctx, obs)
	for _, n := range c.children {
		n.Parse(ctx, obs)
	}
	return nil
}

func (c *Controller) fetch(ctx context.Context) (weatherlink.Observation, error) {
	c.mu.Lock()
	f := c.fetcher
	c.mu.Unlock()

	if f == nil {
		var err error
		f, err = c.newFetcher(c.params.Values())
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.fetcher = f
		c.mu.Unlock()
	}

	return f.Fetch(ctx)
}

func (c *Controller) parseCurrentConditions(ctx context.Context, obs weatherlink.Observation) {
	c.Node.Parse(ctx, obs)

	system := c.Units()
	if p, err := obs.Float(pressureField.key(system)); err == nil {
		if system == units.Metric {
			p = units.MbToInHg(p)
		}
		c.pressure.add(c.now(), p)
	}

	trend := c.pressure.trend()
	if s, ok := obs.Current().String("pressure_tendency_string"); ok {
		if t, known := TrendFromTendency(s); known {
			trend = t
		} else {
			c.logger.Debugf("unknown pressure tendency %q, using barometer history", s)
		}
	}
	if err := c.UpdateDriver(ctx, "GV16", float64(trend), false); err != nil {
		c.logger.Errorf("Parsing failed, current conditions: %v", err)
	}
}

// LongPoll sends the heartbeat, alternating DON and DOF
func (c *Controller) LongPoll(ctx context.Context) error {
	c.mu.Lock()
	cmd := "DON"
	if c.hb != 0 {
		cmd = "DOF"
	}
	c.hb = 1 - c.hb
	c.mu.Unlock()

	c.logger.Debugf("heartbeat %s", cmd)
	return c.host.ReportCommand(ctx, c.Address(), cmd, 2)
}

// Query re-reports the drivers of every node
func (c *Controller) Query(ctx context.Context) error {
	var errs []error
	for _, n := range c.Nodes() {
		if err := n.ReportDrivers(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HandleCommand executes a command sent by the host
func (c *Controller) HandleCommand(ctx context.Context, cmd host.Command) error {
	switch cmd.Cmd {
	case CmdDiscover:
		return c.Discover(ctx)
	case CmdUpdateProfile:
		c.logger.Info("update_profile: profile upload is handled by the host")
		return nil
	case CmdRemoveNoticesAll:
		c.logger.Info("remove_notices_all")
		return c.host.RemoveNoticesAll(ctx)
	case CmdDebug:
		level, err := strconv.Atoi(cmd.Value)
		if err != nil {
			return fmt.Errorf("invalid log level %q", cmd.Value)
		}
		if c.setLevel == nil {
			return nil
		}
		c.logger.Infof("set_logging_level: Setting log level to %d", level)
		return c.setLevel(level)
	case CmdQuery:
		if cmd.Address == "" || cmd.Address == c.Address() {
			return c.Query(ctx)
		}
		n, ok := c.NodeByAddress(cmd.Address)
		if !ok {
			return fmt.Errorf("unknown node %s", cmd.Address)
		}
		return n.ReportDrivers(ctx)
	default:
		return fmt.Errorf("unknown command %s", cmd.Cmd)
	}
}
