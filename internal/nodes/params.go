package nodes

import (
	"sync"

	"github.com/chrissnell/weatherlink-ns/internal/host"
	"github.com/chrissnell/weatherlink-ns/pkg/weatherlink"
)

// Custom parameter names as shown in the host's configuration page
const (
	ParamUser      = "User"
	ParamPassword  = "Password"
	ParamAPIToken  = "API Token"
	ParamStationID = "Station ID"
	ParamUnits     = "Units"
)

// ParamSpec describes one user-editable parameter
type ParamSpec struct {
	Name     string
	Default  string
	Required bool
	Notice   string
}

// DefaultParamSpecs are the parameters the node server needs from the user
var DefaultParamSpecs = []ParamSpec{
	{Name: ParamUser, Default: weatherlink.Placeholder, Required: true, Notice: "User ID must be set"},
	{Name: ParamPassword, Default: weatherlink.Placeholder, Required: true, Notice: "Password must be set"},
	{Name: ParamAPIToken, Default: weatherlink.Placeholder, Required: true, Notice: "API Token must be set"},
	{Name: ParamStationID, Default: ""},
	{Name: ParamUnits, Default: "us"},
}

// Params tracks parameter values and whether the required ones are set
type Params struct {
	mu     sync.RWMutex
	specs  []ParamSpec
	values map[string]string
}

// NewParams creates a parameter set populated with defaults and then initial
func NewParams(specs []ParamSpec, initial map[string]string) *Params {
	p := &Params{
		specs:  specs,
		values: make(map[string]string, len(specs)),
	}
	for _, s := range specs {
		p.values[s.Name] = s.Default
	}
	for k, v := range initial {
		if _, ok := p.values[k]; ok && v != "" {
			p.values[k] = v
		}
	}
	return p
}

// Get returns the value of a parameter
func (p *Params) Get(name string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.values[name]
}

// Values returns a copy of every parameter value
func (p *Params) Values() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]string, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// Update merges parameters received from the host.  Unknown names are ignored;
// an empty value resets a parameter to its default.
func (p *Params) Update(custom host.CustomParams) (valid, changed bool) {
	p.mu.Lock()
	for _, s := range p.specs {
		v, ok := custom[s.Name]
		if !ok {
			continue
		}
		if v == "" {
			v = s.Default
		}
		if p.values[s.Name] != v {
			p.values[s.Name] = v
			changed = true
		}
	}
	p.mu.Unlock()

	return p.Valid(), changed
}

// Valid reports whether every required parameter has a real value
func (p *Params) Valid() bool {
	return len(p.Missing()) == 0
}

// Missing returns the specs of required parameters that are unset
func (p *Params) Missing() []ParamSpec {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var missing []ParamSpec
	for _, s := range p.specs {
		if !s.Required {
			continue
		}
		if v := p.values[s.Name]; v == "" || v == weatherlink.Placeholder {
			missing = append(missing, s)
		}
	}
	return missing
}

// Notices returns one host notice per missing required parameter
func (p *Params) Notices() []host.Notice {
	var out []host.Notice
	for _, s := range p.Missing() {
		out = append(out, host.Notice{Key: s.Name, Text: s.Notice})
	}
	return out
}
