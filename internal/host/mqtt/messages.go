package mqtt

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/chrissnell/weatherlink-ns/internal/host"
)

// Outbound messages carry the profile number in "node" plus exactly one payload key
type outbound struct {
	Node             int          `json:"node"`
	Status           *statusMsg   `json:"status,omitempty"`
	AddNode          *addNodeMsg  `json:"addnode,omitempty"`
	Command          *commandMsg  `json:"command,omitempty"`
	AddNotice        *host.Notice `json:"addnotice,omitempty"`
	RemoveNoticesAll *struct{}    `json:"removenoticesall,omitempty"`
	Connected        *bool        `json:"connected,omitempty"`
}

type statusMsg struct {
	Address string `json:"address"`
	Driver  string `json:"driver"`
	Value   string `json:"value"`
	UOM     int    `json:"uom"`
}

type addNodeMsg struct {
	Nodes []nodeMsg `json:"nodes"`
}

type nodeMsg struct {
	Address   string      `json:"address"`
	Name      string      `json:"name"`
	NodeDefID string      `json:"node_def_id"`
	Primary   string      `json:"primary"`
	Hint      string      `json:"hint"`
	Drivers   []statusMsg `json:"drivers"`
}

type commandMsg struct {
	Address string `json:"address"`
	Command string `json:"command"`
	Value   string `json:"value"`
}

// inbound is what the host sends to the node server
type inbound struct {
	Config *struct {
		CustomParams map[string]any `json:"customParams"`
	} `json:"config,omitempty"`
	Command *struct {
		Address string `json:"address"`
		Cmd     string `json:"cmd"`
		Value   any    `json:"value"`
	} `json:"command,omitempty"`
	Query *struct {
		Address string `json:"address"`
	} `json:"query,omitempty"`
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func encodeStatus(profile int, address string, d host.Driver) ([]byte, error) {
	return json.Marshal(outbound{
		Node: profile,
		Status: &statusMsg{
			Address: address,
			Driver:  d.Name,
			Value:   formatValue(d.Value),
			UOM:     int(d.UOM),
		},
	})
}

func encodeAddNode(profile int, n host.NodeDef) ([]byte, error) {
	nm := nodeMsg{
		Address:   n.Address,
		Name:      n.Name,
		NodeDefID: n.NodeDefID,
		Primary:   n.Primary,
		Hint:      fmt.Sprintf("0x%02x%02x%02x%02x", n.Hint[0], n.Hint[1], n.Hint[2], n.Hint[3]),
		Drivers:   make([]statusMsg, 0, len(n.Drivers)),
	}
	for _, d := range n.Drivers {
		nm.Drivers = append(nm.Drivers, statusMsg{
			Address: n.Address,
			Driver:  d.Name,
			Value:   formatValue(d.Value),
			UOM:     int(d.UOM),
		})
	}
	return json.Marshal(outbound{Node: profile, AddNode: &addNodeMsg{Nodes: []nodeMsg{nm}}})
}

func encodeCommand(profile int, address, cmd string, value int) ([]byte, error) {
	return json.Marshal(outbound{
		Node:    profile,
		Command: &commandMsg{Address: address, Command: cmd, Value: strconv.Itoa(value)},
	})
}

func encodeNotice(profile int, n host.Notice) ([]byte, error) {
	return json.Marshal(outbound{Node: profile, AddNotice: &n})
}

func encodeRemoveNoticesAll(profile int) ([]byte, error) {
	return json.Marshal(outbound{Node: profile, RemoveNoticesAll: &struct{}{}})
}

func encodeConnected(profile int, connected bool) ([]byte, error) {
	return json.Marshal(outbound{Node: profile, Connected: &connected})
}

// decodeInbound turns a host message into at most one config update and any
// number of commands.  Unknown message types are ignored.
func decodeInbound(payload []byte) (host.CustomParams, []host.Command, error) {
	var in inbound
	if err := json.Unmarshal(payload, &in); err != nil {
		return nil, nil, fmt.Errorf("invalid host message: %w", err)
	}

	var params host.CustomParams
	if in.Config != nil {
		params = make(host.CustomParams, len(in.Config.CustomParams))
		for k, v := range in.Config.CustomParams {
			switch s := v.(type) {
			case string:
				params[k] = s
			case nil:
				params[k] = ""
			default:
				params[k] = fmt.Sprint(s)
			}
		}
	}

	var cmds []host.Command
	if in.Command != nil {
		c := host.Command{Address: in.Command.Address, Cmd: in.Command.Cmd}
		if in.Command.Value != nil {
			c.Value = fmt.Sprint(in.Command.Value)
		}
		cmds = append(cmds, c)
	}
	if in.Query != nil {
		cmds = append(cmds, host.Command{Address: in.Query.Address, Cmd: "QUERY"})
	}

	return params, cmds, nil
}
