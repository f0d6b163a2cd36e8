package restserver

import (
	"github.com/chrissnell/weatherlink-ns/internal/host"
	"github.com/chrissnell/weatherlink-ns/internal/nodes"
)

func transformNode(n *nodes.Node) NodeResponse {
	def := n.Def()
	resp := NodeResponse{
		Address: def.Address,
		Primary: def.Primary,
		Name:    def.Name,
		NodeDef: def.NodeDefID,
		Units:   n.Units().String(),
		Drivers: make([]DriverResponse, 0, len(def.Drivers)),
	}
	for _, d := range def.Drivers {
		resp.Drivers = append(resp.Drivers, transformDriver(d))
	}
	return resp
}

func transformDriver(d host.Driver) DriverResponse {
	return DriverResponse{Driver: d.Name, Value: d.Value, UOM: d.UOM}
}
