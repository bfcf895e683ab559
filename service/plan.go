package service

import (
	"strconv"

	"github.com/fallwind/s-node/util/common"
)

// PortPlan assigns the configured public ports to protocols. A zero
// port means the protocol is not offered in this run.
//
// One port: the chosen UDP protocol and the subscription HTTP server
// share its number (UDP and TCP respectively), reality is off. Two or
// more ports: tuic and reality share the first, hysteria2 and HTTP
// share the second, extra ports are ignored.
type PortPlan struct {
	SinglePort bool
	Tuic       int
	Hy2        int
	Reality    int
	HTTP       int
}

// Mode is the label used in banners and run history.
func (p *PortPlan) Mode() string {
	if !p.SinglePort {
		return "multi port (TUIC + HY2 + Reality + Argo)"
	}
	if p.Tuic != 0 {
		return "single port (TUIC + Argo)"
	}
	return "single port (HY2 + Argo)"
}

func parsePort(raw string) (int, error) {
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return 0, common.NewError("invalid port: ", raw)
	}
	return port, nil
}

// ResolvePortPlan maps the port list onto a plan. udpProto decides the
// single-port protocol, "hy2" or "tuic".
func ResolvePortPlan(ports []string, udpProto string) (*PortPlan, error) {
	if len(ports) == 0 {
		return nil, common.NewError("no ports to plan")
	}

	first, err := parsePort(ports[0])
	if err != nil {
		return nil, err
	}

	if len(ports) == 1 {
		plan := &PortPlan{
			SinglePort: true,
			HTTP:       first,
		}
		if udpProto == "tuic" {
			plan.Tuic = first
		} else {
			plan.Hy2 = first
		}
		return plan, nil
	}

	second, err := parsePort(ports[1])
	if err != nil {
		return nil, err
	}

	return &PortPlan{
		Tuic:    first,
		Reality: first,
		Hy2:     second,
		HTTP:    second,
	}, nil
}
