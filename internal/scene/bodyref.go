package scene

import (
	"fmt"
	"strings"
)

// BodyRef is a parsed physics binding: a weak reference from a scene
// object to a body inside an external simulation. The canonical string
// form is "scheme://{simulation_id}/body-{body_id}", e.g.
// "rapier://sim-abc123/body-ball".
type BodyRef struct {
	Scheme       string
	SimulationID string
	BodyID       string
}

const bodyPrefix = "body-"

// ParseBodyRef parses a binding string into its parts. The body id is
// the segment after the last '/' with the "body-" prefix stripped.
func ParseBodyRef(s string) (BodyRef, error) {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok || scheme == "" {
		return BodyRef{}, fmt.Errorf("physics binding %q: missing scheme", s)
	}
	slash := strings.LastIndex(rest, "/")
	if slash <= 0 {
		return BodyRef{}, fmt.Errorf("physics binding %q: missing body segment", s)
	}
	sim, body := rest[:slash], rest[slash+1:]
	body = strings.TrimPrefix(body, bodyPrefix)
	if body == "" {
		return BodyRef{}, fmt.Errorf("physics binding %q: empty body id", s)
	}
	return BodyRef{Scheme: scheme, SimulationID: sim, BodyID: body}, nil
}

// String reassembles the canonical binding form.
func (r BodyRef) String() string {
	return r.Scheme + "://" + r.SimulationID + "/" + bodyPrefix + r.BodyID
}
