// Package bridge fetches trajectory samples from a remote physics
// service and converts them into keyframe sequences that drive scene
// animation. It owns one outbound HTTP session with explicit open/close
// semantics and provides pure interpolation over any keyframe sequence.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stage3d/internal/config"
)

// ErrNotOpen is returned when Bake is called before Open. This is a
// programming error in the caller, not a recoverable condition.
var ErrNotOpen = errors.New("bridge: client not initialized; call Open before Bake")

// TransportError wraps a network, timeout or non-2xx failure talking to
// the physics service.
type TransportError struct {
	BodyID string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch trajectory for body %q: %v", e.BodyID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError marks a response that arrived but is missing required
// frame fields. Required fields are never coerced to defaults; only
// velocity has a documented default.
type DecodeError struct {
	BodyID string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode trajectory for body %q: %s", e.BodyID, e.Reason)
}

// Bridge is a session to the physics service. Construct with New,
// establish the session with Open, release it with Close. A Bridge is
// not safe for concurrent Bake calls; keyframe sequences it returns are
// owned by the caller and never touched again.
type Bridge struct {
	// ServiceURL is the base URL of the physics service.
	ServiceURL string
	// Timeout is the per-request timeout on the session.
	Timeout time.Duration
	// Window is the duration, in seconds, requested when Bake gets no
	// explicit duration.
	Window float64

	client *http.Client
	log    *slog.Logger
}

// New builds a bridge for the given service URL. An empty URL resolves
// through the environment (RAPIER_SERVICE_URL, then RAPIER_URL) and
// falls back to the public default endpoint.
func New(serviceURL string) *Bridge {
	if serviceURL == "" {
		serviceURL = config.ServiceURL()
	}
	return &Bridge{
		ServiceURL: strings.TrimRight(serviceURL, "/"),
		Timeout:    config.ServiceTimeout(),
		Window:     config.DefaultBakeWindow,
		log:        slog.Default(),
	}
}

// Open establishes the HTTP session. Calling Open twice is a no-op.
func (b *Bridge) Open() error {
	if b.client != nil {
		return nil
	}
	if b.ServiceURL == "" {
		return errors.New("bridge: no physics service URL configured")
	}
	b.client = &http.Client{Timeout: b.Timeout}
	b.log.Info("physics bridge opened", "service", b.ServiceURL, "timeout", b.Timeout)
	return nil
}

// Close releases the session. The bridge can be reopened afterwards.
func (b *Bridge) Close() {
	if b.client != nil {
		b.client.CloseIdleConnections()
		b.client = nil
	}
}

// trajectoryRequest is the wire request for one body fetch.
type trajectoryRequest struct {
	Steps int     `json:"steps"`
	Dt    float64 `json:"dt"`
}

// wireFrame is one frame as the service reports it. Pointers and slices
// distinguish "absent" from zero so required fields can be enforced.
type wireFrame struct {
	Time        *float64  `json:"time"`
	Position    []float64 `json:"position"`
	Orientation []float64 `json:"orientation"`
	Velocity    []float64 `json:"velocity"`
}

type trajectoryResponse struct {
	Frames []wireFrame `json:"frames"`
}

// Bake fetches trajectories for the given bodies of a simulation and
// returns a keyframe sequence per body id.
//
// Each body is fetched independently and sequentially; the first
// transport or decode failure aborts the whole bake and is returned
// as-is — no partial map is ever handed back. An empty bodyIDs list
// returns an empty map without touching the network. fps defaults to 60
// when non-positive. duration <= 0 requests the configured fallback
// window instead.
func (b *Bridge) Bake(ctx context.Context, simulationID string, bodyIDs []string, fps int, duration float64) (map[string][]Keyframe, error) {
	if b.client == nil {
		return nil, ErrNotOpen
	}
	if fps <= 0 {
		fps = config.DefaultFPS
	}

	baked := make(map[string][]Keyframe, len(bodyIDs))
	if len(bodyIDs) == 0 {
		return baked, nil
	}

	window := duration
	if window <= 0 {
		window = b.Window
	}
	steps := int(math.Round(window * float64(fps)))
	dt := 1.0 / float64(fps)

	b.log.Info("baking simulation", "simulation", simulationID, "bodies", len(bodyIDs), "fps", fps, "steps", steps)

	for _, bodyID := range bodyIDs {
		frames, err := b.fetchTrajectory(ctx, simulationID, bodyID, steps, dt)
		if err != nil {
			b.log.Error("bake aborted", "simulation", simulationID, "body", bodyID, "error", err)
			return nil, err
		}
		if len(frames) == 0 {
			// The service reported success with no samples. Suspicious,
			// but not fatal here; the caller sees the zero frame count.
			b.log.Warn("empty trajectory", "simulation", simulationID, "body", bodyID)
		}
		baked[bodyID] = frames
	}
	return baked, nil
}

func (b *Bridge) fetchTrajectory(ctx context.Context, simulationID, bodyID string, steps int, dt float64) ([]Keyframe, error) {
	endpoint := fmt.Sprintf("%s/simulations/%s/bodies/%s/trajectory",
		b.ServiceURL, url.PathEscape(simulationID), url.PathEscape(bodyID))

	payload, err := json.Marshal(trajectoryRequest{Steps: steps, Dt: dt})
	if err != nil {
		return nil, fmt.Errorf("marshal trajectory request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build trajectory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &TransportError{BodyID: bodyID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{BodyID: bodyID, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var tr trajectoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, &DecodeError{BodyID: bodyID, Reason: fmt.Sprintf("invalid response body: %v", err)}
	}

	frames := make([]Keyframe, 0, len(tr.Frames))
	for i, wf := range tr.Frames {
		kf, err := convertFrame(bodyID, i, wf)
		if err != nil {
			return nil, err
		}
		frames = append(frames, kf)
	}
	return frames, nil
}

// convertFrame validates one wire frame and renames the service's
// "orientation" to the keyframe "rotation".
func convertFrame(bodyID string, index int, wf wireFrame) (Keyframe, error) {
	switch {
	case wf.Time == nil:
		return Keyframe{}, &DecodeError{BodyID: bodyID, Reason: fmt.Sprintf("frame %d: missing time", index)}
	case len(wf.Position) != 3:
		return Keyframe{}, &DecodeError{BodyID: bodyID, Reason: fmt.Sprintf("frame %d: position needs 3 components, got %d", index, len(wf.Position))}
	case len(wf.Orientation) != 4:
		return Keyframe{}, &DecodeError{BodyID: bodyID, Reason: fmt.Sprintf("frame %d: orientation needs 4 components, got %d", index, len(wf.Orientation))}
	case wf.Velocity != nil && len(wf.Velocity) != 3:
		return Keyframe{}, &DecodeError{BodyID: bodyID, Reason: fmt.Sprintf("frame %d: velocity needs 3 components, got %d", index, len(wf.Velocity))}
	}

	kf := Keyframe{
		Time:     *wf.Time,
		Position: [3]float64{wf.Position[0], wf.Position[1], wf.Position[2]},
		Rotation: [4]float64{wf.Orientation[0], wf.Orientation[1], wf.Orientation[2], wf.Orientation[3]},
	}
	if wf.Velocity != nil {
		kf.Velocity = [3]float64{wf.Velocity[0], wf.Velocity[1], wf.Velocity[2]}
	}
	return kf, nil
}
