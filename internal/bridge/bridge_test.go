package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// newTestBridge points an open bridge at a test server.
func newTestBridge(t *testing.T, handler http.Handler) *Bridge {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b := New(srv.URL)
	if err := b.Open(); err != nil {
		t.Fatalf("open bridge: %v", err)
	}
	t.Cleanup(b.Close)
	return b
}

func trajectoryJSON(frames ...map[string]any) []byte {
	data, _ := json.Marshal(map[string]any{"frames": frames})
	return data
}

func TestBakeRequestShape(t *testing.T) {
	var gotPath string
	var gotReq trajectoryRequest

	b := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write(trajectoryJSON(
			map[string]any{"time": 0.0, "position": []float64{0, 5, 0}, "orientation": []float64{0, 0, 0, 1}},
			map[string]any{"time": 0.016667, "position": []float64{0, 4.99, 0}, "orientation": []float64{0, 0, 0, 1}},
		))
	}))

	baked, err := b.Bake(context.Background(), "sim-abc123", []string{"ball"}, 60, 5.0)
	if err != nil {
		t.Fatalf("bake: %v", err)
	}

	if gotPath != "/simulations/sim-abc123/bodies/ball/trajectory" {
		t.Errorf("endpoint path %q", gotPath)
	}
	if gotReq.Steps != 300 {
		t.Errorf("steps = %d, want 300 (5s at 60 fps)", gotReq.Steps)
	}
	if gotReq.Dt != 1.0/60.0 {
		t.Errorf("dt = %v, want 1/60", gotReq.Dt)
	}
	if len(baked["ball"]) != 2 {
		t.Fatalf("got %d keyframes for ball, want 2", len(baked["ball"]))
	}
}

func TestBakeFallbackWindow(t *testing.T) {
	var gotReq trajectoryRequest
	b := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write(trajectoryJSON(
			map[string]any{"time": 0.0, "position": []float64{0, 0, 0}, "orientation": []float64{0, 0, 0, 1}},
		))
	}))

	// No duration: the configured window (default 10s) decides the steps.
	if _, err := b.Bake(context.Background(), "sim-1", []string{"ball"}, 60, 0); err != nil {
		t.Fatalf("bake: %v", err)
	}
	if gotReq.Steps != 600 {
		t.Errorf("steps = %d, want 600 (10s window at 60 fps)", gotReq.Steps)
	}
}

func TestBakeRenamesOrientationAndDefaultsVelocity(t *testing.T) {
	b := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(trajectoryJSON(
			map[string]any{"time": 0.0, "position": []float64{1, 2, 3}, "orientation": []float64{0.1, 0.2, 0.3, 0.9}},
			map[string]any{"time": 0.1, "position": []float64{1, 2, 3}, "orientation": []float64{0, 0, 0, 1}, "velocity": []float64{4, 5, 6}},
		))
	}))

	baked, err := b.Bake(context.Background(), "sim-1", []string{"cube"}, 60, 1.0)
	if err != nil {
		t.Fatalf("bake: %v", err)
	}
	frames := baked["cube"]
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}

	if frames[0].Rotation != [4]float64{0.1, 0.2, 0.3, 0.9} {
		t.Errorf("rotation = %v, want the wire orientation values", frames[0].Rotation)
	}
	if frames[0].Velocity != [3]float64{0, 0, 0} {
		t.Errorf("velocity = %v, want zero default", frames[0].Velocity)
	}
	if frames[1].Velocity != [3]float64{4, 5, 6} {
		t.Errorf("velocity = %v, want wire value", frames[1].Velocity)
	}
}

func TestBakeEmptyBodyListMakesNoRequests(t *testing.T) {
	var calls atomic.Int32
	b := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	baked, err := b.Bake(context.Background(), "sim-1", nil, 60, 1.0)
	if err != nil {
		t.Fatalf("bake: %v", err)
	}
	if len(baked) != 0 {
		t.Errorf("got %d entries, want empty map", len(baked))
	}
	if calls.Load() != 0 {
		t.Errorf("made %d network calls, want 0", calls.Load())
	}
}

func TestBakeTransportFailureAbortsBatch(t *testing.T) {
	var calls atomic.Int32
	b := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n == 1 {
			w.Write(trajectoryJSON(
				map[string]any{"time": 0.0, "position": []float64{0, 0, 0}, "orientation": []float64{0, 0, 0, 1}},
			))
			return
		}
		http.Error(w, "simulation exploded", http.StatusInternalServerError)
	}))

	baked, err := b.Bake(context.Background(), "sim-1", []string{"a", "b", "c"}, 60, 1.0)
	if err == nil {
		t.Fatal("expected transport error")
	}
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error %T, want *TransportError", err)
	}
	if te.BodyID != "b" {
		t.Errorf("failed body %q, want b", te.BodyID)
	}
	if baked != nil {
		t.Error("got partial results, want nil on failure")
	}
	if calls.Load() != 2 {
		t.Errorf("made %d calls, want 2 (abort after first failure)", calls.Load())
	}
}

func TestBakeDecodeFailures(t *testing.T) {
	tests := []struct {
		name  string
		frame map[string]any
	}{
		{"missing time", map[string]any{"position": []float64{0, 0, 0}, "orientation": []float64{0, 0, 0, 1}}},
		{"missing position", map[string]any{"time": 0.0, "orientation": []float64{0, 0, 0, 1}}},
		{"short orientation", map[string]any{"time": 0.0, "position": []float64{0, 0, 0}, "orientation": []float64{0, 0, 1}}},
		{"short velocity", map[string]any{"time": 0.0, "position": []float64{0, 0, 0}, "orientation": []float64{0, 0, 0, 1}, "velocity": []float64{1}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write(trajectoryJSON(tc.frame))
			}))
			_, err := b.Bake(context.Background(), "sim-1", []string{"ball"}, 60, 1.0)
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("error %v (%T), want *DecodeError", err, err)
			}
		})
	}
}

func TestBakeBeforeOpenFails(t *testing.T) {
	b := New("http://localhost:1")
	_, err := b.Bake(context.Background(), "sim-1", []string{"ball"}, 60, 1.0)
	if !errors.Is(err, ErrNotOpen) {
		t.Fatalf("error %v, want ErrNotOpen", err)
	}
}

func TestBakeEmptyTrajectoryIsNotAnError(t *testing.T) {
	b := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"frames": []}`))
	}))
	baked, err := b.Bake(context.Background(), "sim-1", []string{"ball"}, 60, 1.0)
	if err != nil {
		t.Fatalf("bake: %v", err)
	}
	if frames, ok := baked["ball"]; !ok || len(frames) != 0 {
		t.Errorf("got %v, want an empty sequence recorded for ball", baked)
	}
}

func TestServiceURLResolution(t *testing.T) {
	t.Setenv("RAPIER_SERVICE_URL", "")
	t.Setenv("RAPIER_URL", "")

	if b := New(""); b.ServiceURL != "https://rapier.chukai.io" {
		t.Errorf("default URL %q", b.ServiceURL)
	}

	t.Setenv("RAPIER_URL", "http://alias:9000")
	if b := New(""); b.ServiceURL != "http://alias:9000" {
		t.Errorf("alias URL %q", b.ServiceURL)
	}

	t.Setenv("RAPIER_SERVICE_URL", "http://primary:9000")
	if b := New(""); b.ServiceURL != "http://primary:9000" {
		t.Errorf("primary URL %q", b.ServiceURL)
	}

	if b := New("http://explicit:9000"); b.ServiceURL != "http://explicit:9000" {
		t.Errorf("explicit URL %q", b.ServiceURL)
	}
}
