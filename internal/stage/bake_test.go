package stage

import (
	"context"
	"errors"
	"testing"

	"stage3d/internal/bridge"
	"stage3d/internal/scene"
)

// stubSource records the bake call it receives and serves canned frames.
type stubSource struct {
	simulationID string
	bodyIDs      []string
	fps          int
	duration     float64

	frames map[string][]bridge.Keyframe
	err    error
}

func (s *stubSource) Bake(_ context.Context, simulationID string, bodyIDs []string, fps int, duration float64) (map[string][]bridge.Keyframe, error) {
	s.simulationID = simulationID
	s.bodyIDs = bodyIDs
	s.fps = fps
	s.duration = duration
	if s.err != nil {
		return nil, s.err
	}
	return s.frames, nil
}

func newBakeScene(t *testing.T) (*Manager, string) {
	t.Helper()
	m, _ := newTestManager(t)
	s, err := m.CreateScene("bake test", scene.Metadata{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ball := scene.NewObject("ball", scene.ObjectSphere)
	ball.PhysicsBinding = "rapier://sim-1/body-ball"
	if err := m.AddObject(s.ID, ball); err != nil {
		t.Fatalf("add ball: %v", err)
	}

	cube := scene.NewObject("cube", scene.ObjectBox)
	cube.PhysicsBinding = "rapier://sim-1/body-cube"
	if err := m.AddObject(s.ID, cube); err != nil {
		t.Fatalf("add cube: %v", err)
	}

	floor := scene.NewObject("floor", scene.ObjectPlane)
	if err := m.AddObject(s.ID, floor); err != nil {
		t.Fatalf("add floor: %v", err)
	}
	return m, s.ID
}

func someFrames(n int) []bridge.Keyframe {
	out := make([]bridge.Keyframe, n)
	for i := range out {
		out[i] = bridge.Keyframe{
			Time:     float64(i) / 60.0,
			Rotation: [4]float64{0, 0, 0, 1},
		}
	}
	return out
}

func TestBakeSimulation(t *testing.T) {
	m, sceneID := newBakeScene(t)
	src := &stubSource{frames: map[string][]bridge.Keyframe{
		"ball": someFrames(300),
		"cube": someFrames(120),
	}}

	result, err := m.BakeSimulation(context.Background(), src, sceneID, "sim-1", 60, 5.0)
	if err != nil {
		t.Fatalf("bake: %v", err)
	}

	if src.simulationID != "sim-1" || src.fps != 60 || src.duration != 5.0 {
		t.Errorf("source called with sim=%q fps=%d duration=%v", src.simulationID, src.fps, src.duration)
	}
	// Bound objects sorted by id; the floor is unbound and excluded.
	if len(src.bodyIDs) != 2 || src.bodyIDs[0] != "ball" || src.bodyIDs[1] != "cube" {
		t.Errorf("body ids %v, want [ball cube]", src.bodyIDs)
	}

	if result.SceneID != sceneID || result.FPS != 60 {
		t.Errorf("result header %+v", result)
	}
	if len(result.BakedObjects) != 2 {
		t.Errorf("baked objects %v", result.BakedObjects)
	}
	if result.TotalFrames != 300 {
		t.Errorf("total frames %d, want the max across bodies", result.TotalFrames)
	}

	// Keyframes land in the scene workspace.
	workspace, err := m.SceneBlob(sceneID)
	if err != nil {
		t.Fatalf("workspace: %v", err)
	}
	doc, err := workspace.ReadText("/animations/ball.json")
	if err != nil {
		t.Fatalf("read baked data: %v", err)
	}
	frames, err := bridge.DecodeKeyframes([]byte(doc))
	if err != nil {
		t.Fatalf("decode baked data: %v", err)
	}
	if len(frames) != 300 {
		t.Errorf("persisted %d frames, want 300", len(frames))
	}

	// Metadata recorded on the scene.
	got, err := m.Scene(sceneID)
	if err != nil {
		t.Fatalf("scene: %v", err)
	}
	anim := got.BakedAnimations["cube"]
	if anim == nil {
		t.Fatal("no baked animation metadata for cube")
	}
	if anim.Source != "sim-1" || anim.FPS != 60 || anim.Frames != 120 || anim.DataPath != "/animations/cube.json" {
		t.Errorf("metadata %+v", anim)
	}
}

func TestBakeSimulationNoBoundObjects(t *testing.T) {
	m, sceneID := newBakeScene(t)
	src := &stubSource{frames: map[string][]bridge.Keyframe{}}

	_, err := m.BakeSimulation(context.Background(), src, sceneID, "sim-other", 60, 5.0)
	var nb *NoBoundObjectsError
	if !errors.As(err, &nb) {
		t.Fatalf("error %v (%T), want *NoBoundObjectsError", err, err)
	}
	if nb.SimulationID != "sim-other" {
		t.Errorf("simulation %q", nb.SimulationID)
	}
	if src.simulationID != "" {
		t.Error("source was called despite zero bindings")
	}
}

func TestBakeSimulationSourceFailureLeavesSceneUntouched(t *testing.T) {
	m, sceneID := newBakeScene(t)
	src := &stubSource{err: &bridge.TransportError{BodyID: "cube", Err: errors.New("boom")}}

	_, err := m.BakeSimulation(context.Background(), src, sceneID, "sim-1", 60, 5.0)
	var te *bridge.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error %v (%T), want *TransportError", err, err)
	}

	got, _ := m.Scene(sceneID)
	if len(got.BakedAnimations) != 0 {
		t.Errorf("scene gained %d baked animations on a failed bake", len(got.BakedAnimations))
	}
	workspace, _ := m.SceneBlob(sceneID)
	if workspace.Exists("/animations/ball.json") {
		t.Error("keyframe data written on a failed bake")
	}
}

func TestBakeSimulationDefaultsFPS(t *testing.T) {
	m, sceneID := newBakeScene(t)
	src := &stubSource{frames: map[string][]bridge.Keyframe{"ball": someFrames(1), "cube": someFrames(1)}}

	result, err := m.BakeSimulation(context.Background(), src, sceneID, "sim-1", 0, 5.0)
	if err != nil {
		t.Fatalf("bake: %v", err)
	}
	if src.fps != 60 || result.FPS != 60 {
		t.Errorf("fps source=%d result=%d, want the 60 fps default", src.fps, result.FPS)
	}
}
