package stage

import (
	"errors"
	"strings"
	"testing"

	"stage3d/internal/blob"
	"stage3d/internal/scene"
)

func newTestManager(t *testing.T) (*Manager, *blob.Store) {
	t.Helper()
	blobs, err := blob.NewMemStore()
	if err != nil {
		t.Fatalf("mem store: %v", err)
	}
	m, err := NewManager(blobs)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m, blobs
}

func TestCreateScenePersists(t *testing.T) {
	m, blobs := newTestManager(t)

	s, err := m.CreateScene("bouncing ball", scene.Metadata{Author: "tester"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(s.ID, "scene-") {
		t.Errorf("scene id %q, want scene- prefix", s.ID)
	}
	if s.Metadata.Created == "" {
		t.Error("created timestamp not stamped")
	}
	if !blobs.Exists("scenes/" + s.ID + "/scene.json") {
		t.Error("scene document not written to the store")
	}
}

func TestSceneNotFound(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Scene("scene-missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error %v (%T), want *NotFoundError", err, err)
	}
	if nf.Kind != "scene" || nf.ID != "scene-missing" {
		t.Errorf("not-found detail %+v", nf)
	}
}

func TestSceneReturnsIsolatedCopy(t *testing.T) {
	m, _ := newTestManager(t)
	created, err := m.CreateScene("copy test", scene.Metadata{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.AddObject(created.ID, scene.NewObject("ball", scene.ObjectSphere)); err != nil {
		t.Fatalf("add object: %v", err)
	}

	snap, err := m.Scene(created.ID)
	if err != nil {
		t.Fatalf("scene: %v", err)
	}
	// Mutating the snapshot must not leak into managed state.
	snap.Objects["ball"].Transform.Position = scene.Vector3{X: 99}
	snap.AddObject(scene.NewObject("intruder", scene.ObjectBox))

	fresh, err := m.Scene(created.ID)
	if err != nil {
		t.Fatalf("scene: %v", err)
	}
	if fresh.Objects["ball"].Transform.Position.X != 0 {
		t.Error("snapshot mutation leaked into the managed scene")
	}
	if _, ok := fresh.Object("intruder"); ok {
		t.Error("snapshot insertion leaked into the managed scene")
	}
}

func TestBindPhysicsValidatesBinding(t *testing.T) {
	m, _ := newTestManager(t)
	s, _ := m.CreateScene("bind test", scene.Metadata{})
	if err := m.AddObject(s.ID, scene.NewObject("ball", scene.ObjectSphere)); err != nil {
		t.Fatalf("add object: %v", err)
	}

	if err := m.BindPhysics(s.ID, "ball", "not a binding"); err == nil {
		t.Error("malformed binding accepted")
	}
	if err := m.BindPhysics(s.ID, "ball", "rapier://sim-1/body-ball"); err != nil {
		t.Fatalf("bind: %v", err)
	}

	// Rebind overwrites.
	if err := m.BindPhysics(s.ID, "ball", "rapier://sim-2/body-ball"); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	got, _ := m.Scene(s.ID)
	if got.Objects["ball"].PhysicsBinding != "rapier://sim-2/body-ball" {
		t.Errorf("binding %q after rebind", got.Objects["ball"].PhysicsBinding)
	}

	var nf *NotFoundError
	if err := m.BindPhysics(s.ID, "ghost", "rapier://sim-1/body-ghost"); !errors.As(err, &nf) {
		t.Errorf("bind to missing object: %v, want *NotFoundError", err)
	}
}

func TestShotLookup(t *testing.T) {
	m, _ := newTestManager(t)
	s, _ := m.CreateScene("shots", scene.Metadata{})

	shot := &scene.Shot{
		ID:         "shot-1",
		CameraPath: scene.CameraPath{Mode: scene.CameraOrbit, Focus: "ball"},
		StartTime:  0,
		EndTime:    4,
		Easing:     scene.DefaultShotEasing,
	}
	if err := m.AddShot(s.ID, shot); err != nil {
		t.Fatalf("add shot: %v", err)
	}

	got, err := m.Shot(s.ID, "shot-1")
	if err != nil {
		t.Fatalf("shot: %v", err)
	}
	if got.Duration() != 4 {
		t.Errorf("duration %v, want 4", got.Duration())
	}

	var nf *NotFoundError
	if _, err := m.Shot(s.ID, "shot-9"); !errors.As(err, &nf) {
		t.Errorf("missing shot: %v, want *NotFoundError", err)
	}
}

func TestManagerRebuildsIndexFromStore(t *testing.T) {
	blobs, err := blob.NewMemStore()
	if err != nil {
		t.Fatalf("mem store: %v", err)
	}

	m1, err := NewManager(blobs)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	s, err := m1.CreateScene("durable", scene.Metadata{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m1.AddObject(s.ID, scene.NewObject("ball", scene.ObjectSphere)); err != nil {
		t.Fatalf("add object: %v", err)
	}

	// A second manager over the same store sees the persisted scene.
	m2, err := NewManager(blobs)
	if err != nil {
		t.Fatalf("restart manager: %v", err)
	}
	got, err := m2.Scene(s.ID)
	if err != nil {
		t.Fatalf("scene after restart: %v", err)
	}
	if got.Name != "durable" {
		t.Errorf("name %q after restart", got.Name)
	}
	if _, ok := got.Object("ball"); !ok {
		t.Error("object lost across restart")
	}
}

func TestManagerSkipsCorruptSceneDocuments(t *testing.T) {
	blobs, err := blob.NewMemStore()
	if err != nil {
		t.Fatalf("mem store: %v", err)
	}
	if err := blobs.WriteText("scenes/scene-bad/scene.json", "{not json"); err != nil {
		t.Fatalf("seed corrupt doc: %v", err)
	}
	if err := blobs.WriteText("scenes/scene-ok/scene.json", `{"id":"scene-ok"}`); err != nil {
		t.Fatalf("seed good doc: %v", err)
	}

	m, err := NewManager(blobs)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	if _, err := m.Scene("scene-ok"); err != nil {
		t.Errorf("good scene not loaded: %v", err)
	}
	if _, err := m.Scene("scene-bad"); err == nil {
		t.Error("corrupt scene loaded")
	}
}
