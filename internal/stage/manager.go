// Package stage owns scene lifecycle: creation, mutation, persistence in
// the blob store, and the orchestration that turns physics bindings into
// baked keyframe animation. The Manager is constructed explicitly and
// passed by reference; there is no process-wide instance.
package stage

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"stage3d/internal/blob"
	"stage3d/internal/scene"
)

const (
	scenesDir = "scenes"
	sceneFile = "scene.json"
)

// NotFoundError identifies a missing scene, object or shot.
type NotFoundError struct {
	Kind string // "scene", "object", "shot"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// Manager manages scenes backed by a blob store. Each scene lives in its
// own namespace ("scenes/<id>/") holding the scene document, baked
// animation data and export output.
type Manager struct {
	mu     sync.Mutex
	blobs  *blob.Store
	scenes map[string]*scene.Scene
	log    *slog.Logger
}

// NewManager builds a manager over the given blob store and rebuilds its
// scene index from whatever the store already holds, so a persistent
// data directory survives restarts.
func NewManager(blobs *blob.Store) (*Manager, error) {
	m := &Manager{
		blobs:  blobs,
		scenes: make(map[string]*scene.Scene),
		log:    slog.Default(),
	}
	ids, err := blobs.List(scenesDir)
	if err != nil {
		return nil, fmt.Errorf("scan scene store: %w", err)
	}
	for _, id := range ids {
		doc, err := blobs.ReadText(scenesDir + "/" + id + "/" + sceneFile)
		if err != nil {
			m.log.Warn("skipping unreadable scene", "scene", id, "error", err)
			continue
		}
		s, err := scene.Decode([]byte(doc))
		if err != nil {
			m.log.Warn("skipping corrupt scene", "scene", id, "error", err)
			continue
		}
		m.scenes[s.ID] = s
	}
	if len(m.scenes) > 0 {
		m.log.Info("loaded scenes from store", "count", len(m.scenes))
	}
	return m, nil
}

// CreateScene makes a new scene with a generated id and persists it.
func (m *Manager) CreateScene(name string, meta scene.Metadata) (*scene.Scene, error) {
	id := "scene-" + uuid.NewString()[:8]
	if meta.Created == "" {
		meta.Created = time.Now().UTC().Format(time.RFC3339)
	}

	s := scene.New(id)
	s.Name = name
	s.Metadata = meta

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.save(s); err != nil {
		return nil, err
	}
	m.scenes[id] = s
	m.log.Info("scene created", "scene", id, "name", name)
	return snapshot(s)
}

// Scene returns a deep copy of a scene. Callers can inspect or serialize
// it freely without racing manager mutations.
func (m *Manager) Scene(id string) (*scene.Scene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return snapshot(s)
}

// AddObject inserts or replaces an object in a scene.
func (m *Manager) AddObject(sceneID string, obj *scene.Object) error {
	return m.mutate(sceneID, func(s *scene.Scene) error {
		s.AddObject(obj)
		return nil
	})
}

// SetEnvironment replaces the scene environment and, when non-nil, the
// lighting configuration.
func (m *Manager) SetEnvironment(sceneID string, env scene.Environment, lighting *scene.Lighting) error {
	return m.mutate(sceneID, func(s *scene.Scene) error {
		s.Environment = env
		if lighting != nil {
			s.Lighting = *lighting
		}
		return nil
	})
}

// AddShot inserts or replaces a shot in a scene.
func (m *Manager) AddShot(sceneID string, shot *scene.Shot) error {
	return m.mutate(sceneID, func(s *scene.Scene) error {
		s.AddShot(shot)
		return nil
	})
}

// Shot returns a copy of one shot.
func (m *Manager) Shot(sceneID, shotID string) (*scene.Shot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(sceneID)
	if err != nil {
		return nil, err
	}
	sh, ok := s.Shot(shotID)
	if !ok {
		return nil, &NotFoundError{Kind: "shot", ID: shotID}
	}
	out := *sh
	return &out, nil
}

// BindPhysics attaches a physics body reference to an object. The
// binding string is validated by parsing; a rebind overwrites the
// previous one.
func (m *Manager) BindPhysics(sceneID, objectID, binding string) error {
	if _, err := scene.ParseBodyRef(binding); err != nil {
		return err
	}
	return m.mutate(sceneID, func(s *scene.Scene) error {
		obj, ok := s.Object(objectID)
		if !ok {
			return &NotFoundError{Kind: "object", ID: objectID}
		}
		obj.PhysicsBinding = binding
		return nil
	})
}

// SetBakedAnimation records bake metadata for an object.
func (m *Manager) SetBakedAnimation(sceneID string, anim *scene.BakedAnimation) error {
	return m.mutate(sceneID, func(s *scene.Scene) error {
		if _, ok := s.Object(anim.ObjectID); !ok {
			return &NotFoundError{Kind: "object", ID: anim.ObjectID}
		}
		s.BakedAnimations[anim.ObjectID] = anim
		return nil
	})
}

// SceneBlob returns the blob namespace for a scene's workspace.
func (m *Manager) SceneBlob(sceneID string) (*blob.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.lookup(sceneID); err != nil {
		return nil, err
	}
	return m.blobs.Sub(scenesDir + "/" + sceneID), nil
}

// mutate runs fn on the live scene under the lock and persists the
// result when fn succeeds.
func (m *Manager) mutate(sceneID string, fn func(*scene.Scene) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(sceneID)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	return m.save(s)
}

// lookup must be called with the lock held.
func (m *Manager) lookup(id string) (*scene.Scene, error) {
	s, ok := m.scenes[id]
	if !ok {
		return nil, &NotFoundError{Kind: "scene", ID: id}
	}
	return s, nil
}

// save must be called with the lock held.
func (m *Manager) save(s *scene.Scene) error {
	doc, err := s.Encode()
	if err != nil {
		return err
	}
	return m.blobs.WriteText(scenesDir+"/"+s.ID+"/"+sceneFile, string(doc))
}

// snapshot deep-copies a scene so callers never share mutable state with
// the manager.
func snapshot(s *scene.Scene) (*scene.Scene, error) {
	var out scene.Scene
	if err := copier.CopyWithOption(&out, s, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("copy scene %s: %w", s.ID, err)
	}
	return &out, nil
}
