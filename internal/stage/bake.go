package stage

import (
	"context"
	"sort"

	"stage3d/internal/bridge"
	"stage3d/internal/config"
	"stage3d/internal/scene"
)

// TrajectorySource fetches keyframe sequences for simulation bodies.
// *bridge.Bridge is the production implementation; tests substitute
// stubs.
type TrajectorySource interface {
	Bake(ctx context.Context, simulationID string, bodyIDs []string, fps int, duration float64) (map[string][]bridge.Keyframe, error)
}

// NoBoundObjectsError is the domain error for a bake request against a
// scene with no matching physics bindings. It is raised before any
// network call is made.
type NoBoundObjectsError struct {
	SimulationID string
}

func (e *NoBoundObjectsError) Error() string {
	return "no objects bound to simulation " + e.SimulationID
}

// BakeResult reports what a bake run produced.
type BakeResult struct {
	SceneID      string   `json:"scene_id"`
	BakedObjects []string `json:"baked_objects"`
	TotalFrames  int      `json:"total_frames"` // max frame count across bodies
	FPS          int      `json:"fps"`
}

// BakeSimulation fetches trajectories for every object bound to the
// given simulation, persists each body's keyframes into the scene
// workspace under /animations/<object_id>.json, and records per-object
// BakedAnimation metadata.
//
// A scene with zero matching bindings is a domain error surfaced before
// any network traffic. Any transport or decode failure from the source
// aborts the whole bake; no scene state is modified in that case.
func (m *Manager) BakeSimulation(ctx context.Context, src TrajectorySource, sceneID, simulationID string, fps int, duration float64) (*BakeResult, error) {
	if fps <= 0 {
		fps = config.DefaultFPS
	}

	s, err := m.Scene(sceneID)
	if err != nil {
		return nil, err
	}

	bound := s.BoundObjects(simulationID)
	if len(bound) == 0 {
		return nil, &NoBoundObjectsError{SimulationID: simulationID}
	}
	// Stable order: bake requests and results are deterministic per scene.
	sort.Slice(bound, func(i, j int) bool { return bound[i].ID < bound[j].ID })

	bodyByObject := make(map[string]string, len(bound))
	bodyIDs := make([]string, 0, len(bound))
	for _, obj := range bound {
		ref, err := scene.ParseBodyRef(obj.PhysicsBinding)
		if err != nil {
			// BoundObjects only returns parseable bindings.
			return nil, err
		}
		bodyByObject[obj.ID] = ref.BodyID
		bodyIDs = append(bodyIDs, ref.BodyID)
	}

	m.log.Info("baking simulation", "scene", sceneID, "simulation", simulationID, "bodies", len(bodyIDs))

	baked, err := src.Bake(ctx, simulationID, bodyIDs, fps, duration)
	if err != nil {
		return nil, err
	}

	workspace, err := m.SceneBlob(sceneID)
	if err != nil {
		return nil, err
	}

	result := &BakeResult{SceneID: sceneID, FPS: fps}
	for _, obj := range bound {
		frames, ok := baked[bodyByObject[obj.ID]]
		if !ok {
			continue
		}
		if len(frames) > result.TotalFrames {
			result.TotalFrames = len(frames)
		}

		data, err := bridge.EncodeKeyframes(frames)
		if err != nil {
			return nil, err
		}
		dataPath := "/animations/" + obj.ID + ".json"
		if err := workspace.WriteText(dataPath, string(data)); err != nil {
			return nil, err
		}

		anim := &scene.BakedAnimation{
			ObjectID: obj.ID,
			Source:   simulationID,
			FPS:      fps,
			Frames:   len(frames),
			DataPath: dataPath,
		}
		if err := m.SetBakedAnimation(sceneID, anim); err != nil {
			return nil, err
		}
		result.BakedObjects = append(result.BakedObjects, obj.ID)
	}

	m.log.Info("bake complete", "scene", sceneID, "objects", len(result.BakedObjects), "frames", result.TotalFrames)
	return result, nil
}
