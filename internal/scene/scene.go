// Package scene defines the typed data model for 3D scene composition:
// objects with transforms and materials, camera shots, environment and
// lighting, physics bindings and baked-animation metadata. The model is
// pure data; simulation and rendering are external concerns.
package scene

import (
	"encoding/json"
	"fmt"
)

// EnvironmentType is the scene background kind.
type EnvironmentType string

const (
	EnvHDRI     EnvironmentType = "hdri"
	EnvGradient EnvironmentType = "gradient"
	EnvSolid    EnvironmentType = "solid"
	EnvNone     EnvironmentType = "none"
)

// ParseEnvironmentType validates a wire-level environment type string.
func ParseEnvironmentType(s string) (EnvironmentType, bool) {
	switch t := EnvironmentType(s); t {
	case EnvHDRI, EnvGradient, EnvSolid, EnvNone:
		return t, true
	}
	return "", false
}

// Environment is the scene background.
type Environment struct {
	Type        EnvironmentType `json:"type"`
	HDRIPath    string          `json:"hdri_path,omitempty"` // blob path
	ColorTop    Color           `json:"color_top"`
	ColorBottom Color           `json:"color_bottom"`
	Intensity   float64         `json:"intensity"`
}

// NewEnvironment returns the default sky-to-white gradient.
func NewEnvironment() Environment {
	return Environment{
		Type:        EnvGradient,
		ColorTop:    Color{R: 0.5, G: 0.7, B: 1.0},
		ColorBottom: Color{R: 1.0, G: 1.0, B: 1.0},
		Intensity:   0.8,
	}
}

// LightingPreset names a light rig preset.
type LightingPreset string

const (
	LightStudio     LightingPreset = "studio"
	LightThreePoint LightingPreset = "three-point"
	LightNoon       LightingPreset = "noon"
	LightSunset     LightingPreset = "sunset"
	LightNight      LightingPreset = "night"
	LightWarehouse  LightingPreset = "warehouse"
	LightCustom     LightingPreset = "custom"
)

// ParseLightingPreset validates a wire-level lighting preset string.
func ParseLightingPreset(s string) (LightingPreset, bool) {
	switch p := LightingPreset(s); p {
	case LightStudio, LightThreePoint, LightNoon, LightSunset,
		LightNight, LightWarehouse, LightCustom:
		return p, true
	}
	return "", false
}

// Lighting is the scene light configuration.
type Lighting struct {
	Preset           LightingPreset `json:"preset"`
	AmbientIntensity float64        `json:"ambient_intensity"`
	CustomLights     map[string]any `json:"custom_lights,omitempty"`
}

// NewLighting returns the default three-point rig.
func NewLighting() Lighting {
	return Lighting{
		Preset:           LightThreePoint,
		AmbientIntensity: 0.5,
	}
}

// BakedAnimation records where a bake run left an object's keyframes.
// The keyframe data itself lives in the blob store at DataPath.
type BakedAnimation struct {
	ObjectID string `json:"object_id"`
	Source   string `json:"source"` // simulation id
	FPS      int    `json:"fps"`
	Frames   int    `json:"frames"`
	DataPath string `json:"data_path"`
}

// Metadata is optional scene bookkeeping.
type Metadata struct {
	Author      string   `json:"author,omitempty"`
	Created     string   `json:"created,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Scene is a complete scene definition.
type Scene struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Metadata Metadata `json:"metadata"`

	Objects     map[string]*Object `json:"objects"`
	Environment Environment        `json:"environment"`
	Lighting    Lighting           `json:"lighting"`

	Shots map[string]*Shot `json:"shots"`

	// BakedAnimations is keyed by object id.
	BakedAnimations map[string]*BakedAnimation `json:"baked_animations"`
}

// New returns an empty scene with default environment and lighting.
func New(id string) *Scene {
	return &Scene{
		ID:              id,
		Objects:         make(map[string]*Object),
		Environment:     NewEnvironment(),
		Lighting:        NewLighting(),
		Shots:           make(map[string]*Shot),
		BakedAnimations: make(map[string]*BakedAnimation),
	}
}

// AddObject inserts or replaces an object.
func (s *Scene) AddObject(obj *Object) {
	if s.Objects == nil {
		s.Objects = make(map[string]*Object)
	}
	s.Objects[obj.ID] = obj
}

// Object looks up an object by id.
func (s *Scene) Object(id string) (*Object, bool) {
	obj, ok := s.Objects[id]
	return obj, ok
}

// AddShot inserts or replaces a shot.
func (s *Scene) AddShot(shot *Shot) {
	if s.Shots == nil {
		s.Shots = make(map[string]*Shot)
	}
	s.Shots[shot.ID] = shot
}

// Shot looks up a shot by id.
func (s *Scene) Shot(id string) (*Shot, bool) {
	sh, ok := s.Shots[id]
	return sh, ok
}

// BoundObjects returns the objects whose physics binding parses and
// references the given simulation id, in no particular order.
func (s *Scene) BoundObjects(simulationID string) []*Object {
	var out []*Object
	for _, obj := range s.Objects {
		if obj.PhysicsBinding == "" {
			continue
		}
		ref, err := ParseBodyRef(obj.PhysicsBinding)
		if err != nil {
			continue
		}
		if ref.SimulationID == simulationID {
			out = append(out, obj)
		}
	}
	return out
}

// Encode renders the scene as indented JSON.
func (s *Scene) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal scene %s: %w", s.ID, err)
	}
	return data, nil
}

// Decode parses a scene from JSON produced by Encode.
func Decode(data []byte) (*Scene, error) {
	var s Scene
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if s.Objects == nil {
		s.Objects = make(map[string]*Object)
	}
	if s.Shots == nil {
		s.Shots = make(map[string]*Shot)
	}
	if s.BakedAnimations == nil {
		s.BakedAnimations = make(map[string]*BakedAnimation)
	}
	return &s, nil
}
