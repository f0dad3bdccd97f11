package scene

// ObjectType is the primitive shape of a scene object.
type ObjectType string

const (
	ObjectBox      ObjectType = "box"
	ObjectSphere   ObjectType = "sphere"
	ObjectCylinder ObjectType = "cylinder"
	ObjectCapsule  ObjectType = "capsule"
	ObjectPlane    ObjectType = "plane"
	ObjectMesh     ObjectType = "mesh" // imported glTF/GLB
)

// ParseObjectType validates a wire-level object type string.
func ParseObjectType(s string) (ObjectType, bool) {
	switch t := ObjectType(s); t {
	case ObjectBox, ObjectSphere, ObjectCylinder, ObjectCapsule, ObjectPlane, ObjectMesh:
		return t, true
	}
	return "", false
}

// MaterialPreset names a material appearance preset.
type MaterialPreset string

const (
	MetalDark    MaterialPreset = "metal-dark"
	MetalLight   MaterialPreset = "metal-light"
	GlassClear   MaterialPreset = "glass-clear"
	GlassBlue    MaterialPreset = "glass-blue"
	GlassGreen   MaterialPreset = "glass-green"
	PlasticRed   MaterialPreset = "plastic-red"
	PlasticBlue  MaterialPreset = "plastic-blue"
	PlasticWhite MaterialPreset = "plastic-white"
	RubberBlack  MaterialPreset = "rubber-black"
	WoodOak      MaterialPreset = "wood-oak"
	CustomMat    MaterialPreset = "custom"
)

// Material describes how an object surface looks.
type Material struct {
	Preset       MaterialPreset `json:"preset"`
	Color        *Color         `json:"color,omitempty"`
	Roughness    float64        `json:"roughness"`
	Metalness    float64        `json:"metalness"`
	Transmission float64        `json:"transmission"` // glass
	Opacity      float64        `json:"opacity"`
}

// NewMaterial returns the default plastic-white material.
func NewMaterial() Material {
	return Material{
		Preset:    PlasticWhite,
		Roughness: 0.5,
		Opacity:   1.0,
	}
}

// Trail visualizes an object's recent positions.
type Trail struct {
	Length int     `json:"length"` // past positions to show
	Color  string  `json:"color"`  // theme color or hex
	Fade   bool    `json:"fade"`
	Width  float64 `json:"width"`
}

// Label is a text annotation attached to an object.
type Label struct {
	Text             string  `json:"text"`
	FontSize         float64 `json:"font_size"`
	Color            string  `json:"color"`
	Offset           Vector3 `json:"offset"`
	AlwaysFaceCamera bool    `json:"always_face_camera"`
}

// Object is one entry in a scene: a primitive or mesh placeholder plus its
// transform, material and optional physics binding.
type Object struct {
	ID        string     `json:"id"`
	Type      ObjectType `json:"type"`
	Transform Transform  `json:"transform"`
	Material  Material   `json:"material"`

	// Geometry parameters, per type.
	Size     *Vector3 `json:"size,omitempty"`      // box, plane
	Radius   *float64 `json:"radius,omitempty"`    // sphere, cylinder, capsule
	Height   *float64 `json:"height,omitempty"`    // cylinder, capsule
	MeshPath string   `json:"mesh_path,omitempty"` // mesh (blob path or URL)

	// PhysicsBinding holds the canonical body reference string, e.g.
	// "rapier://sim-001/body-ball". Empty means unbound. Parse with
	// ParseBodyRef; never split it ad hoc.
	PhysicsBinding string `json:"physics_binding,omitempty"`

	Trail *Trail `json:"trail,omitempty"`
	Label *Label `json:"label,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewObject returns an object of the given type with a default transform
// and material.
func NewObject(id string, typ ObjectType) *Object {
	return &Object{
		ID:        id,
		Type:      typ,
		Transform: NewTransform(),
		Material:  NewMaterial(),
	}
}
