package scene

// Vector3 is a position, direction or scale in scene space.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is a rotation in x/y/z/w order. The zero value is NOT a valid
// rotation; use Identity for "no rotation".
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Identity returns the identity rotation (0, 0, 0, 1).
func Identity() Quaternion {
	return Quaternion{W: 1}
}

// One returns a uniform unit scale vector.
func One() Vector3 {
	return Vector3{X: 1, Y: 1, Z: 1}
}

// Transform places an object in the scene.
type Transform struct {
	Position Vector3    `json:"position"`
	Rotation Quaternion `json:"rotation"`
	Scale    Vector3    `json:"scale"`
}

// NewTransform returns a transform at the origin with identity rotation
// and unit scale.
func NewTransform() Transform {
	return Transform{
		Rotation: Identity(),
		Scale:    One(),
	}
}

// Color is an RGB color with components in the 0..1 range.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Hex renders the color as a #rrggbb string for generated component code.
func (c Color) Hex() string {
	clamp := func(v float64) int {
		n := int(v * 255)
		if n < 0 {
			return 0
		}
		if n > 255 {
			return 255
		}
		return n
	}
	const digits = "0123456789abcdef"
	out := [7]byte{'#'}
	for i, n := range [3]int{clamp(c.R), clamp(c.G), clamp(c.B)} {
		out[1+i*2] = digits[n>>4]
		out[2+i*2] = digits[n&0xf]
	}
	return string(out[:])
}
