package scene

// CameraPathMode selects how the camera moves during a shot.
type CameraPathMode string

const (
	CameraOrbit      CameraPathMode = "orbit"      // circle a focus object
	CameraChase      CameraPathMode = "chase"      // follow target with offset
	CameraDolly      CameraPathMode = "dolly"      // linear move from A to B
	CameraFlythrough CameraPathMode = "flythrough" // follow waypoint path
	CameraCrane      CameraPathMode = "crane"      // arc movement
	CameraStatic     CameraPathMode = "static"     // fixed position
	CameraTrack      CameraPathMode = "track"      // follow custom path
)

// ParseCameraPathMode validates a wire-level camera mode string.
func ParseCameraPathMode(s string) (CameraPathMode, bool) {
	switch m := CameraPathMode(s); m {
	case CameraOrbit, CameraChase, CameraDolly, CameraFlythrough,
		CameraCrane, CameraStatic, CameraTrack:
		return m, true
	}
	return "", false
}

// Easing names a motion easing function applied over a shot.
type Easing string

const (
	EaseLinear        Easing = "linear"
	EaseIn            Easing = "ease-in"
	EaseOut           Easing = "ease-out"
	EaseInOut         Easing = "ease-in-out"
	EaseInCubic       Easing = "ease-in-cubic"
	EaseOutCubic      Easing = "ease-out-cubic"
	EaseInOutCubic    Easing = "ease-in-out-cubic"
	EaseSpring        Easing = "spring"
	DefaultShotEasing        = EaseInOutCubic
)

// CameraPath captures the parameters of one camera movement. Only the
// fields relevant to the selected mode are set; the rest stay nil. The
// path is data only — evaluating it is the renderer's job.
type CameraPath struct {
	Mode  CameraPathMode `json:"mode"`
	Focus string         `json:"focus,omitempty"` // object id, orbit/chase

	Position *Vector3 `json:"position,omitempty"` // static
	LookAt   *Vector3 `json:"look_at,omitempty"`  // static/dolly

	// Orbit
	Radius    *float64 `json:"radius,omitempty"`
	Elevation *float64 `json:"elevation,omitempty"` // degrees
	Speed     *float64 `json:"speed,omitempty"`     // revolutions per second

	// Dolly
	FromPosition *Vector3 `json:"from_position,omitempty"`
	ToPosition   *Vector3 `json:"to_position,omitempty"`

	// Chase
	Offset  *Vector3 `json:"offset,omitempty"`
	Damping *float64 `json:"damping,omitempty"`

	// Flythrough / track
	Waypoints []Vector3 `json:"waypoints,omitempty"`
}

// Shot binds a camera path to a time range.
type Shot struct {
	ID         string     `json:"id"`
	CameraPath CameraPath `json:"camera_path"`
	StartTime  float64    `json:"start_time"` // seconds
	EndTime    float64    `json:"end_time"`   // seconds
	Easing     Easing     `json:"easing"`
	Label      string     `json:"label,omitempty"`
}

// Duration returns the shot length in seconds.
func (s *Shot) Duration() float64 {
	return s.EndTime - s.StartTime
}
