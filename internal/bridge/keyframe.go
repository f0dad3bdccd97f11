package bridge

import (
	"encoding/json"
	"fmt"

	"stage3d/internal/scene"
)

// Keyframe is one sampled instant of a body's motion. This is the
// persisted form: the service's "orientation" field is renamed to
// "rotation" at the decode boundary and stays renamed from here on.
type Keyframe struct {
	Time     float64    `json:"time"`
	Position [3]float64 `json:"position"`
	Rotation [4]float64 `json:"rotation"` // quaternion x/y/z/w
	Velocity [3]float64 `json:"velocity"`
}

// EncodeKeyframes renders a keyframe sequence as an indented JSON array.
// The encoding is lossless for float64 and stable under repeated
// round-trips.
func EncodeKeyframes(frames []Keyframe) ([]byte, error) {
	if frames == nil {
		frames = []Keyframe{}
	}
	data, err := json.MarshalIndent(frames, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal keyframes: %w", err)
	}
	return data, nil
}

// DecodeKeyframes parses a keyframe sequence produced by EncodeKeyframes.
func DecodeKeyframes(data []byte) ([]Keyframe, error) {
	var frames []Keyframe
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("parse keyframes: %w", err)
	}
	return frames, nil
}

// Interpolate evaluates a keyframe sequence at time t and returns the
// position, rotation and velocity there. It is pure and total:
//
//   - an empty sequence yields the identity pose
//   - t at or before the first sample yields the first sample verbatim
//   - t at or after the last sample yields the last sample verbatim
//   - an exact timestamp hit yields that sample verbatim, no blending
//   - otherwise the bracketing pair is blended component-wise
//
// Rotation uses the same linear blend as position, not slerp. That is a
// deliberate approximation that holds for closely spaced samples; the
// baked output depends on it, so keep it linear.
//
// The sequence is assumed sorted ascending by time (the physics service
// returns it that way; nothing here re-sorts).
func Interpolate(frames []Keyframe, t float64) (scene.Vector3, scene.Quaternion, scene.Vector3) {
	if len(frames) == 0 {
		return scene.Vector3{}, scene.Identity(), scene.Vector3{}
	}

	// Tightest bracketing pair around t.
	var before, after *Keyframe
	for i := range frames {
		kf := &frames[i]
		if kf.Time <= t {
			before = kf
		}
		if kf.Time >= t {
			after = kf
			break
		}
	}

	switch {
	case before != nil && before.Time == t:
		return pose(before)
	case before == nil:
		return pose(&frames[0])
	case after == nil:
		return pose(&frames[len(frames)-1])
	case after.Time == before.Time:
		// Degenerate bracket; treat as an exact hit on before.
		return pose(before)
	}

	f := (t - before.Time) / (after.Time - before.Time)

	pos := scene.Vector3{
		X: lerp(before.Position[0], after.Position[0], f),
		Y: lerp(before.Position[1], after.Position[1], f),
		Z: lerp(before.Position[2], after.Position[2], f),
	}
	rot := scene.Quaternion{
		X: lerp(before.Rotation[0], after.Rotation[0], f),
		Y: lerp(before.Rotation[1], after.Rotation[1], f),
		Z: lerp(before.Rotation[2], after.Rotation[2], f),
		W: lerp(before.Rotation[3], after.Rotation[3], f),
	}
	vel := scene.Vector3{
		X: lerp(before.Velocity[0], after.Velocity[0], f),
		Y: lerp(before.Velocity[1], after.Velocity[1], f),
		Z: lerp(before.Velocity[2], after.Velocity[2], f),
	}
	return pos, rot, vel
}

func lerp(a, b, f float64) float64 {
	return a + f*(b-a)
}

func pose(kf *Keyframe) (scene.Vector3, scene.Quaternion, scene.Vector3) {
	return scene.Vector3{X: kf.Position[0], Y: kf.Position[1], Z: kf.Position[2]},
		scene.Quaternion{X: kf.Rotation[0], Y: kf.Rotation[1], Z: kf.Rotation[2], W: kf.Rotation[3]},
		scene.Vector3{X: kf.Velocity[0], Y: kf.Velocity[1], Z: kf.Velocity[2]}
}
