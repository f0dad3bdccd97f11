package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"stage3d/internal/blob"
	"stage3d/internal/scene"
)

func exportR3F(s *scene.Scene, out *blob.Store, outputPath string) (map[string]string, error) {
	base := outputPath
	if base == "" {
		base = "/export/r3f"
	}
	base = strings.TrimRight(base, "/")

	artifacts := map[string]string{"component": base + "/Scene.tsx"}
	if err := out.WriteText(artifacts["component"], r3fComponent(s)); err != nil {
		return nil, err
	}

	if len(s.Shots) > 0 {
		artifacts["camera"] = base + "/Camera.tsx"
		if err := out.WriteText(artifacts["camera"], r3fCamera()); err != nil {
			return nil, err
		}
	}

	if len(s.BakedAnimations) > 0 {
		data, err := animationsIndex(s)
		if err != nil {
			return nil, err
		}
		artifacts["animations"] = base + "/animations.json"
		if err := out.WriteText(artifacts["animations"], data); err != nil {
			return nil, err
		}
	}

	return artifacts, nil
}

// r3fComponent generates the React Three Fiber scene component.
func r3fComponent(s *scene.Scene) string {
	var meshes strings.Builder
	for _, id := range sortedObjectIDs(s) {
		obj := s.Objects[id]
		pos := obj.Transform.Position
		rot := obj.Transform.Rotation
		fmt.Fprintf(&meshes, `
  <mesh
    name=%q
    position={[%g, %g, %g]}
    quaternion={[%g, %g, %g, %g]}
  >
    %s
    %s
  </mesh>`,
			id,
			pos.X, pos.Y, pos.Z,
			rot.X, rot.Y, rot.Z, rot.W,
			r3fGeometry(obj),
			r3fMaterial(obj.Material))
	}

	return fmt.Sprintf(`import React from 'react';
import { Canvas } from '@react-three/fiber';
import { OrbitControls } from '@react-three/drei';

export function Scene() {
  return (
    <Canvas camera={{ position: [5, 5, 5], fov: 50 }}>
  <ambientLight intensity={%g} />
  <directionalLight position={[10, 10, 5]} intensity={1} />%s
      <OrbitControls />
    </Canvas>
  );
}
`, s.Lighting.AmbientIntensity, meshes.String())
}

func r3fGeometry(obj *scene.Object) string {
	switch obj.Type {
	case scene.ObjectBox:
		if obj.Size != nil {
			return fmt.Sprintf("<boxGeometry args={[%g, %g, %g]} />", obj.Size.X, obj.Size.Y, obj.Size.Z)
		}
		return "<boxGeometry args={[1, 1, 1]} />"
	case scene.ObjectSphere:
		radius := 1.0
		if obj.Radius != nil {
			radius = *obj.Radius
		}
		return fmt.Sprintf("<sphereGeometry args={[%g, 32, 32]} />", radius)
	case scene.ObjectCylinder, scene.ObjectCapsule:
		radius, height := 1.0, 2.0
		if obj.Radius != nil {
			radius = *obj.Radius
		}
		if obj.Height != nil {
			height = *obj.Height
		}
		return fmt.Sprintf("<cylinderGeometry args={[%g, %g, %g, 32]} />", radius, radius, height)
	case scene.ObjectPlane:
		if obj.Size != nil {
			return fmt.Sprintf("<planeGeometry args={[%g, %g]} />", obj.Size.X, obj.Size.Y)
		}
		return "<planeGeometry args={[10, 10]} />"
	default:
		return "<boxGeometry />"
	}
}

func r3fMaterial(mat scene.Material) string {
	colorHex := "#ffffff"
	if mat.Color != nil {
		colorHex = mat.Color.Hex()
	}
	return fmt.Sprintf(`<meshStandardMaterial
        color=%q
        roughness={%g}
        metalness={%g}
        transparent={%t}
        opacity={%g}
      />`, colorHex, mat.Roughness, mat.Metalness, mat.Opacity < 1.0, mat.Opacity)
}

// r3fCamera generates a keyframeable camera controller for shots. Actual
// path evaluation happens in the rendering layer.
func r3fCamera() string {
	return `import { useRef } from 'react';
import { useFrame } from '@react-three/fiber';
import { PerspectiveCamera } from '@react-three/drei';

export function AnimatedCamera({ shot, currentTime }) {
  const cameraRef = useRef();

  useFrame(() => {
    if (!cameraRef.current || !shot) return;

    const t = (currentTime - shot.start_time) / (shot.end_time - shot.start_time);

    if (t >= 0 && t <= 1) {
      // Camera path evaluation is performed by the renderer.
    }
  });

  return <PerspectiveCamera ref={cameraRef} makeDefault />;
}
`
}

// animationsIndex generates the baked-animation manifest pointing at the
// keyframe blobs in the scene workspace.
func animationsIndex(s *scene.Scene) (string, error) {
	type entry struct {
		Source   string `json:"source"`
		FPS      int    `json:"fps"`
		Frames   int    `json:"frames"`
		DataPath string `json:"data_path"`
	}
	index := make(map[string]entry, len(s.BakedAnimations))
	for id, anim := range s.BakedAnimations {
		index[id] = entry{
			Source:   anim.Source,
			FPS:      anim.FPS,
			Frames:   anim.Frames,
			DataPath: anim.DataPath,
		}
	}
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal animation index: %w", err)
	}
	return string(data), nil
}

// sortedObjectIDs keeps generated output deterministic.
func sortedObjectIDs(s *scene.Scene) []string {
	ids := make([]string, 0, len(s.Objects))
	for id := range s.Objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
