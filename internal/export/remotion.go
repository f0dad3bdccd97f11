package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"stage3d/internal/blob"
	"stage3d/internal/scene"
)

const (
	remotionFPS           = 30
	remotionDefaultFrames = 300 // 10 seconds when there are no shots
	remotionWidth         = 1920
	remotionHeight        = 1080
)

func exportRemotion(s *scene.Scene, out *blob.Store, outputPath string) (map[string]string, error) {
	base := outputPath
	if base == "" {
		base = "/export/remotion"
	}
	base = strings.TrimRight(base, "/")

	artifacts := map[string]string{
		"composition": base + "/Composition.tsx",
		"root":        base + "/Root.tsx",
		"package":     base + "/package.json",
	}

	if err := out.WriteText(artifacts["composition"], remotionComposition()); err != nil {
		return nil, err
	}
	if err := out.WriteText(artifacts["root"], remotionRoot(s)); err != nil {
		return nil, err
	}
	pkg, err := remotionPackageJSON(s)
	if err != nil {
		return nil, err
	}
	if err := out.WriteText(artifacts["package"], pkg); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func remotionComposition() string {
	return `import { ThreeCanvas } from '@remotion/three';
import { AbsoluteFill } from 'remotion';

export const MyComposition = () => {
  return (
    <AbsoluteFill>
      <ThreeCanvas>
        {/* Scene objects will be rendered here */}
        <ambientLight intensity={0.5} />
        <directionalLight position={[10, 10, 5]} />

        {/* Objects */}
        {/* Camera */}
      </ThreeCanvas>
    </AbsoluteFill>
  );
};
`
}

func remotionRoot(s *scene.Scene) string {
	frames := remotionDefaultFrames
	if len(s.Shots) > 0 {
		var maxEnd float64
		for _, shot := range s.Shots {
			if shot.EndTime > maxEnd {
				maxEnd = shot.EndTime
			}
		}
		frames = int(maxEnd * remotionFPS)
	}

	return fmt.Sprintf(`import { Composition } from 'remotion';
import { MyComposition } from './Composition';

export const RemotionRoot = () => {
  return (
    <>
      <Composition
        id=%q
        component={MyComposition}
        durationInFrames={%d}
        fps={%d}
        width={%d}
        height={%d}
      />
    </>
  );
};
`, s.ID, frames, remotionFPS, remotionWidth, remotionHeight)
}

func remotionPackageJSON(s *scene.Scene) (string, error) {
	name := s.Name
	if name == "" {
		name = s.ID
	}
	pkg := map[string]any{
		"name":        "scene-" + s.ID,
		"version":     "1.0.0",
		"description": "Remotion project for scene " + name,
		"scripts": map[string]string{
			"start": "remotion preview",
			"build": "remotion render MyComposition out.mp4",
		},
		"dependencies": map[string]string{
			"react":              "^18.2.0",
			"remotion":           "^4.0.0",
			"@remotion/three":    "^4.0.0",
			"@react-three/fiber": "^8.0.0",
			"@react-three/drei":  "^9.0.0",
			"three":              "^0.160.0",
		},
	}
	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal package.json: %w", err)
	}
	return string(data), nil
}
