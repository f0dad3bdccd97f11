// Package export turns a finished scene plus its baked keyframe data
// into downstream artifacts: raw JSON, a React Three Fiber component, a
// Remotion project scaffold, or a glTF document. Generators are pure
// string construction; their only side effect is writing into the
// scene's blob workspace.
package export

import (
	"fmt"

	"stage3d/internal/blob"
	"stage3d/internal/scene"
)

// Format names an export target.
type Format string

const (
	FormatJSON     Format = "json"
	FormatR3F      Format = "r3f-component"
	FormatRemotion Format = "remotion-project"
	FormatGLTF     Format = "gltf"
)

// ParseFormat validates a wire-level format string.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if _, ok := generators[f]; !ok {
		return "", fmt.Errorf("unsupported export format: %q", s)
	}
	return f, nil
}

// generator writes one format's artifacts into the workspace and returns
// artifact name -> blob path. outputPath overrides the default location
// when non-empty.
type generator func(s *scene.Scene, out *blob.Store, outputPath string) (map[string]string, error)

// generators is the closed set of format handlers.
var generators = map[Format]generator{
	FormatJSON:     exportJSON,
	FormatR3F:      exportR3F,
	FormatRemotion: exportRemotion,
	FormatGLTF:     exportGLTF,
}

// Export runs the handler for the given format.
func Export(s *scene.Scene, format Format, out *blob.Store, outputPath string) (map[string]string, error) {
	gen, ok := generators[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format: %q", format)
	}
	return gen(s, out, outputPath)
}

// MainArtifact picks the primary path out of an artifact map.
func MainArtifact(artifacts map[string]string) string {
	for _, key := range []string{"scene", "component", "composition", "gltf"} {
		if p, ok := artifacts[key]; ok {
			return p
		}
	}
	for _, p := range artifacts {
		return p
	}
	return "/"
}

func exportJSON(s *scene.Scene, out *blob.Store, outputPath string) (map[string]string, error) {
	path := outputPath
	if path == "" {
		path = "/export/scene.json"
	}
	doc, err := s.Encode()
	if err != nil {
		return nil, err
	}
	if err := out.WriteText(path, string(doc)); err != nil {
		return nil, err
	}
	return map[string]string{"scene": path}, nil
}
