package export

import (
	"encoding/json"
	"fmt"

	"stage3d/internal/blob"
	"stage3d/internal/scene"
)

// gltfNode is one scene node in a glTF 2.0 document.
type gltfNode struct {
	Name        string     `json:"name"`
	Translation [3]float64 `json:"translation"`
	Rotation    [4]float64 `json:"rotation"`
	Scale       [3]float64 `json:"scale"`
	Mesh        int        `json:"mesh"`
}

type gltfMesh struct {
	Name       string `json:"name"`
	Primitives []any  `json:"primitives"`
}

// exportGLTF writes a structurally valid glTF document with one node per
// object. Meshes are stubs: geometry buffers are the renderer's problem,
// the interchange value here is the node transforms.
func exportGLTF(s *scene.Scene, out *blob.Store, outputPath string) (map[string]string, error) {
	path := outputPath
	if path == "" {
		path = "/export/scene.gltf"
	}

	ids := sortedObjectIDs(s)
	nodes := make([]gltfNode, 0, len(ids))
	meshes := make([]gltfMesh, 0, len(ids))
	indices := make([]int, 0, len(ids))

	for i, id := range ids {
		obj := s.Objects[id]
		pos := obj.Transform.Position
		rot := obj.Transform.Rotation
		scale := obj.Transform.Scale
		nodes = append(nodes, gltfNode{
			Name:        id,
			Translation: [3]float64{pos.X, pos.Y, pos.Z},
			Rotation:    [4]float64{rot.X, rot.Y, rot.Z, rot.W},
			Scale:       [3]float64{scale.X, scale.Y, scale.Z},
			Mesh:        i,
		})
		meshes = append(meshes, gltfMesh{Name: id + "-mesh", Primitives: []any{}})
		indices = append(indices, i)
	}

	name := s.Name
	if name == "" {
		name = s.ID
	}
	doc := map[string]any{
		"asset": map[string]string{"version": "2.0", "generator": "stage3d"},
		"scene": 0,
		"scenes": []map[string]any{
			{"name": name, "nodes": indices},
		},
		"nodes":       nodes,
		"meshes":      meshes,
		"materials":   []any{},
		"buffers":     []any{},
		"bufferViews": []any{},
		"accessors":   []any{},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal gltf: %w", err)
	}
	if err := out.WriteText(path, string(data)); err != nil {
		return nil, err
	}
	return map[string]string{"gltf": path}, nil
}
