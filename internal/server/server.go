// Package server exposes the stage operations as a JSON-over-HTTP API.
// It is a thin layer: request decoding, dispatch into the manager,
// bridge and exporters, and error-to-status mapping.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"stage3d/internal/bridge"
	"stage3d/internal/config"
	"stage3d/internal/export"
	"stage3d/internal/scene"
	"stage3d/internal/stage"
)

// Service wires the HTTP handlers to their collaborators. Construct it
// explicitly and mount it with Handler; nothing here is a singleton.
type Service struct {
	Manager *stage.Manager
	Config  *config.Config
	Log     *slog.Logger

	// OpenBridge builds the trajectory source for a bake call. Tests
	// override it; the default opens a real bridge against serviceURL.
	OpenBridge func(serviceURL string) (stage.TrajectorySource, func(), error)
}

// NewService builds a service with the default bridge factory.
func NewService(mgr *stage.Manager, cfg *config.Config) *Service {
	s := &Service{
		Manager: mgr,
		Config:  cfg,
		Log:     slog.Default(),
	}
	s.OpenBridge = func(serviceURL string) (stage.TrajectorySource, func(), error) {
		if serviceURL == "" {
			serviceURL = cfg.ResolveServiceURL()
		}
		b := bridge.New(serviceURL)
		b.Timeout = cfg.ResolveTimeout()
		b.Window = cfg.Bake.WindowSeconds
		if err := b.Open(); err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	}
	return s
}

// Handler returns the route table.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/scenes", s.handleCreateScene)
	mux.HandleFunc("GET /v1/scenes/{scene}", s.handleGetScene)
	mux.HandleFunc("POST /v1/scenes/{scene}/objects", s.handleAddObject)
	mux.HandleFunc("POST /v1/scenes/{scene}/environment", s.handleSetEnvironment)
	mux.HandleFunc("POST /v1/scenes/{scene}/shots", s.handleAddShot)
	mux.HandleFunc("GET /v1/scenes/{scene}/shots/{shot}", s.handleGetShot)
	mux.HandleFunc("POST /v1/scenes/{scene}/objects/{object}/binding", s.handleBindPhysics)
	mux.HandleFunc("POST /v1/scenes/{scene}/bake", s.handleBake)
	mux.HandleFunc("POST /v1/scenes/{scene}/export", s.handleExport)
	return mux
}

// --- request/response bodies ---

type createSceneRequest struct {
	Name        string `json:"name"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

type createSceneResponse struct {
	SceneID string `json:"scene_id"`
	Message string `json:"message"`
}

type addObjectRequest struct {
	ObjectID string            `json:"object_id"`
	Type     string            `json:"type"`
	Position *scene.Vector3    `json:"position"`
	Rotation *scene.Quaternion `json:"rotation"`
	Scale    *scene.Vector3    `json:"scale"`
	Size     *scene.Vector3    `json:"size"`
	Radius   *float64          `json:"radius"`
	Height   *float64          `json:"height"`
	MeshPath string            `json:"mesh_path"`
	Material *scene.Material   `json:"material"`
}

type setEnvironmentRequest struct {
	Environment scene.Environment `json:"environment"`
	Lighting    *scene.Lighting   `json:"lighting"`
}

type addShotRequest struct {
	ShotID     string           `json:"shot_id"`
	CameraPath scene.CameraPath `json:"camera_path"`
	StartTime  float64          `json:"start_time"`
	EndTime    float64          `json:"end_time"`
	Easing     string           `json:"easing"`
	Label      string           `json:"label"`
}

type addShotResponse struct {
	ShotID   string  `json:"shot_id"`
	SceneID  string  `json:"scene_id"`
	Duration float64 `json:"duration"`
}

type bindPhysicsRequest struct {
	PhysicsBodyID string `json:"physics_body_id"`
}

type bakeRequest struct {
	SimulationID string  `json:"simulation_id"`
	FPS          int     `json:"fps"`
	Duration     float64 `json:"duration"`
	ServiceURL   string  `json:"physics_server_url"`
}

type exportRequest struct {
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
}

type exportResponse struct {
	SceneID    string            `json:"scene_id"`
	Format     string            `json:"format"`
	OutputPath string            `json:"output_path"`
	Artifacts  map[string]string `json:"artifacts"`
}

// --- handlers ---

func (s *Service) handleCreateScene(w http.ResponseWriter, r *http.Request) {
	var req createSceneRequest
	if !s.decode(w, r, &req) {
		return
	}
	sc, err := s.Manager.CreateScene(req.Name, scene.Metadata{
		Author:      req.Author,
		Description: req.Description,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	name := req.Name
	if name == "" {
		name = sc.ID
	}
	s.reply(w, http.StatusCreated, createSceneResponse{
		SceneID: sc.ID,
		Message: "Scene '" + name + "' created",
	})
}

func (s *Service) handleGetScene(w http.ResponseWriter, r *http.Request) {
	sc, err := s.Manager.Scene(r.PathValue("scene"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.reply(w, http.StatusOK, sc)
}

func (s *Service) handleAddObject(w http.ResponseWriter, r *http.Request) {
	sceneID := r.PathValue("scene")
	var req addObjectRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.ObjectID == "" {
		s.badRequest(w, "object_id is required")
		return
	}
	typ, ok := scene.ParseObjectType(req.Type)
	if !ok {
		s.badRequest(w, "unknown object type: "+req.Type)
		return
	}

	obj := scene.NewObject(req.ObjectID, typ)
	if req.Position != nil {
		obj.Transform.Position = *req.Position
	}
	if req.Rotation != nil {
		obj.Transform.Rotation = *req.Rotation
	}
	if req.Scale != nil {
		obj.Transform.Scale = *req.Scale
	}
	obj.Size = req.Size
	obj.Radius = req.Radius
	obj.Height = req.Height
	obj.MeshPath = req.MeshPath
	if req.Material != nil {
		obj.Material = *req.Material
	}

	if err := s.Manager.AddObject(sceneID, obj); err != nil {
		s.fail(w, r, err)
		return
	}
	s.reply(w, http.StatusCreated, map[string]string{
		"object_id": obj.ID,
		"scene_id":  sceneID,
	})
}

func (s *Service) handleSetEnvironment(w http.ResponseWriter, r *http.Request) {
	sceneID := r.PathValue("scene")
	var req setEnvironmentRequest
	if !s.decode(w, r, &req) {
		return
	}
	if _, ok := scene.ParseEnvironmentType(string(req.Environment.Type)); !ok {
		s.badRequest(w, "unknown environment type: "+string(req.Environment.Type))
		return
	}
	if err := s.Manager.SetEnvironment(sceneID, req.Environment, req.Lighting); err != nil {
		s.fail(w, r, err)
		return
	}
	s.reply(w, http.StatusOK, map[string]string{"scene_id": sceneID})
}

func (s *Service) handleAddShot(w http.ResponseWriter, r *http.Request) {
	sceneID := r.PathValue("scene")
	var req addShotRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.ShotID == "" {
		s.badRequest(w, "shot_id is required")
		return
	}
	if _, ok := scene.ParseCameraPathMode(string(req.CameraPath.Mode)); !ok {
		s.badRequest(w, "unknown camera mode: "+string(req.CameraPath.Mode))
		return
	}
	if req.EndTime <= req.StartTime {
		s.badRequest(w, "end_time must be after start_time")
		return
	}
	easing := scene.Easing(req.Easing)
	if easing == "" {
		easing = scene.DefaultShotEasing
	}

	shot := &scene.Shot{
		ID:         req.ShotID,
		CameraPath: req.CameraPath,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Easing:     easing,
		Label:      req.Label,
	}
	if err := s.Manager.AddShot(sceneID, shot); err != nil {
		s.fail(w, r, err)
		return
	}
	s.reply(w, http.StatusCreated, addShotResponse{
		ShotID:   shot.ID,
		SceneID:  sceneID,
		Duration: shot.Duration(),
	})
}

func (s *Service) handleGetShot(w http.ResponseWriter, r *http.Request) {
	shot, err := s.Manager.Shot(r.PathValue("scene"), r.PathValue("shot"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.reply(w, http.StatusOK, shot)
}

func (s *Service) handleBindPhysics(w http.ResponseWriter, r *http.Request) {
	sceneID := r.PathValue("scene")
	objectID := r.PathValue("object")
	var req bindPhysicsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if _, err := scene.ParseBodyRef(req.PhysicsBodyID); err != nil {
		s.badRequest(w, err.Error())
		return
	}
	if err := s.Manager.BindPhysics(sceneID, objectID, req.PhysicsBodyID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.reply(w, http.StatusOK, map[string]string{
		"object_id":       objectID,
		"physics_body_id": req.PhysicsBodyID,
		"message":         "Physics binding created",
	})
}

func (s *Service) handleBake(w http.ResponseWriter, r *http.Request) {
	sceneID := r.PathValue("scene")
	var req bakeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.SimulationID == "" {
		s.badRequest(w, "simulation_id is required")
		return
	}
	fps := req.FPS
	if fps <= 0 {
		fps = s.Config.Bake.FPS
	}

	src, release, err := s.OpenBridge(req.ServiceURL)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer release()

	result, err := s.Manager.BakeSimulation(r.Context(), src, sceneID, req.SimulationID, fps, req.Duration)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.reply(w, http.StatusOK, result)
}

func (s *Service) handleExport(w http.ResponseWriter, r *http.Request) {
	sceneID := r.PathValue("scene")
	var req exportRequest
	if !s.decode(w, r, &req) {
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}

	sc, err := s.Manager.Scene(sceneID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	workspace, err := s.Manager.SceneBlob(sceneID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	artifacts, err := export.Export(sc, format, workspace, req.OutputPath)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.reply(w, http.StatusOK, exportResponse{
		SceneID:    sceneID,
		Format:     string(format),
		OutputPath: export.MainArtifact(artifacts),
		Artifacts:  artifacts,
	})
}

// --- plumbing ---

func (s *Service) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.badRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Service) reply(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.Log.Error("encode response", "error", err)
	}
}

func (s *Service) badRequest(w http.ResponseWriter, msg string) {
	s.reply(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// fail maps domain errors onto HTTP statuses.
func (s *Service) fail(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *stage.NotFoundError
	var noBound *stage.NoBoundObjectsError
	var transport *bridge.TransportError
	var decode *bridge.DecodeError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &noBound):
		status = http.StatusBadRequest
	case errors.As(err, &transport):
		status = http.StatusBadGateway
	case errors.As(err, &decode):
		status = http.StatusBadGateway
	case errors.Is(err, bridge.ErrNotOpen):
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		s.Log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.Log.Info("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	s.reply(w, status, map[string]string{"error": err.Error()})
}
