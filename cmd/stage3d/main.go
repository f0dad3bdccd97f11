package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	hackpados "github.com/hack-pad/hackpadfs/os"

	"stage3d/internal/blob"
	"stage3d/internal/config"
	"stage3d/internal/server"
	"stage3d/internal/stage"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	listen := flag.String("listen", "", "HTTP listen address (overrides config)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	blobs, err := openBlobStore(cfg.DataDir)
	if err != nil {
		slog.Error("open blob store", "error", err)
		os.Exit(1)
	}

	mgr, err := stage.NewManager(blobs)
	if err != nil {
		slog.Error("init scene manager", "error", err)
		os.Exit(1)
	}

	svc := server.NewService(mgr, cfg)
	slog.Info("stage3d listening", "addr", cfg.Listen, "physics", cfg.ResolveServiceURL())
	if err := http.ListenAndServe(cfg.Listen, svc.Handler()); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// openBlobStore roots the blob store at dataDir, or in memory when no
// data directory is configured.
func openBlobStore(dataDir string) (*blob.Store, error) {
	if dataDir == "" {
		slog.Info("using in-memory scene store; scenes will not survive restarts")
		return blob.NewMemStore()
	}
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	root := hackpados.NewFS()
	return blob.NewStore(root).Sub(strings.TrimPrefix(filepath.ToSlash(abs), "/")), nil
}
