package main

import (
	"embed"
	"io/fs"
	"log"

	"whisper-transcriber/internal/bootstrap"
	"whisper-transcriber/internal/config"
	"whisper-transcriber/internal/logging"
)

//go:embed frontend
var appAssets embed.FS

func main() {
	logger := logging.Must(config.DevLogging())
	defer func() { _ = logger.Sync() }()

	assets, err := fs.Sub(appAssets, "frontend")
	if err != nil {
		log.Fatalf("frontend assets: %v", err)
	}

	app, err := bootstrap.NewWithAssets(assets, logger)
	if err != nil {
		log.Fatalf("bootstrap app: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("run app: %v", err)
	}
}
