package main

import (
	"log"

	"whisper-transcriber/internal/bootstrap"
	"whisper-transcriber/internal/logging"
)

func main() {
	logger := logging.Must(true)
	defer func() { _ = logger.Sync() }()

	app, err := bootstrap.New(logger)
	if err != nil {
		log.Fatalf("bootstrap app: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("run app: %v", err)
	}
}
