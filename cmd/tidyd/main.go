// Command tidyd runs the tidy daemon in the foreground.
package main

import (
	"context"
	"log"

	"tidy/internal/config"
	"tidy/internal/daemonrun"
)

func main() {
	cfg, configPath, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{ConfigPath: configPath}); err != nil {
		log.Fatalf("tidyd: %v", err)
	}
}
