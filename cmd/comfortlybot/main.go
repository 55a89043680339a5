package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"comfortlybot/core/cmd"
	"comfortlybot/internal/app"
	"comfortlybot/internal/config"
)

func main() {
	// .env is optional; real deployments inject environment directly.
	_ = godotenv.Load()

	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config/config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			cfg, ok := carrier.(*config.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			return app.New(cfg)
		},
	})
	if err != nil {
		log.Fatalf("comfortlybot: %v", err)
	}
}
