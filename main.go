package main

import (
	"fmt"

	"github.com/Speshl/gorrc_drive/internal/app"
	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/Speshl/gorrc_drive/internal/logging"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.GetConfig()
	logging.Setup(cfg.LogCfg)

	var client *socketio.Client
	if cfg.ServerCfg.Enabled {
		socketURI := fmt.Sprintf("http://%s", cfg.ServerCfg.Server)
		var err error
		client, err = socketio.NewClient(socketURI, nil)
		if err != nil {
			log.Fatal().Err(err).Msg("error creating relay client")
		}
	}

	app := app.NewApp(cfg, client)

	err := app.Start()
	if err != nil {
		log.Error().Err(err).Msg("car shutdown with error")
	} else {
		log.Info().Msg("car shutdown successfully")
	}
}
