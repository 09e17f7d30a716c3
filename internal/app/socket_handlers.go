package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Speshl/gorrc_drive/internal/models"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"
)

func encode(in any) (string, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("error encoding message - %w", err)
	}
	return string(data), nil
}

func decode(in string, out any) error {
	err := json.Unmarshal([]byte(in), out)
	if err != nil {
		return fmt.Errorf("error decoding message - %w", err)
	}
	return nil
}

func (a *App) RegisterHandlers() {
	log.Info().Msg("registering relay handlers")
	a.client.OnConnect(func(s socketio.Conn) error {
		log.Info().Str("id", s.ID()).Msg("connected to relay")
		a.lights.SetConnected(true)
		return nil
	})

	a.client.OnDisconnect(func(s socketio.Conn, reason string) {
		log.Warn().Str("reason", reason).Msg("disconnected from relay")
		a.lights.SetConnected(false)
	})

	a.client.OnEvent("reply", func(s socketio.Conn, msg string) {
		log.Debug().Str("reply", msg).Msg("relay reply")
	})

	a.client.OnEvent("register_success", a.onRegisterSuccess)

	a.client.OnEvent("command", a.onCommand)
}

// startRelay connects to the relay, registers the car and waits for ctx.
func (a *App) startRelay(ctx context.Context) error {
	a.RegisterHandlers()

	log.Info().Str("server", a.cfg.ServerCfg.Server).Msg("attemping to connect to relay...")
	err := a.client.Connect() //Client must have atleast 1 event handler to work
	if err != nil {
		return fmt.Errorf("error connecting to relay - %w", err)
	}

	encodedMsg, err := encode(models.ConnectReq{
		Key:      a.cfg.ServerCfg.Key,
		Password: a.cfg.ServerCfg.Password,
	})
	if err != nil {
		return err
	}
	a.client.Emit("car_connect", encodedMsg)

	<-ctx.Done()
	log.Info().Msg("relay stopped")
	return ctx.Err()
}

func (a *App) onRegisterSuccess(socketConn socketio.Conn, msg string) {
	decodedMsg := models.ConnectResp{}
	err := decode(msg, &decodedMsg)
	if err != nil {
		log.Warn().Err(err).Str("id", socketConn.ID()).Msg("register response failed unmarshaling")
		return
	}

	a.carInfo = decodedMsg.Car
	log.Info().Str("name", a.carInfo.Name).Str("short_name", a.carInfo.ShortName).Msg("car registered with relay")
}

func (a *App) onCommand(socketConn socketio.Conn, msg string) {
	a.handleRelayCommand(msg)
}

// handleRelayCommand runs a command frame that arrived through the relay.
// It accepts the same frames as the local websocket.
func (a *App) handleRelayCommand(msg string) bool {
	cmd, err := models.ParseCommand([]byte(msg))
	if err != nil {
		log.Warn().Err(err).Msg("rejecting relay command")
		return false
	}

	if cmd.Type == models.MsgTypeRcCommand {
		err = a.car.Drive(cmd.Payload.Throttle, cmd.Payload.Steering)
	} else {
		err = a.car.Dispatch(cmd.Command, cmd.CommandValue())
	}
	if err != nil {
		log.Error().Err(err).Str("command", cmd.Command).Msg("relay command failed")
	}
	return true
}
