package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/Speshl/gorrc_drive/internal/lights"
	"github.com/Speshl/gorrc_drive/internal/models"
	"github.com/Speshl/gorrc_drive/internal/server"
	"github.com/Speshl/gorrc_drive/internal/speaker"
	"github.com/Speshl/gorrc_drive/internal/vehicle/minicar"
	socketio "github.com/googollee/go-socket.io"
	"github.com/prometheus/procfs"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	BootFlashes     = 3
	BootFlashDelay  = 150 * time.Millisecond
	StartupCueDelay = 3 * time.Second
	ShutdownCueWait = 3 * time.Second
)

type App struct {
	ctx       context.Context
	ctxCancel context.CancelFunc

	cfg config.Config

	car     *minicar.MiniCar
	lights  *lights.Lights
	blinker *lights.Blinker
	server  *server.Server
	closers []closer

	client  *socketio.Client
	carInfo models.Car

	speakerChannel chan string
	speaker        *speaker.Speaker

	netStats func() (procfs.NetDev, error)
}

// NewApp wires the components without touching hardware. client is the
// relay connection and may be nil.
func NewApp(cfg config.Config, client *socketio.Client) *App {
	ctx, cancel := context.WithCancel(context.Background())

	speakerChannel := make(chan string, 100)

	return &App{
		ctx:            ctx,
		ctxCancel:      cancel,
		cfg:            cfg,
		client:         client,
		speakerChannel: speakerChannel,
		speaker:        speaker.NewSpeaker(cfg.SpeakerCfg, speakerChannel),
		netStats:       selfNetDev,
	}
}

// Start brings up the hardware and runs every task until a signal arrives
// or one of them fails.
func (a *App) Start() error {
	log.Info().Msg("starting...")
	a.initHardware()

	group, groupCtx := errgroup.WithContext(a.ctx)

	defer func() {
		log.Info().Msg("stopping...")
		a.close()
	}()

	//kill listener
	group.Go(func() error {
		signalChannel := make(chan os.Signal, 1)
		signal.Notify(signalChannel, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(signalChannel)
		select {
		case sig := <-signalChannel:
			log.Info().Stringer("signal", sig).Msg("received signal")
			a.stop()
			return nil
		case <-groupCtx.Done():
			log.Info().Msg("closing signal goroutine")
			return groupCtx.Err()
		}
	})

	group.Go(func() error {
		return a.speaker.Start(groupCtx)
	})

	group.Go(func() error {
		return a.blinker.Start(groupCtx)
	})

	group.Go(func() error {
		err := a.lights.FlashStatus(groupCtx, lights.White, BootFlashes, BootFlashDelay)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	//command failsafe
	group.Go(func() error {
		return a.car.Start(groupCtx)
	})

	group.Go(func() error {
		return a.server.Start(groupCtx)
	})

	group.Go(func() error {
		return a.healthCheck(groupCtx)
	})

	if a.client != nil {
		group.Go(func() error {
			return a.startRelay(groupCtx)
		})
	}

	group.Go(func() error {
		select {
		case <-groupCtx.Done():
		case <-time.After(StartupCueDelay):
			a.speaker.Queue(speaker.SoundStartup)
		}
		return nil
	})

	err := group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server stopping due to error - %w", err)
	}

	log.Info().Msg("shutting down")
	return nil
}

// stop plays the shutdown cue, then cancels every task.
func (a *App) stop() {
	cueCtx, cancel := context.WithTimeout(context.Background(), ShutdownCueWait)
	defer cancel()
	err := a.speaker.Play(cueCtx, speaker.SoundShutdown)
	if err != nil {
		log.Warn().Err(err).Msg("failed to play shutdown sound")
	}
	a.ctxCancel()
}

// onConnection follows the number of attached control clients.
func (a *App) onConnection(connected bool) {
	a.lights.SetConnected(connected)
	if a.cfg.ServerCfg.SilentConnect {
		return
	}
	if connected {
		a.speaker.Queue(speaker.SoundClientConnected)
	} else {
		a.speaker.Queue(speaker.SoundClientDisconnected)
	}
}
