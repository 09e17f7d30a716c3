package app

import (
	"github.com/Speshl/gorrc_drive/internal/command/pca9685"
	pipwm "github.com/Speshl/gorrc_drive/internal/command/pi_pwm"
	"github.com/Speshl/gorrc_drive/internal/command/rgbled"
	"github.com/Speshl/gorrc_drive/internal/command/tb6612"
	"github.com/Speshl/gorrc_drive/internal/command/ws2812"
	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/Speshl/gorrc_drive/internal/lights"
	"github.com/Speshl/gorrc_drive/internal/server"
	"github.com/Speshl/gorrc_drive/internal/vehicle"
	"github.com/Speshl/gorrc_drive/internal/vehicle/minicar"
	"github.com/rs/zerolog/log"
)

type closer struct {
	name  string
	close func() error
}

// initHardware opens the light outputs and the drivers. Missing hardware
// is logged and left out so the car still serves commands.
func (a *App) initHardware() {
	strip, status := a.initLights(a.cfg.LightCfg)
	a.lights = lights.New(strip, status)
	a.blinker = lights.NewBlinker(a.lights, a.cfg.LightCfg)
	a.lights.SetConnected(false)

	a.car = minicar.NewMiniCar(a.cfg.CarCfg, tb6612.NewMotor(a.cfg.MotorCfg), newSteering(a.cfg.SteerCfg), a.lights)
	err := a.car.Init()
	if err != nil {
		log.Error().Err(err).Msg("failed initializing car")
	}
	a.closers = append(a.closers, closer{name: "car", close: a.car.Close})

	a.server = server.NewServer(a.cfg.WebCfg, a.car, a.onConnection)
}

// initLights returns nil for any output that is disabled or fails to open.
func (a *App) initLights(cfg config.LightConfig) (lights.Strip, lights.Strip) {
	var strip, status lights.Strip

	if cfg.Enabled {
		s := ws2812.NewStrip(cfg)
		err := s.Init(cfg.PixelCount)
		if err != nil {
			log.Error().Err(err).Msg("led strip unavailable, vehicle lights disabled")
		} else {
			strip = s
			a.closers = append(a.closers, closer{name: "led strip", close: s.Close})
		}
	}

	if cfg.StatusEnabled {
		l := rgbled.NewLed(cfg)
		err := l.Init()
		if err != nil {
			log.Error().Err(err).Msg("status led unavailable, status indicator disabled")
		} else {
			status = l
			a.closers = append(a.closers, closer{name: "status led", close: l.Close})
		}
	}
	return strip, status
}

func newSteering(cfg config.SteerConfig) vehicle.SteeringDriver {
	switch cfg.Driver {
	case config.SteerDriverPCA9685:
		return pca9685.NewServo(cfg)
	case config.SteerDriverPiPwm:
		return pipwm.NewServo(cfg)
	default:
		log.Warn().Str("driver", cfg.Driver).Msg("unknown steering driver, using pipwm")
		return pipwm.NewServo(cfg)
	}
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		err := a.closers[i].close()
		if err != nil {
			log.Warn().Err(err).Str("device", a.closers[i].name).Msg("failed closing device")
		}
	}
	a.closers = nil

	if a.client != nil {
		err := a.client.Close()
		if err != nil {
			log.Warn().Err(err).Msg("failed closing relay client")
		}
	}
}
