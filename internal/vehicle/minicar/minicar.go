package minicar

import (
	"context"
	"time"

	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/Speshl/gorrc_drive/internal/lights"
	"github.com/Speshl/gorrc_drive/internal/vehicle"
	"github.com/rs/zerolog/log"
)

func NewMiniCar(cfg config.CarConfig, motor vehicle.MotorDriver, steer vehicle.SteeringDriver, renderer LightRenderer) *MiniCar {
	return &MiniCar{
		cfg:    cfg,
		motor:  motor,
		steer:  steer,
		lights: renderer,
		state: Snapshot{
			Angle: cfg.CenterAngle,
			Light: lights.Normal,
		},
	}
}

// Init brings up the drivers. A driver that fails stays disabled and its
// commands become no-ops, so the car still answers with broken hardware.
func (c *MiniCar) Init() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.motor != nil {
		err := c.motor.Init()
		if err != nil {
			log.Error().Err(err).Msg("motor unavailable, drive commands disabled")
		} else {
			c.motorReady = true
		}
	}

	if c.steer != nil {
		err := c.steer.Init()
		if err != nil {
			log.Error().Err(err).Msg("steering unavailable, steering commands disabled")
		} else {
			c.steerReady = true
		}
	}

	c.setAngle(c.cfg.CenterAngle)
	c.setLight(lights.Normal)
	log.Info().Bool("motor", c.motorReady).Bool("steering", c.steerReady).Msg("minicar initialized")
	return nil
}

// Start runs the command failsafe until ctx is done. With a zero
// CommandTimeout the car keeps its last command indefinitely.
func (c *MiniCar) Start(ctx context.Context) error {
	if c.cfg.CommandTimeout <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	log.Info().Dur("timeout", c.cfg.CommandTimeout).Msg("starting command failsafe")
	tick := c.cfg.CommandTimeout / 2
	if tick < MinSafetyTick {
		tick = MinSafetyTick
	}
	safetyTicker := time.NewTicker(tick)
	defer safetyTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("command failsafe stopped")
			return ctx.Err()
		case <-safetyTicker.C:
			c.lock.Lock()
			if c.state.Moving && time.Since(c.lastCommandTime) > c.cfg.CommandTimeout {
				log.Warn().Dur("since", time.Since(c.lastCommandTime)).Msg("no command received, stopping motor")
				c.halt()
				c.setLight(lights.Braking)
			}
			c.lock.Unlock()
		}
	}
}

func (c *MiniCar) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	log.Info().Msg("stopping minicar")
	if c.motorReady {
		err := c.motor.Stop()
		if err != nil {
			log.Warn().Err(err).Msg("failed stopping motor")
		}
		err = c.motor.Close()
		if err != nil {
			log.Warn().Err(err).Msg("failed closing motor")
		}
		c.motorReady = false
	}

	if c.steerReady {
		err := c.steer.Close()
		if err != nil {
			log.Warn().Err(err).Msg("failed closing steering")
		}
		c.steerReady = false
	}
	c.state.Moving = false
	c.state.Speed = 0
	return nil
}

func (c *MiniCar) State() Snapshot {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state
}

// the helpers below must be called with lock held

func (c *MiniCar) drive(dir vehicle.Direction, speed int) {
	speed = vehicle.Clamp(speed, MinSpeed, MaxSpeed)
	if c.motorReady {
		err := c.motor.SetSpeed(dir, uint8(speed))
		if err != nil {
			log.Warn().Err(err).Stringer("direction", dir).Int("speed", speed).Msg("failed setting motor speed")
		}
	}
	c.state.Direction = dir
	c.state.Speed = speed
	c.state.Moving = speed > 0
}

func (c *MiniCar) halt() {
	if c.motorReady {
		err := c.motor.Stop()
		if err != nil {
			log.Warn().Err(err).Msg("failed stopping motor")
		}
	}
	c.state.Speed = 0
	c.state.Moving = false
}

func (c *MiniCar) setAngle(angle int) {
	angle = vehicle.Clamp(angle, MinAngle, MaxAngle)
	if c.steerReady {
		err := c.steer.SetAngle(angle)
		if err != nil {
			log.Warn().Err(err).Int("angle", angle).Msg("failed setting steering angle")
		}
	}
	c.state.Angle = angle
}

func (c *MiniCar) setLight(state lights.State) {
	if c.lights != nil {
		c.lights.ApplyState(state)
	}
	c.state.Light = state
}

func (c *MiniCar) touch() {
	c.lastCommandTime = time.Now()
}
