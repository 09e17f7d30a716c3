package minicar

import (
	"math"

	"github.com/Speshl/gorrc_drive/internal/lights"
	"github.com/Speshl/gorrc_drive/internal/models"
	"github.com/Speshl/gorrc_drive/internal/vehicle"
	"github.com/rs/zerolog/log"
)

// Every command drives its actuator first and then sets exactly one light
// state. Driver failures are logged, commands themselves never fail.

func (c *MiniCar) Forward(speed int) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.touch()
	c.drive(vehicle.Forward, speed)
	c.setLight(lights.Normal)
	return nil
}

func (c *MiniCar) Reverse(speed int) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.touch()
	c.drive(vehicle.Reverse, speed)
	c.setLight(lights.Reversing)
	return nil
}

func (c *MiniCar) Stop() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.touch()
	c.halt()
	c.setLight(lights.Braking)
	return nil
}

func (c *MiniCar) Left() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.touch()
	c.setAngle(c.cfg.LeftAngle)
	c.setLight(lights.SteeringLeft)
	return nil
}

func (c *MiniCar) Right() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.touch()
	c.setAngle(c.cfg.RightAngle)
	c.setLight(lights.SteeringRight)
	return nil
}

func (c *MiniCar) Center() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.touch()
	c.setAngle(c.cfg.CenterAngle)
	c.setLight(lights.Normal)
	return nil
}

// SetAngle points the steering at a custom angle and leaves the lights alone.
func (c *MiniCar) SetAngle(angle int) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.touch()
	c.setAngle(angle)
	return nil
}

// Drive applies an analog joystick command, both axes in [-1, 1]. Off center
// steering decides the light state, otherwise the throttle does.
func (c *MiniCar) Drive(throttle, steering float64) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	throttle = vehicle.GetValueWithMidDeadZone(clampInput(throttle), 0, c.cfg.DeadZone)
	steering = vehicle.GetValueWithMidDeadZone(clampInput(steering), 0, c.cfg.DeadZone)

	c.touch()

	var light lights.State
	switch {
	case throttle > 0:
		c.drive(vehicle.Forward, int(math.Round(throttle*MaxSpeed)))
		light = lights.Normal
	case throttle < 0:
		c.drive(vehicle.Reverse, int(math.Round(-throttle*MaxSpeed)))
		light = lights.Reversing
	default:
		c.halt()
		light = lights.Braking
	}

	switch {
	case steering < 0:
		c.setAngle(c.steeringAngle(steering))
		light = lights.SteeringLeft
	case steering > 0:
		c.setAngle(c.steeringAngle(steering))
		light = lights.SteeringRight
	default:
		c.setAngle(c.cfg.CenterAngle)
	}

	c.setLight(light)
	return nil
}

// steeringAngle scales from center towards the left angle for negative input
// and towards the right angle for positive input.
func (c *MiniCar) steeringAngle(steering float64) int {
	center := float64(c.cfg.CenterAngle)
	if steering < 0 {
		return int(math.Round(center + steering*(center-float64(c.cfg.LeftAngle))))
	}
	return int(math.Round(center + steering*(float64(c.cfg.RightAngle)-center)))
}

// Dispatch runs a named command. Unknown names are ignored.
func (c *MiniCar) Dispatch(command string, value int) error {
	switch command {
	case models.CommandForward, models.CommandForwardAbbr:
		return c.Forward(value)
	case models.CommandReverse, models.CommandReverseAbbr:
		return c.Reverse(value)
	case models.CommandStop:
		return c.Stop()
	case models.CommandLeft:
		return c.Left()
	case models.CommandRight:
		return c.Right()
	case models.CommandCenter:
		return c.Center()
	case models.CommandSteer:
		return c.SetAngle(value)
	default:
		log.Debug().Str("command", command).Msg("ignoring unknown command")
		return nil
	}
}

func clampInput(value float64) float64 {
	if math.IsNaN(value) {
		return 0
	}
	return math.Max(MinInput, math.Min(MaxInput, value))
}
