package tb6612

import (
	"fmt"
	"sync"

	"github.com/Speshl/gorrc_drive/internal/command"
	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/Speshl/gorrc_drive/internal/vehicle"
	"github.com/rs/zerolog/log"
	"github.com/stianeikeland/go-rpio/v4"
)

// CycleLength gives a raw speed of 255 full duty.
const CycleLength = uint32(255)

// Motor drives one channel of a TB6612 h-bridge: a standby pin, two
// direction pins and a hardware PWM pin.
type Motor struct {
	lock sync.Mutex
	cfg  config.MotorConfig

	standby command.OutputPin
	in1     command.OutputPin
	in2     command.OutputPin
	pwm     command.PwmPin

	ownsGPIO    bool
	initialized bool
}

func NewMotor(cfg config.MotorConfig) *Motor {
	return &Motor{
		cfg: cfg,
	}
}

// NewMotorWithPins builds a motor on already mapped pins.
func NewMotorWithPins(standby, in1, in2 command.OutputPin, pwm command.PwmPin) *Motor {
	return &Motor{
		standby: standby,
		in1:     in1,
		in2:     in2,
		pwm:     pwm,
	}
}

func (m *Motor) Init() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.pwm == nil {
		err := command.Open()
		if err != nil {
			return fmt.Errorf("error starting motor - %w", err)
		}
		m.ownsGPIO = true
		m.standby = rpio.Pin(m.cfg.StandbyPin)
		m.in1 = rpio.Pin(m.cfg.In1Pin)
		m.in2 = rpio.Pin(m.cfg.In2Pin)
		m.pwm = rpio.Pin(m.cfg.PwmPin)
	}

	m.standby.Output()
	m.in1.Output()
	m.in2.Output()
	m.pwm.Mode(rpio.Pwm)
	m.pwm.Freq(command.PwmClock)
	m.pwm.DutyCycle(0, CycleLength)

	// motor stays disabled until the first drive command
	m.standby.Low()
	m.initialized = true

	log.Info().Int("stby", m.cfg.StandbyPin).Int("in1", m.cfg.In1Pin).Int("in2", m.cfg.In2Pin).Int("pwm", m.cfg.PwmPin).Msg("motor initialized")
	return nil
}

func (m *Motor) SetSpeed(dir vehicle.Direction, speed uint8) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if !m.initialized {
		return command.ErrNotInitialized
	}

	switch dir {
	case vehicle.Forward:
		m.in1.High()
		m.in2.Low()
	case vehicle.Reverse:
		m.in1.Low()
		m.in2.High()
	default:
		return fmt.Errorf("unsupported direction: %d", dir)
	}
	m.standby.High()
	m.pwm.DutyCycle(uint32(speed), CycleLength)
	return nil
}

func (m *Motor) Stop() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if !m.initialized {
		return command.ErrNotInitialized
	}

	m.pwm.DutyCycle(0, CycleLength)
	m.standby.Low()
	return nil
}

func (m *Motor) Close() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if !m.initialized {
		return nil
	}
	m.pwm.DutyCycle(0, CycleLength)
	m.standby.Low()
	m.initialized = false

	if m.ownsGPIO {
		m.ownsGPIO = false
		return command.Close()
	}
	return nil
}
