package pipwm

import (
	"fmt"
	"sync"

	"github.com/Speshl/gorrc_drive/internal/command"
	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/Speshl/gorrc_drive/internal/vehicle"
	"github.com/rs/zerolog/log"
	"github.com/stianeikeland/go-rpio/v4"
)

const (
	// CycleLength at the shared 100kHz clock is a 20ms (50Hz) servo frame,
	// one tick per 10us of pulse.
	CycleLength = uint32(2000)
	TickMicros  = 1000000 / command.PwmClock

	MinAngle    = 0
	MaxAngle    = 180
	CenterAngle = 90
)

var SupportedPins = map[int]bool{12: true, 13: true, 18: true, 19: true}

type Servo struct {
	lock sync.Mutex
	cfg  config.SteerConfig

	pin      command.PwmPin
	ownsGPIO bool

	initialized bool
	angle       int
}

func NewServo(cfg config.SteerConfig) *Servo {
	return &Servo{
		cfg: cfg,
	}
}

// NewServoWithPin builds a servo on an already mapped pin.
func NewServoWithPin(cfg config.SteerConfig, pin command.PwmPin) *Servo {
	return &Servo{
		cfg: cfg,
		pin: pin,
	}
}

func (s *Servo) Init() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.cfg.MaxPulse <= s.cfg.MinPulse {
		return fmt.Errorf("invalid servo pulse range: %.0f-%.0f", s.cfg.MinPulse, s.cfg.MaxPulse)
	}

	if s.pin == nil {
		if !SupportedPins[s.cfg.Pin] {
			return fmt.Errorf("pin %d has no hardware pwm", s.cfg.Pin)
		}
		err := command.Open()
		if err != nil {
			return fmt.Errorf("error starting servo - %w", err)
		}
		s.ownsGPIO = true
		s.pin = rpio.Pin(s.cfg.Pin)
	}

	s.pin.Mode(rpio.Pwm)
	s.pin.Freq(command.PwmClock)
	s.initialized = true
	s.write(CenterAngle)

	log.Info().Int("pin", s.cfg.Pin).Msg("servo initialized")
	return nil
}

func (s *Servo) SetAngle(angle int) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.initialized {
		return command.ErrNotInitialized
	}
	s.write(angle)
	return nil
}

// Angle is the last angle written, after clamping.
func (s *Servo) Angle() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.angle
}

func (s *Servo) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.initialized {
		return nil
	}
	s.initialized = false

	if s.ownsGPIO {
		s.ownsGPIO = false
		return command.Close()
	}
	return nil
}

func (s *Servo) write(angle int) {
	s.angle = vehicle.Clamp(angle, MinAngle, MaxAngle)
	s.pin.DutyCycle(PulseToDuty(s.Pulse(s.angle)), CycleLength)
}

// Pulse is the pulse width in microseconds for a clamped angle, with trim
// and inversion applied.
func (s *Servo) Pulse(angle int) float64 {
	trimmed := vehicle.Clamp(angle+s.cfg.Offset, MinAngle, MaxAngle)
	pulse := vehicle.MapToRange(float64(trimmed), MinAngle, MaxAngle, s.cfg.MinPulse, s.cfg.MaxPulse)
	if s.cfg.Inverted {
		pulse = s.cfg.MaxPulse + s.cfg.MinPulse - pulse
	}
	return pulse
}

func PulseToDuty(pulse float64) uint32 {
	return uint32(pulse / TickMicros)
}
