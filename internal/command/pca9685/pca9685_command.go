package pca9685

import (
	"fmt"
	"sync"

	"github.com/Speshl/gorrc_drive/internal/command"
	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/Speshl/gorrc_drive/internal/vehicle"
	"github.com/googolgl/go-i2c"
	pcadriver "github.com/googolgl/go-pca9685"
	"github.com/rs/zerolog/log"
)

const (
	MaxValue = 1.0
	MinValue = 0.0
	AcRange  = pcadriver.ServoRangeDef

	MinAngle    = 0
	MaxAngle    = 180
	CenterAngle = 90

	MaxChannel = 15
)

// FractionSetter is the part of a pca9685 servo channel the steering needs.
type FractionSetter interface {
	Fraction(float32) error
}

// Servo drives the steering servo from one channel of a PCA9685 board.
type Servo struct {
	lock sync.Mutex
	cfg  config.SteerConfig

	bus   *i2c.Options
	servo FractionSetter

	initialized bool
	angle       int
}

func NewServo(cfg config.SteerConfig) *Servo {
	return &Servo{
		cfg: cfg,
	}
}

// NewServoWithChannel builds a servo on an already configured channel.
func NewServoWithChannel(cfg config.SteerConfig, servo FractionSetter) *Servo {
	return &Servo{
		cfg:   cfg,
		servo: servo,
	}
}

func (s *Servo) Init() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.servo == nil {
		if s.cfg.Channel < 0 || s.cfg.Channel > MaxChannel {
			return fmt.Errorf("invalid pca9685 channel: %d", s.cfg.Channel)
		}

		bus, err := i2c.New(s.cfg.Address, s.cfg.I2CDevice)
		if err != nil {
			return fmt.Errorf("error starting i2c with address - %w", err)
		}

		driver, err := pcadriver.New(bus, nil)
		if err != nil {
			closeErr := bus.Close()
			if closeErr != nil {
				log.Warn().Err(closeErr).Msg("failed closing i2c bus")
			}
			return fmt.Errorf("error getting servo driver - %w", err)
		}

		s.bus = bus
		s.servo = driver.ServoNew(s.cfg.Channel, &pcadriver.ServOptions{
			AcRange:  AcRange,
			MinPulse: float32(s.cfg.MinPulse),
			MaxPulse: float32(s.cfg.MaxPulse),
		})
	}

	s.initialized = true
	err := s.write(CenterAngle)
	if err != nil {
		return err
	}

	log.Info().Int("channel", s.cfg.Channel).Str("device", s.cfg.I2CDevice).Msg("pca9685 servo initialized")
	return nil
}

func (s *Servo) SetAngle(angle int) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.initialized {
		return command.ErrNotInitialized
	}
	return s.write(angle)
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

	s.initialized = false
	if s.bus != nil {
		err := s.bus.Close()
		s.bus = nil
		if err != nil {
			return fmt.Errorf("failed closing i2c bus: %w", err)
		}
	}
	return nil
}

func (s *Servo) write(angle int) error {
	s.angle = vehicle.Clamp(angle, MinAngle, MaxAngle)
	fraction := s.Fraction(s.angle)

	err := s.servo.Fraction(float32(fraction))
	if err != nil {
		return fmt.Errorf("failed setting servo value - angle: %d value: %.2f - error: %w", s.angle, fraction, err)
	}
	return nil
}

// Fraction maps an angle to the [0, 1] servo travel with trim and inversion.
func (s *Servo) Fraction(angle int) float64 {
	trimmed := vehicle.Clamp(angle+s.cfg.Offset, MinAngle, MaxAngle)
	mappedValue := vehicle.MapToRange(float64(trimmed), MinAngle, MaxAngle, MinValue, MaxValue)
	if s.cfg.Inverted {
		mappedValue = MaxValue - mappedValue
	}
	return mappedValue
}
