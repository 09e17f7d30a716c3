package command

import (
	"errors"
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

// PwmClock is shared by both hardware PWM channels, so the motor and the
// servo have to agree on it.
const PwmClock = 100000

var ErrNotInitialized = errors.New("driver not initialized")

// OutputPin is the subset of rpio.Pin used for digital outputs.
type OutputPin interface {
	Output()
	High()
	Low()
}

// PwmPin is the subset of rpio.Pin used for hardware PWM outputs.
type PwmPin interface {
	Mode(rpio.Mode)
	Freq(int)
	DutyCycle(dutyLen, cycleLen uint32)
}

var (
	gpioLock sync.Mutex
	gpioRefs int

	openGPIO  = rpio.Open
	closeGPIO = rpio.Close
)

// Open maps the gpio registers on first use. Every successful Open must be
// paired with a Close.
func Open() error {
	gpioLock.Lock()
	defer gpioLock.Unlock()

	if gpioRefs == 0 {
		err := openGPIO()
		if err != nil {
			return fmt.Errorf("failed opening rpio: %w", err)
		}
	}
	gpioRefs++
	return nil
}

func Close() error {
	gpioLock.Lock()
	defer gpioLock.Unlock()

	if gpioRefs == 0 {
		return nil
	}
	gpioRefs--
	if gpioRefs > 0 {
		return nil
	}

	err := closeGPIO()
	if err != nil {
		return fmt.Errorf("failed closing rpio: %w", err)
	}
	return nil
}
