package rgbled

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/Speshl/gorrc_drive/internal/command"
	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/stianeikeland/go-rpio/v4"
)

// Threshold is the channel value at which a color component turns on.
const Threshold = 64

// Led is a common cathode rgb led on three gpio pins, exposed as a one pixel
// strip. Channels are on or off.
type Led struct {
	lock sync.Mutex
	cfg  config.LightConfig

	red, green, blue command.OutputPin
	ownsGPIO         bool

	initialized bool
	pending     color.RGBA
}

func NewLed(cfg config.LightConfig) *Led {
	return &Led{
		cfg: cfg,
	}
}

// NewLedWithPins builds a led on already mapped pins.
func NewLedWithPins(red, green, blue command.OutputPin) *Led {
	return &Led{
		red:   red,
		green: green,
		blue:  blue,
	}
}

func (l *Led) Init() error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.red == nil {
		err := command.Open()
		if err != nil {
			return fmt.Errorf("error starting status led - %w", err)
		}
		l.ownsGPIO = true
		l.red = rpio.Pin(l.cfg.StatusRedPin)
		l.green = rpio.Pin(l.cfg.StatusGreenPin)
		l.blue = rpio.Pin(l.cfg.StatusBluePin)
	}

	l.red.Output()
	l.green.Output()
	l.blue.Output()
	l.pending = color.RGBA{}
	l.initialized = true
	l.show()

	log.Info().Int("red", l.cfg.StatusRedPin).Int("green", l.cfg.StatusGreenPin).Int("blue", l.cfg.StatusBluePin).Msg("status led initialized")
	return nil
}

func (l *Led) Len() int {
	return 1
}

func (l *Led) SetPixel(i int, c color.RGBA) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if !l.initialized {
		return command.ErrNotInitialized
	}
	if i != 0 {
		return fmt.Errorf("status led has one pixel, got index %d", i)
	}
	l.pending = c
	return nil
}

func (l *Led) Show() error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if !l.initialized {
		return command.ErrNotInitialized
	}
	l.show()
	return nil
}

func (l *Led) Close() error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if !l.initialized {
		return nil
	}
	l.pending = color.RGBA{}
	l.show()
	l.initialized = false

	if l.ownsGPIO {
		l.ownsGPIO = false
		return command.Close()
	}
	return nil
}

func (l *Led) show() {
	write(l.red, l.pending.R)
	write(l.green, l.pending.G)
	write(l.blue, l.pending.B)
}

func write(pin command.OutputPin, value uint8) {
	if value >= Threshold {
		pin.High()
	} else {
		pin.Low()
	}
}
