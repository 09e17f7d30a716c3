package ws2812

import (
	"errors"
	"fmt"
	"image/color"
	"sync"

	"github.com/Speshl/gorrc_drive/internal/command"
	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/stianeikeland/go-rpio/v4"
)

const (
	// At 2.4MHz every data bit is sent as three spi bits: 110 for one, 100
	// for zero.
	BitsPerDataBit = 3
	BytesPerColor  = 3 * BitsPerDataBit

	// 280us of low line latches the frame at 2.4MHz.
	ResetBytes = 84
)

var ErrPixelRange = errors.New("pixel index out of range")

// Bus transmits an encoded frame.
type Bus interface {
	Transmit([]byte) error
	Close() error
}

type spiBus struct{}

var (
	openGPIO  = command.Open
	closeGPIO = command.Close
	spiBegin  = rpio.SpiBegin
)

func openSPI(speed int) (Bus, error) {
	err := openGPIO()
	if err != nil {
		return nil, err
	}

	err = spiBegin(rpio.Spi0)
	if err != nil {
		closeErr := closeGPIO()
		if closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed releasing gpio after spi error")
		}
		return nil, fmt.Errorf("failed starting spi0: %w", err)
	}
	rpio.SpiSpeed(speed)
	rpio.SpiChipSelect(0)
	return spiBus{}, nil
}

func (spiBus) Transmit(data []byte) error {
	rpio.SpiTransmit(data...)
	return nil
}

func (spiBus) Close() error {
	rpio.SpiEnd(rpio.Spi0)
	return closeGPIO()
}

// Strip is a chain of WS2812 pixels driven from the spi0 MOSI pin.
type Strip struct {
	lock sync.Mutex
	cfg  config.LightConfig

	bus    Bus
	pixels []color.RGBA
	buf    []byte
}

func NewStrip(cfg config.LightConfig) *Strip {
	return &Strip{
		cfg: cfg,
	}
}

// NewStripWithBus builds a strip that writes frames to bus.
func NewStripWithBus(bus Bus) *Strip {
	return &Strip{
		bus: bus,
	}
}

func (s *Strip) Init(pixelCount int) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if pixelCount <= 0 {
		return fmt.Errorf("invalid pixel count: %d", pixelCount)
	}

	if s.bus == nil {
		bus, err := openSPI(s.cfg.SpiSpeed)
		if err != nil {
			return fmt.Errorf("error starting led strip - %w", err)
		}
		s.bus = bus
	}

	s.pixels = make([]color.RGBA, pixelCount)
	s.buf = make([]byte, pixelCount*BytesPerColor+ResetBytes)

	log.Info().Int("pixels", pixelCount).Msg("led strip initialized")
	return s.show()
}

func (s *Strip) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.pixels)
}

// SetPixel stages a color. Nothing is sent until Show.
func (s *Strip) SetPixel(i int, c color.RGBA) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.pixels == nil {
		return command.ErrNotInitialized
	}
	if i < 0 || i >= len(s.pixels) {
		return fmt.Errorf("%w: %d", ErrPixelRange, i)
	}
	s.pixels[i] = c
	return nil
}

func (s *Strip) Show() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.pixels == nil {
		return command.ErrNotInitialized
	}
	return s.show()
}

func (s *Strip) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.pixels == nil {
		return nil
	}
	for i := range s.pixels {
		s.pixels[i] = color.RGBA{}
	}
	err := s.show()
	if err != nil {
		log.Warn().Err(err).Msg("failed clearing led strip")
	}
	s.pixels = nil
	return s.bus.Close()
}

func (s *Strip) show() error {
	n := EncodeInto(s.buf, s.pixels)
	err := s.bus.Transmit(s.buf[:n])
	if err != nil {
		return fmt.Errorf("failed writing led strip: %w", err)
	}
	return nil
}

// Encode returns the spi stream for pixels, reset trailer included.
func Encode(pixels []color.RGBA) []byte {
	buf := make([]byte, len(pixels)*BytesPerColor+ResetBytes)
	n := EncodeInto(buf, pixels)
	return buf[:n]
}

// EncodeInto writes the spi stream for pixels into buf, which must hold
// len(pixels)*BytesPerColor+ResetBytes bytes, and returns the bytes used.
func EncodeInto(buf []byte, pixels []color.RGBA) int {
	n := 0
	for _, c := range pixels {
		// the strip expects green, red, blue
		for _, b := range [3]uint8{c.G, c.R, c.B} {
			bits := expand(b)
			buf[n] = byte(bits >> 16)
			buf[n+1] = byte(bits >> 8)
			buf[n+2] = byte(bits)
			n += BitsPerDataBit
		}
	}
	for i := 0; i < ResetBytes; i++ {
		buf[n] = 0
		n++
	}
	return n
}

// expand turns one data byte into 24 spi bits, most significant bit first.
func expand(b uint8) uint32 {
	var bits uint32
	for i := 7; i >= 0; i-- {
		bits <<= BitsPerDataBit
		if b&(1<<uint(i)) != 0 {
			bits |= 0b110
		} else {
			bits |= 0b100
		}
	}
	return bits
}
