package pca9685

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/Speshl/gorrc_drive/internal/command"
	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	values []float32
	err    error
}

func (f *fakeChannel) Fraction(v float32) error {
	if f.err != nil {
		return f.err
	}
	f.values = append(f.values, v)
	return nil
}

func (f *fakeChannel) last() float32 {
	return f.values[len(f.values)-1]
}

func TestInit_Centers(t *testing.T) {
	ch := &fakeChannel{}
	s := NewServoWithChannel(config.SteerConfig{}, ch)
	require.NoError(t, s.Init())

	require.Len(t, ch.values, 1)
	assert.InDelta(t, 0.5, ch.last(), 1e-6)
	assert.Equal(t, CenterAngle, s.Angle())
}

func TestSetAngle(t *testing.T) {
	ch := &fakeChannel{}
	s := NewServoWithChannel(config.SteerConfig{}, ch)
	require.NoError(t, s.Init())

	require.NoError(t, s.SetAngle(30))
	assert.InDelta(t, 30.0/180.0, ch.last(), 1e-6)

	require.NoError(t, s.SetAngle(150))
	assert.InDelta(t, 150.0/180.0, ch.last(), 1e-6)

	require.NoError(t, s.SetAngle(500))
	assert.InDelta(t, 1.0, ch.last(), 1e-6)
	assert.Equal(t, MaxAngle, s.Angle())
}

func TestFraction_Inverted(t *testing.T) {
	s := NewServoWithChannel(config.SteerConfig{Inverted: true}, &fakeChannel{})
	assert.InDelta(t, 1.0, s.Fraction(0), 1e-9)
	assert.InDelta(t, 0.0, s.Fraction(180), 1e-9)
}

func TestSetAngle_DriverError(t *testing.T) {
	busErr := errors.New("i2c write failed")
	ch := &fakeChannel{}
	s := NewServoWithChannel(config.SteerConfig{}, ch)
	require.NoError(t, s.Init())

	ch.err = busErr
	err := s.SetAngle(45)
	assert.ErrorIs(t, err, busErr)
}

func TestNotInitialized(t *testing.T) {
	s := NewServoWithChannel(config.SteerConfig{}, &fakeChannel{})
	assert.ErrorIs(t, s.SetAngle(90), command.ErrNotInitialized)
	assert.NoError(t, s.Close())
}

func TestInit_BadChannel(t *testing.T) {
	s := NewServo(config.SteerConfig{Channel: 16})
	assert.Error(t, s.Init())
}

func TestInit_MissingBus(t *testing.T) {
	s := NewServo(config.SteerConfig{
		Address:   0x40,
		I2CDevice: filepath.Join(t.TempDir(), "i2c-9"),
		MinPulse:  500,
		MaxPulse:  2500,
	})

	err := s.Init()
	require.Error(t, err)
	assert.ErrorIs(t, s.SetAngle(90), command.ErrNotInitialized)
	assert.NoError(t, s.Close())
}
