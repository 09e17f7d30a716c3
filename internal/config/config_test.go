package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfig_Defaults(t *testing.T) {
	cfg := GetConfig()

	assert.False(t, cfg.ServerCfg.Enabled)
	assert.Equal(t, DefaultServer, cfg.ServerCfg.Server)
	assert.Equal(t, DefaultWebAddress, cfg.WebCfg.Address)
	assert.Equal(t, DefaultMotorPwmPin, cfg.MotorCfg.PwmPin)
	assert.Equal(t, DefaultSteerDriver, cfg.SteerCfg.Driver)
	assert.Equal(t, float64(DefaultMinPulse), cfg.SteerCfg.MinPulse)
	assert.Equal(t, float64(DefaultMaxPulse), cfg.SteerCfg.MaxPulse)
	assert.Equal(t, byte(DefaultSteerAddress), cfg.SteerCfg.Address)
	assert.Equal(t, DefaultPixelCount, cfg.LightCfg.PixelCount)
	assert.Equal(t, 500*time.Millisecond, cfg.LightCfg.BlinkInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.LightCfg.IdleInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.LightCfg.LockTimeout)
	assert.Equal(t, 30, cfg.CarCfg.LeftAngle)
	assert.Equal(t, 90, cfg.CarCfg.CenterAngle)
	assert.Equal(t, 150, cfg.CarCfg.RightAngle)
	assert.Zero(t, cfg.CarCfg.CommandTimeout)
	assert.Equal(t, DefaultHealthInterface, cfg.HealthCfg.Interface)
	assert.Equal(t, "info", cfg.LogCfg.Level)
}

func TestGetConfig_EnvOverrides(t *testing.T) {
	t.Setenv("GORRC_RELAY", "true")
	t.Setenv("GORRC_SERVER", "relay.local:9000")
	t.Setenv("GORRC_MOTOR_PWMPIN", "18")
	t.Setenv("GORRC_SERVODRIVER", "PCA9685")
	t.Setenv("GORRC_SERVO_INVERTED", "true\r")
	t.Setenv("GORRC_LIGHTS_BLINK", "250ms")
	t.Setenv("GORRC_CAR_DEADZONE", "0.25")
	t.Setenv("GORRC_LOG_LEVEL", "DEBUG")

	cfg := GetConfig()

	assert.True(t, cfg.ServerCfg.Enabled)
	assert.Equal(t, "relay.local:9000", cfg.ServerCfg.Server)
	assert.Equal(t, 18, cfg.MotorCfg.PwmPin)
	assert.Equal(t, "pca9685", cfg.SteerCfg.Driver)
	assert.True(t, cfg.SteerCfg.Inverted)
	assert.Equal(t, 250*time.Millisecond, cfg.LightCfg.BlinkInterval)
	assert.InDelta(t, 0.25, cfg.CarCfg.DeadZone, 1e-9)
	assert.Equal(t, "debug", cfg.LogCfg.Level)
}

func TestGetConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("GORRC_MOTOR_PWMPIN", "thirteen")
	t.Setenv("GORRC_LIGHTS_ENABLED", "sometimes")
	t.Setenv("GORRC_LIGHTS_IDLE", "soon")

	cfg := GetConfig()

	assert.Equal(t, DefaultMotorPwmPin, cfg.MotorCfg.PwmPin)
	assert.Equal(t, DefaultLightsEnabled, cfg.LightCfg.Enabled)
	assert.Equal(t, DefaultIdleInterval, cfg.LightCfg.IdleInterval)
}

func TestGetConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gorrc.yaml")
	contents := "web_address: \":9090\"\ncar_leftangle: 20\ncar_rightangle: 160\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	t.Setenv("GORRC_CONFIG", path)
	t.Setenv("GORRC_CAR_RIGHTANGLE", "170")

	cfg := GetConfig()

	assert.Equal(t, ":9090", cfg.WebCfg.Address)
	assert.Equal(t, 20, cfg.CarCfg.LeftAngle)
	assert.Equal(t, 170, cfg.CarCfg.RightAngle)
}

func TestGetConfig_MissingFile(t *testing.T) {
	t.Setenv("GORRC_CONFIG", "/nonexistent/gorrc.yaml")

	cfg := GetConfig()

	assert.Equal(t, DefaultWebAddress, cfg.WebCfg.Address)
}
