package config

import "time"

const (
	AppEnvBase    = "GORRC"
	ConfigFileEnv = "CONFIG"

	// Default Relay Options
	DefaultRelayEnabled  = false
	DefaultServer        = "127.0.0.1:8181"
	DefaultCarKey        = ""
	DefaultPassword      = ""
	DefaultSilentConnect = false

	// Default Web Options
	DefaultWebAddress = ":80"
	DefaultStaticDir  = "./web"

	// Default Motor Options (TB6612 channel B)
	DefaultMotorStandbyPin = 17
	DefaultMotorIn1Pin     = 27
	DefaultMotorIn2Pin     = 22
	DefaultMotorPwmPin     = 13

	SteerDriverPiPwm   = "pipwm"
	SteerDriverPCA9685 = "pca9685"

	// Default Steering Options
	DefaultSteerDriver    = SteerDriverPiPwm
	DefaultSteerPin       = 12
	DefaultSteerChannel   = 0
	DefaultSteerAddress   = 0x40
	DefaultSteerI2CDevice = "/dev/i2c-1"
	DefaultMaxPulse       = 2500
	DefaultMinPulse       = 500
	DefaultInverted       = false
	DefaultOffset         = 0

	// Default Light Options
	DefaultLightsEnabled  = true
	DefaultPixelCount     = 4
	DefaultSpiSpeed       = 2400000
	DefaultBlinkInterval  = 500 * time.Millisecond
	DefaultIdleInterval   = 100 * time.Millisecond
	DefaultLockTimeout    = 100 * time.Millisecond
	DefaultStatusEnabled  = true
	DefaultStatusRedPin   = 5
	DefaultStatusGreenPin = 6
	DefaultStatusBluePin  = 26

	// Default Car Options
	DefaultLeftAngle      = 30
	DefaultCenterAngle    = 90
	DefaultRightAngle     = 150
	DefaultCommandTimeout = time.Duration(0)
	DefaultDeadZone       = 0.1

	// Default Speaker Options
	DefaultSpeakerEnabled  = false
	DefaultSpeakerDevice   = ""
	DefaultSpeakerSoundDir = "./sounds"

	// Default Health Options
	DefaultHealthInterface = "wlan0"
	DefaultHealthInterval  = 30 * time.Second

	// Default Log Options
	DefaultLogLevel  = "info"
	DefaultLogPretty = false
)

type Config struct {
	ServerCfg  ServerConfig
	WebCfg     WebConfig
	MotorCfg   MotorConfig
	SteerCfg   SteerConfig
	LightCfg   LightConfig
	CarCfg     CarConfig
	SpeakerCfg SpeakerConfig
	HealthCfg  HealthConfig
	LogCfg     LogConfig
}

// ServerConfig is the optional socket.io relay the car registers with.
type ServerConfig struct {
	Enabled       bool
	Server        string
	Key           string
	Password      string
	SilentConnect bool
}

type WebConfig struct {
	Address   string
	StaticDir string
}

type MotorConfig struct {
	StandbyPin int
	In1Pin     int
	In2Pin     int
	PwmPin     int
}

type SteerConfig struct {
	Driver    string
	Pin       int
	Channel   int
	Address   byte
	I2CDevice string
	MaxPulse  float64
	MinPulse  float64
	Inverted  bool
	Offset    int
}

type LightConfig struct {
	Enabled        bool
	PixelCount     int
	SpiSpeed       int
	BlinkInterval  time.Duration
	IdleInterval   time.Duration
	LockTimeout    time.Duration
	StatusEnabled  bool
	StatusRedPin   int
	StatusGreenPin int
	StatusBluePin  int
}

type CarConfig struct {
	LeftAngle      int
	CenterAngle    int
	RightAngle     int
	CommandTimeout time.Duration
	DeadZone       float64
}

type SpeakerConfig struct {
	Enabled  bool
	Device   string
	SoundDir string
}

type HealthConfig struct {
	Interface string
	Interval  time.Duration
}

type LogConfig struct {
	Level  string
	Pretty bool
}
