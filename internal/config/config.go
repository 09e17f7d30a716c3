package config

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

func GetConfig() Config {
	v := newViper()
	cfg := Config{
		ServerCfg:  GetServerConfig(v),
		WebCfg:     GetWebConfig(v),
		MotorCfg:   GetMotorConfig(v),
		SteerCfg:   GetSteerConfig(v),
		LightCfg:   GetLightConfig(v),
		CarCfg:     GetCarConfig(v),
		SpeakerCfg: GetSpeakerConfig(v),
		HealthCfg:  GetHealthConfig(v),
		LogCfg:     GetLogConfig(v),
	}

	log.Debug().Msgf("app config: %+v", cfg)
	return cfg
}

// newViper reads GORRC_* environment variables. When GORRC_CONFIG names a
// file it is loaded first and the environment still wins.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(AppEnvBase)
	v.AutomaticEnv()

	path, found := os.LookupEnv(AppEnvBase + "_" + ConfigFileEnv)
	if found && path != "" {
		v.SetConfigFile(strings.Trim(path, "\r"))
		err := v.ReadInConfig()
		if err != nil {
			log.Warn().Err(err).Msgf("config file %s not loaded", path)
		}
	}
	return v
}

func GetServerConfig(v *viper.Viper) ServerConfig {
	return ServerConfig{
		Enabled:       GetBoolEnv(v, "RELAY", DefaultRelayEnabled),
		Server:        GetStringEnv(v, "SERVER", DefaultServer),
		Key:           GetStringEnv(v, "CARKEY", DefaultCarKey),
		Password:      GetStringEnv(v, "CARPASSWORD", DefaultPassword),
		SilentConnect: GetBoolEnv(v, "SILENTCONNECT", DefaultSilentConnect),
	}
}

func GetWebConfig(v *viper.Viper) WebConfig {
	return WebConfig{
		Address:   GetStringEnv(v, "WEB_ADDRESS", DefaultWebAddress),
		StaticDir: GetStringEnv(v, "WEB_STATICDIR", DefaultStaticDir),
	}
}

func GetMotorConfig(v *viper.Viper) MotorConfig {
	envPrefix := "MOTOR_"
	return MotorConfig{
		StandbyPin: GetIntEnv(v, envPrefix+"STBYPIN", DefaultMotorStandbyPin),
		In1Pin:     GetIntEnv(v, envPrefix+"IN1PIN", DefaultMotorIn1Pin),
		In2Pin:     GetIntEnv(v, envPrefix+"IN2PIN", DefaultMotorIn2Pin),
		PwmPin:     GetIntEnv(v, envPrefix+"PWMPIN", DefaultMotorPwmPin),
	}
}

func GetSteerConfig(v *viper.Viper) SteerConfig {
	envPrefix := "SERVO_"
	return SteerConfig{
		Driver:    strings.ToLower(GetStringEnv(v, "SERVODRIVER", DefaultSteerDriver)),
		Pin:       GetIntEnv(v, envPrefix+"PIN", DefaultSteerPin),
		Channel:   GetIntEnv(v, envPrefix+"CHANNEL", DefaultSteerChannel),
		Address:   DefaultSteerAddress,
		I2CDevice: GetStringEnv(v, "I2CDEVICE", DefaultSteerI2CDevice),
		MaxPulse:  float64(GetIntEnv(v, envPrefix+"MAXPULSE", DefaultMaxPulse)),
		MinPulse:  float64(GetIntEnv(v, envPrefix+"MINPULSE", DefaultMinPulse)),
		Inverted:  GetBoolEnv(v, envPrefix+"INVERTED", DefaultInverted),
		Offset:    GetIntEnv(v, envPrefix+"MIDOFFSET", DefaultOffset),
	}
}

func GetLightConfig(v *viper.Viper) LightConfig {
	envPrefix := "LIGHTS_"
	return LightConfig{
		Enabled:        GetBoolEnv(v, envPrefix+"ENABLED", DefaultLightsEnabled),
		PixelCount:     GetIntEnv(v, envPrefix+"PIXELS", DefaultPixelCount),
		SpiSpeed:       GetIntEnv(v, envPrefix+"SPISPEED", DefaultSpiSpeed),
		BlinkInterval:  GetDurationEnv(v, envPrefix+"BLINK", DefaultBlinkInterval),
		IdleInterval:   GetDurationEnv(v, envPrefix+"IDLE", DefaultIdleInterval),
		LockTimeout:    GetDurationEnv(v, envPrefix+"LOCKTIMEOUT", DefaultLockTimeout),
		StatusEnabled:  GetBoolEnv(v, "STATUS_ENABLED", DefaultStatusEnabled),
		StatusRedPin:   GetIntEnv(v, "STATUS_REDPIN", DefaultStatusRedPin),
		StatusGreenPin: GetIntEnv(v, "STATUS_GREENPIN", DefaultStatusGreenPin),
		StatusBluePin:  GetIntEnv(v, "STATUS_BLUEPIN", DefaultStatusBluePin),
	}
}

func GetCarConfig(v *viper.Viper) CarConfig {
	envPrefix := "CAR_"
	return CarConfig{
		LeftAngle:      GetIntEnv(v, envPrefix+"LEFTANGLE", DefaultLeftAngle),
		CenterAngle:    GetIntEnv(v, envPrefix+"CENTERANGLE", DefaultCenterAngle),
		RightAngle:     GetIntEnv(v, envPrefix+"RIGHTANGLE", DefaultRightAngle),
		CommandTimeout: GetDurationEnv(v, envPrefix+"COMMANDTIMEOUT", DefaultCommandTimeout),
		DeadZone:       GetFloatEnv(v, envPrefix+"DEADZONE", DefaultDeadZone),
	}
}

func GetSpeakerConfig(v *viper.Viper) SpeakerConfig {
	return SpeakerConfig{
		Enabled:  GetBoolEnv(v, "SPEAKERENABLED", DefaultSpeakerEnabled),
		Device:   GetStringEnv(v, "SPEAKERDEVICE", DefaultSpeakerDevice),
		SoundDir: GetStringEnv(v, "SPEAKERSOUNDDIR", DefaultSpeakerSoundDir),
	}
}

func GetHealthConfig(v *viper.Viper) HealthConfig {
	return HealthConfig{
		Interface: GetStringEnv(v, "HEALTH_INTERFACE", DefaultHealthInterface),
		Interval:  GetDurationEnv(v, "HEALTH_INTERVAL", DefaultHealthInterval),
	}
}

func GetLogConfig(v *viper.Viper) LogConfig {
	return LogConfig{
		Level:  strings.ToLower(GetStringEnv(v, "LOG_LEVEL", DefaultLogLevel)),
		Pretty: GetBoolEnv(v, "LOG_PRETTY", DefaultLogPretty),
	}
}

func GetIntEnv(v *viper.Viper, env string, defaultValue int) int {
	v.SetDefault(env, defaultValue)
	value, err := cast.ToIntE(trim(v.Get(env)))
	if err != nil {
		log.Warn().Err(err).Msgf("%s not parsed", env)
		return defaultValue
	}
	return value
}

func GetBoolEnv(v *viper.Viper, env string, defaultValue bool) bool {
	v.SetDefault(env, defaultValue)
	value, err := cast.ToBoolE(trim(v.Get(env)))
	if err != nil {
		log.Warn().Err(err).Msgf("%s not parsed", env)
		return defaultValue
	}
	return value
}

func GetStringEnv(v *viper.Viper, env string, defaultValue string) string {
	v.SetDefault(env, defaultValue)
	value, err := cast.ToStringE(trim(v.Get(env)))
	if err != nil {
		log.Warn().Err(err).Msgf("%s not parsed", env)
		return defaultValue
	}
	return value
}

func GetFloatEnv(v *viper.Viper, env string, defaultValue float64) float64 {
	v.SetDefault(env, defaultValue)
	value, err := cast.ToFloat64E(trim(v.Get(env)))
	if err != nil {
		log.Warn().Err(err).Msgf("%s not parsed", env)
		return defaultValue
	}
	return value
}

func GetDurationEnv(v *viper.Viper, env string, defaultValue time.Duration) time.Duration {
	v.SetDefault(env, defaultValue)
	value, err := cast.ToDurationE(trim(v.Get(env)))
	if err != nil {
		log.Warn().Err(err).Msgf("%s not parsed", env)
		return defaultValue
	}
	return value
}

// trim strips the carriage returns left behind by env files edited on windows.
func trim(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	return strings.TrimSpace(strings.Trim(s, "\r"))
}
