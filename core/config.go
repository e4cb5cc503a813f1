package core

import (
	"fmt"
	"strconv"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	// Debug enables GL error checks after every render task.
	// A GL error is fatal in debug mode
	Debug bool

	Log      LogConfiguration
	Time     TimeConfiguration
	Renderer RendererConfiguration
}

// LogConfiguration is used to configure logging
type LogConfiguration struct {
	// Level is a logrus level name, e.g. "info" or "debug"
	Level string
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// UpdatesPerSecond caps scene updates per second
	// To unlimit, set to 0
	UpdatesPerSecond int
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	ScreenWidth  uint32
	ScreenHeight uint32

	// MaxFramesInFlight is how many update phases may run ahead of rendering
	MaxFramesInFlight int
}

// Environment keys read by LoadConfiguration
const (
	EnvDebug          = "KORU_DEBUG"
	EnvLogLevel       = "KORU_LOG_LEVEL"
	EnvFps            = "KORU_FPS"
	EnvUps            = "KORU_UPS"
	EnvScreenWidth    = "KORU_SCREEN_WIDTH"
	EnvScreenHeight   = "KORU_SCREEN_HEIGHT"
	EnvFramesInFlight = "KORU_FRAMES_IN_FLIGHT"
)

// DefaultConfiguration returns the configuration used when nothing is overridden
func DefaultConfiguration() Configuration {
	return Configuration{
		Log: LogConfiguration{
			Level: "info",
		},
		Time: TimeConfiguration{
			FramesPerSecond:  60,
			UpdatesPerSecond: 60,
		},
		Renderer: RendererConfiguration{
			ScreenWidth:       800,
			ScreenHeight:      600,
			MaxFramesInFlight: 2,
		},
	}
}

// LoadConfiguration loads the given .env files into the environment and
// builds a configuration from it, falling back to DefaultConfiguration.
// Variables already set in the environment take precedence over files.
func LoadConfiguration(files ...string) (Configuration, error) {
	cfg := DefaultConfiguration()

	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return cfg, fmt.Errorf("loading env files: %w", err)
		}
	}
	envy.Reload()

	var err error
	if cfg.Debug, err = envBool(EnvDebug, cfg.Debug); err != nil {
		return cfg, err
	}
	cfg.Log.Level = envy.Get(EnvLogLevel, cfg.Log.Level)
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return cfg, fmt.Errorf("%s: %w", EnvLogLevel, err)
	}
	if cfg.Time.FramesPerSecond, err = envInt(EnvFps, cfg.Time.FramesPerSecond); err != nil {
		return cfg, err
	}
	if cfg.Time.UpdatesPerSecond, err = envInt(EnvUps, cfg.Time.UpdatesPerSecond); err != nil {
		return cfg, err
	}
	if cfg.Renderer.ScreenWidth, err = envUint32(EnvScreenWidth, cfg.Renderer.ScreenWidth); err != nil {
		return cfg, err
	}
	if cfg.Renderer.ScreenHeight, err = envUint32(EnvScreenHeight, cfg.Renderer.ScreenHeight); err != nil {
		return cfg, err
	}
	if cfg.Renderer.MaxFramesInFlight, err = envInt(EnvFramesInFlight, cfg.Renderer.MaxFramesInFlight); err != nil {
		return cfg, err
	}
	if cfg.Renderer.MaxFramesInFlight < 1 {
		return cfg, fmt.Errorf("%s: must be at least 1, got %d", EnvFramesInFlight, cfg.Renderer.MaxFramesInFlight)
	}
	return cfg, nil
}

// Logger creates a logger at the configured level. Debug configurations
// log at least at debug level.
func (c Configuration) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	if c.Debug && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}

	log := logrus.New()
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log, nil
}

func envBool(key string, def bool) (bool, error) {
	v, err := strconv.ParseBool(envy.Get(key, strconv.FormatBool(def)))
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envInt(key string, def int) (int, error) {
	v, err := strconv.Atoi(envy.Get(key, strconv.Itoa(def)))
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	if v < 0 {
		return def, fmt.Errorf("%s: negative value %d", key, v)
	}
	return v, nil
}

func envUint32(key string, def uint32) (uint32, error) {
	v, err := strconv.ParseUint(envy.Get(key, strconv.FormatUint(uint64(def), 10)), 10, 32)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return uint32(v), nil
}
