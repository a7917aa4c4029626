package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTickRate      = 50
	DefaultTimeout       = 30 * time.Second
	DefaultArenaWidth    = 4.0
	DefaultArenaHeight   = 2.0
	DefaultVehicleWidth  = 0.25
	DefaultVehicleHeight = 0.35
	DefaultObstacleSize  = 0.2
	DefaultObstacleLen   = 0.5
	DefaultSensorRange   = 1.0
	DefaultAck           = 0x07
	DefaultReadBuffer    = 256
	DefaultQueueCap      = 258
	DefaultBuildCommand  = "make name={{id}}"
)

type Config struct {
	TickRate float64        `yaml:"tick_rate"`
	Timeout  time.Duration  `yaml:"timeout"`
	Arena    SizeConfig     `yaml:"arena"`
	Vehicle  SizeConfig     `yaml:"vehicle"`
	Obstacle SizeConfig     `yaml:"obstacle"`
	Sensor   SensorConfig   `yaml:"sensor"`
	Protocol ProtocolConfig `yaml:"protocol"`
	Builder  BuilderConfig  `yaml:"builder"`
	DataDir  string         `yaml:"data_dir"`
	LogLevel string         `yaml:"log_level"`
	LogFile  string         `yaml:"log_file"`
}

type SizeConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type SensorConfig struct {
	Range float64 `yaml:"range"`
}

type ProtocolConfig struct {
	Ack        uint8 `yaml:"ack"`
	ReadBuffer int   `yaml:"read_buffer"`
	QueueCap   int   `yaml:"queue_cap"`
}

type BuilderConfig struct {
	EnvironmentsDir string `yaml:"environments_dir"`
	DependenciesDir string `yaml:"dependencies_dir"`
	Command         string `yaml:"command"`
}

func DefaultConfig() *Config {
	return &Config{
		TickRate: DefaultTickRate,
		Timeout:  DefaultTimeout,
		Arena:    SizeConfig{Width: DefaultArenaWidth, Height: DefaultArenaHeight},
		Vehicle:  SizeConfig{Width: DefaultVehicleWidth, Height: DefaultVehicleHeight},
		Obstacle: SizeConfig{Width: DefaultObstacleSize, Height: DefaultObstacleLen},
		Sensor:   SensorConfig{Range: DefaultSensorRange},
		Protocol: ProtocolConfig{
			Ack:        DefaultAck,
			ReadBuffer: DefaultReadBuffer,
			QueueCap:   DefaultQueueCap,
		},
		Builder: BuilderConfig{
			EnvironmentsDir: "environments",
			DependenciesDir: "dependencies",
			Command:         DefaultBuildCommand,
		},
		DataDir:  ".osvsim",
		LogLevel: "info",
	}
}

// Load reads path over the defaults, so a file only needs the keys it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be positive, got %f", c.TickRate)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.Arena.Width <= 0 || c.Arena.Height <= 0 {
		return fmt.Errorf("arena dimensions must be positive, got %fx%f", c.Arena.Width, c.Arena.Height)
	}
	if c.Vehicle.Width <= 0 || c.Vehicle.Height <= 0 {
		return fmt.Errorf("vehicle dimensions must be positive, got %fx%f", c.Vehicle.Width, c.Vehicle.Height)
	}
	if c.Sensor.Range <= 0 {
		return fmt.Errorf("sensor range must be positive, got %f", c.Sensor.Range)
	}
	if c.Protocol.ReadBuffer <= 0 {
		return fmt.Errorf("protocol read_buffer must be positive, got %d", c.Protocol.ReadBuffer)
	}
	if c.Protocol.QueueCap < c.Protocol.ReadBuffer {
		return fmt.Errorf("protocol queue_cap %d is smaller than read_buffer %d", c.Protocol.QueueCap, c.Protocol.ReadBuffer)
	}
	return nil
}

// Period is the wall-clock length of one tick.
func (c *Config) Period() time.Duration {
	return time.Duration(float64(time.Second) / c.TickRate)
}
