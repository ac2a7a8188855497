// Package config loads bucketq settings from an optional config file and
// BUCKETQ_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "BUCKETQ"

// Config represents the loaded configuration.
type Config struct {
	Store  *Store
	Logger *Logger
	Queue  *Queue
	Lock   *Lock
	Meta   *Meta
	Worker *Worker
	Viper  *viper.Viper
}

// Load reads configPath, or searches for bucketq.yaml in the usual places
// when configPath is empty. Only an explicit path is required to exist.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("bucketq")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.bucketq")
		v.AddConfigPath("/etc/bucketq")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Store:  getStoreConfig(v),
		Logger: getLoggerConfig(v),
		Queue:  getQueueConfig(v),
		Lock:   getLockConfig(v),
		Meta:   getMetaConfig(v),
		Worker: getWorkerConfig(v),
		Viper:  v,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.url", "sqlite://bucketq.db")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("logger.output_file", "")
	v.SetDefault("queue.poll_interval", "1s")
	v.SetDefault("queue.max_queued", 0)
	v.SetDefault("lock.ttl", "10m")
	v.SetDefault("lock.owner", "")
	v.SetDefault("meta.squash_threshold", 42)
	v.SetDefault("worker.shell", "/bin/sh")
	v.SetDefault("worker.idle_sleep", "300ms")
	v.SetDefault("worker.stop_file", ".bucketq-stop")
	v.SetDefault("worker.pid_file", ".bucketq-pid")
	v.SetDefault("worker.requeue_on_failure", false)
}

// Get returns the current value of key as a string, or "" when unset.
func (c *Config) Get(key string) string {
	if !c.Viper.IsSet(key) {
		return ""
	}
	return c.Viper.GetString(key)
}

// Set overrides key in memory and refreshes the typed sections.
func (c *Config) Set(key, value string) {
	c.Viper.Set(key, value)
	fresh := fromViper(c.Viper)
	fresh.Viper = c.Viper
	*c = *fresh
}

// Save writes the current settings to the file they were read from, or to
// path when no file was read.
func (c *Config) Save(path string) error {
	if used := c.Viper.ConfigFileUsed(); used != "" && path == "" {
		path = used
	}
	if path == "" {
		path = "bucketq.yaml"
	}
	if err := c.Viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
