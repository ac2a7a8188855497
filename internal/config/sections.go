package config

import (
	"time"

	"github.com/spf13/viper"
)

// Store selects the object store backend by URL.
type Store struct {
	URL string
}

func getStoreConfig(v *viper.Viper) *Store {
	return &Store{URL: v.GetString("store.url")}
}

// Logger logger config struct
type Logger struct {
	Level      string
	Format     string
	Output     string
	OutputFile string
}

func getLoggerConfig(v *viper.Viper) *Logger {
	return &Logger{
		Level:      v.GetString("logger.level"),
		Format:     v.GetString("logger.format"),
		Output:     v.GetString("logger.output"),
		OutputFile: v.GetString("logger.output_file"),
	}
}

type Queue struct {
	PollInterval time.Duration
	MaxQueued    int
}

func getQueueConfig(v *viper.Viper) *Queue {
	return &Queue{
		PollInterval: v.GetDuration("queue.poll_interval"),
		MaxQueued:    v.GetInt("queue.max_queued"),
	}
}

type Lock struct {
	TTL   time.Duration
	Owner string
}

func getLockConfig(v *viper.Viper) *Lock {
	return &Lock{
		TTL:   v.GetDuration("lock.ttl"),
		Owner: v.GetString("lock.owner"),
	}
}

type Meta struct {
	SquashThreshold int
}

func getMetaConfig(v *viper.Viper) *Meta {
	return &Meta{SquashThreshold: v.GetInt("meta.squash_threshold")}
}

type Worker struct {
	Shell            string
	IdleSleep        time.Duration
	StopFile         string
	PIDFile          string
	RequeueOnFailure bool
}

func getWorkerConfig(v *viper.Viper) *Worker {
	return &Worker{
		Shell:            v.GetString("worker.shell"),
		IdleSleep:        v.GetDuration("worker.idle_sleep"),
		StopFile:         v.GetString("worker.stop_file"),
		PIDFile:          v.GetString("worker.pid_file"),
		RequeueOnFailure: v.GetBool("worker.requeue_on_failure"),
	}
}
