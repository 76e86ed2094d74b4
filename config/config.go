package config

import (
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/ryanadiyantara/librasys/pkg/auth"
	"github.com/ryanadiyantara/librasys/pkg/kafka"
	"github.com/ryanadiyantara/librasys/pkg/logger"
	"github.com/ryanadiyantara/librasys/pkg/mailer"
	"github.com/ryanadiyantara/librasys/pkg/postgres"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"HTTP_HOST"`
	Port         string        `yaml:"port" envconfig:"HTTP_PORT" default:"5000"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"30s"`
	WriteTimeout time.Duration
}

type App struct {
	BaseURL         string `envconfig:"BASE_URL" default:"http://localhost:5000"`
	DefaultPassword string `envconfig:"DEFAULT_PASSWORD" default:"librasys123"`
	UploadDir       string `envconfig:"UPLOAD_DIR" default:"public"`
}

type Config struct {
	Server   HTTPServer    `yaml:"server"`
	App      App           `yaml:"app"`
	JWT      auth.Config   `yaml:"jwt"`
	SMTP     mailer.Config `yaml:"smtp"`
	Kafka    kafka.Config  `yaml:"kafka"`
	Database postgres.DB   `yaml:"db"`
	Log      logger.Log    `yaml:"log"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment. Missing JWT secrets or
// database credentials abort startup.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = &config
	})

	return cfg
}
