package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string `yaml:"env" env:"APP_ENV" env-default:"local" env-description:"Environment" env-choices:"local,dev,prod"`
	HttpPort int    `yaml:"http_port" env:"HTTP_PORT" env-default:"8080"`
	HttpHost string `yaml:"http_host" env:"HTTP_HOST" env-default:"localhost"`
	// SessionSecret signs the session cookie. The default is only good for
	// local development; any real deployment must set SESSION_SECRET.
	SessionSecret string `yaml:"session_secret" env:"SESSION_SECRET" env-default:"insecure-dev-secret"`
	// DatabaseUrl, when set, wins over the individual Postgres fields.
	DatabaseUrl string `yaml:"database_url" env:"DATABASE_URL" env-default:""`
	Postgres    `yaml:"postgres"`
}

type Postgres struct {
	Host string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User string `yaml:"user" env:"POSTGRES_USER" env-default:"barstock"`
	Pass string `yaml:"pass" env:"POSTGRES_PASS" env-default:"barstock"`
	Db   string `yaml:"db" env:"POSTGRES_DB" env-default:"barstock"`
}

// DbUrl builds the connection string handed to the lib/pq driver.
func (c *Config) DbUrl() string {
	if c.DatabaseUrl != "" {
		return c.DatabaseUrl
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.Postgres.User,
		c.Postgres.Pass,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.Db,
	)
}

// MustLoad reads the YAML config named by -config or CONFIG_PATH; without
// one it falls back to environment variables alone.
func MustLoad() *Config {
	path := fetchConfigPath()

	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			panic("Failed to read config from env" + err.Error())
		}
		return &cfg
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		panic("config file does not exist: " + path)
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		panic("Failed to read config" + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
