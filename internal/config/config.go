package config

import (
	"flag"
	"log"
	"os"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type (
	Config struct {
		App       `yaml:"app"`
		HTTP      `yaml:"http"`
		Log       `yaml:"logger"`
		Storage   `yaml:"storage"`
		PG        `yaml:"postgres"`
		Scheduler `yaml:"scheduler"`
		Audio     `yaml:"audio"`
	}

	App struct {
		Env     string `yaml:"env"     env-default:"local"`
		Name    string `yaml:"name"    env-default:"alarm-go"`
		Version string `yaml:"version" env-required:"true" env:"APP_VERSION"`
	}

	HTTP struct {
		IP   string `yaml:"ip"   env-default:"0.0.0.0"`
		Port string `yaml:"port" env-default:"8082"`
		CORS struct {
			AllowedMethods   []string `yaml:"allowed_methods"`
			AllowedOrigins   []string `yaml:"allowed_origins"`
			AllowCredentials bool     `yaml:"allow_credentials"`
			AllowedHeaders   []string `yaml:"allowed_headers"`
			ExposedHeaders   []string `yaml:"exposed_headers"`
			Debug            bool     `yaml:"debug"`
		} `yaml:"cors"`
	}

	Log struct {
		Level string `yaml:"log_level" env-required:"true" env:"LOG_LEVEL"`
	}

	Storage struct {
		// Mode selects the alarm list backend: "postgres" or "memory".
		Mode string `yaml:"mode" env-default:"memory" env:"STORAGE_MODE"`
	}

	PG struct {
		PoolMax int    `yaml:"pool_max" env-default:"2"`
		URL     string `                env:"PG_URL"`
	}

	Scheduler struct {
		// DefaultTimezone seeds new alarms that do not name a target zone.
		DefaultTimezone string `yaml:"default_timezone" env-default:"Asia/Seoul"`
		// DeviceTimezone overrides the process-local zone; empty means
		// the system zone.
		DeviceTimezone    string        `yaml:"device_timezone"   env:"DEVICE_TZ"`
		ChainInterval     time.Duration `yaml:"chain_interval"    env-default:"10s"`
		ChainSweepLimit   int           `yaml:"chain_sweep_limit" env-default:"100"`
		Tick              time.Duration `yaml:"tick"              env-default:"1s"`
		PermissionGranted bool          `yaml:"permission"        env-default:"true"`
		CatchUpWindow     time.Duration `yaml:"catchup_window"    env-default:"30s"`
	}

	Audio struct {
		// Sound is a 16-bit PCM WAV looped while an alarm rings; empty
		// disables audio.
		Sound string `yaml:"sound" env:"ALARM_SOUND"`
	}
)

const (
	EnvConfigPathName  = "CONFIG-PATH"
	FlagConfigPathName = "config"
)

var (
	configPath string
	instance   *Config
	once       sync.Once
)

// GetConfig returns app configs.
func GetConfig() *Config {
	once.Do(func() {
		flag.StringVar(
			&configPath,
			FlagConfigPathName,
			"./configs/config.yml",
			"this is app config file",
		)
		flag.Parse()

		log.Print("config init")

		if configPath == "" {
			configPath = os.Getenv(EnvConfigPathName)
		}

		if configPath == "" {
			log.Fatal("config path is required")
		}

		instance = &Config{}

		if err := cleanenv.ReadConfig(configPath, instance); err != nil {
			helpText := "Alarm-Go - Timezone-Relative Alarm Service"
			help, _ := cleanenv.GetDescription(instance, &helpText)
			log.Print(help)
			log.Fatal(err)
		}
	})
	return instance
}
