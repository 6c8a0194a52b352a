package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		AppName  string
		Build    string

		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridAPIKey   string
		RollbarToken     string
		WorkDir          string

		Server  ServerConfig
		Backend BackendConfig
	}

	ServerConfig struct {
		Host            string
		Addr            string
		DebugAddr       string
		ShutdownTimeout time.Duration

		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration

		// login/register throttling (requests per second + burst)
		AuthRateLimit float64
		AuthRateBurst int
	}

	// BackendConfig points at the hosted auth+data platform.
	BackendConfig struct {
		URL    string
		APIKey string

		ProfileFetchTimeout time.Duration
		EventPollInterval   time.Duration
	}
)

// NewConfig loads the app configuration from defaults, an optional
// `config/.env.<env>` file and environment variables (prefixed with ENV).
func NewConfig() *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "CampusHub")
	conf.SetDefault("build", "dev")
	conf.SetDefault("secretKey", "x5p0@wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverAddr", ":8000")
	conf.SetDefault("serverDebugAddr", ":8001")
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	conf.SetDefault("authRateLimit", 1.0)
	conf.SetDefault("authRateBurst", 5)

	conf.SetDefault("backendURL", "http://localhost:54321")
	conf.SetDefault("backendApiKey", "")
	conf.SetDefault("profileFetchTimeout", 10*time.Second)
	conf.SetDefault("eventPollInterval", 30*time.Second)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	var testMode bool
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
	}
	conf.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:      env,
		Debug:    conf.GetBool("debug"),
		TestMode: testMode,
		AppName:  conf.GetString("appName"),
		Build:    conf.GetString("build"),

		SecretKey:       conf.GetString("secretKey"),
		FrontendBaseURL: conf.GetString("frontendBaseURL"),
		DefaultFromEmail: mail.Address{
			Name:    conf.GetString("appName"),
			Address: conf.GetString("defaultFromEmail"),
		},
		SendgridAPIKey: conf.GetString("sendgridApiKey"),
		RollbarToken:   conf.GetString("rollbarToken"),
		WorkDir:        wd,

		Server: ServerConfig{
			Host:                      conf.GetString("serverHost"),
			Addr:                      conf.GetString("serverAddr"),
			DebugAddr:                 conf.GetString("serverDebugAddr"),
			ShutdownTimeout:           conf.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
			AuthRateLimit:             conf.GetFloat64("authRateLimit"),
			AuthRateBurst:             conf.GetInt("authRateBurst"),
		},
		Backend: BackendConfig{
			URL:                 strings.TrimRight(conf.GetString("backendURL"), "/"),
			APIKey:              conf.GetString("backendApiKey"),
			ProfileFetchTimeout: conf.GetDuration("profileFetchTimeout"),
			EventPollInterval:   conf.GetDuration("eventPollInterval"),
		},
	}
}
