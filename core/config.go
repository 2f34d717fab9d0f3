package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf holds the process-wide configuration, loaded once at init.
var Conf *Config

type (
	ServerConfig struct {
		Host                      string
		DebugHost                 string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		ShutdownTimeout           time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          int
		DisableTLS    bool
		TxMaxAttempts int
	}

	BillingConfig struct {
		// WebhookSecret is the shared secret used to verify the payment
		// provider's webhook signatures.
		WebhookSecret string
		// Products maps the provider's product IDs to internal module IDs
		// (comma-separated for bundles). New SKUs are added here, not in code.
		Products map[string]string
	}

	CatalogConfig struct {
		// IntroUnlocks maps a module ID to the submodule that must be
		// unlocked together with it.
		IntroUnlocks map[string]string
	}

	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		AppName  string
		Build    string

		SecretKey                 string
		PasswordResetTimeoutDelta time.Duration

		FrontendBaseURL string
		DefaultFromName string
		DefaultFromAddr string
		SendgridAPIKey  string
		RollbarToken    string

		Server   ServerConfig
		Database DatabaseConfig
		Billing  BillingConfig
		Catalog  CatalogConfig
	}
)

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromAddr}
}

func init() {
	Conf = NewConfig()
}

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testmode", false)
	v.SetDefault("appname", "Kusoma")
	v.SetDefault("build", "dev")
	v.SetDefault("secretkey", "zx8$#we1r-kg7+@p4!u0c%t^bq2&y5n(h9m3)jd6fv*aslo_e")
	v.SetDefault("passwordresettimeoutdelta", 3*24*time.Hour)
	v.SetDefault("frontendbaseurl", "http://localhost:3000")
	v.SetDefault("defaultfromname", "Kusoma")
	v.SetDefault("defaultfromaddr", "noreply@localhost")
	v.SetDefault("sendgridapikey", "")
	v.SetDefault("rollbartoken", "")

	v.SetDefault("server.host", "0.0.0.0:8000")
	v.SetDefault("server.debughost", "0.0.0.0:4000")
	v.SetDefault("server.jwtexpirationdelta", 7*24*time.Hour)
	v.SetDefault("server.jwtrefreshexpirationdelta", 4*time.Hour)
	v.SetDefault("server.shutdowntimeout", 5*time.Second)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "kusoma")
	v.SetDefault("database.user", "kusoma")
	v.SetDefault("database.password", "kusoma")
	v.SetDefault("database.adminuser", "")
	v.SetDefault("database.adminpassword", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.disabletls", true)
	v.SetDefault("database.txmaxattempts", 3)

	v.SetDefault("billing.webhooksecret", "")
	v.SetDefault("billing.products", map[string]string{
		"prod_alphabet":      "alphabet",
		"prod_phonographism": "phonographism",
		"prod_reading":       "reading-fluency",
		"prod_comprehension": "comprehension",
		"prod_full_bundle":   "alphabet,phonographism,reading-fluency,comprehension",
	})

	v.SetDefault("catalog.introunlocks", map[string]string{
		"phonographism": "intro",
	})

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testmode", true)
	}
	v.SetDefault("env", env)
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		log.Fatalf("config.Unmarshal: %v", err)
	}
	return conf
}
