package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName         string
		Build           string
		Env             string // DEV (local; default), TEST, QA, PROD
		Debug           bool
		TestMode        bool
		LogLevel        string
		SecretKey       string
		FrontendBaseURL string
		WorkDir         string
		RollbarToken    string
		SendgridAPIKey  string

		PasswordResetTimeout time.Duration

		defaultFromEmail string

		Server    ServerConfig
		Database  DatabaseConfig
		AI        AIConfig
		Calendar  CalendarConfig
		Materials MaterialsConfig
		Jobs      JobsConfig

		mu       sync.RWMutex
		onReload []func(*Config)
	}

	ServerConfig struct {
		Address                   string
		Host                      string
		DebugHost                 string
		BodyLimit                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite | mongodb | memory
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		URI           string // mongodb
		Path          string // sqlite
	}

	AIConfig struct {
		GeminiAPIKey      string
		Model             string
		RequestsPerSecond float64
		MaxContextChars   int
	}

	CalendarConfig struct {
		CredentialsFile string
		CalendarID      string
		TimeZone        string
	}

	MaterialsConfig struct {
		MaxUploadMB      int
		AllowedMimeTypes []string
		ExtractorURL     string
	}

	JobsConfig struct {
		Enabled    bool
		DigestSpec string
		SweepSpec  string
	}
)

func (c *DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DefaultFromEmail returns the sender address of outgoing mails.
func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
	}
	if addr.Name == "" {
		addr.Name = c.AppName
	}
	return *addr
}

// Location returns the time zone sessions and calendar events are laid out in, UTC when unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Calendar.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Level returns the current log level; it can change when the config file is reloaded.
func (c *Config) Level() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.LogLevel
}

// OnReload registers fn to be called after the config file changed.
func (c *Config) OnReload(fn func(*Config)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReload = append(c.onReload, fn)
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)

	v.SetDefault("debug", true)
	v.SetDefault("appName", "StudyDesk")
	v.SetDefault("build", "dev")
	v.SetDefault("logLevel", "debug")
	v.SetDefault("secretKey", "k2#m9v!x4q@z7w$e1r%t5y^u8i&o3p*a6s(d0f)g")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("passwordResetTimeout", 3*24*time.Hour)

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", "localhost:4000")
	v.SetDefault("server.bodyLimit", "16M")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 30*24*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "studydesk")
	v.SetDefault("database.user", "studydesk")
	v.SetDefault("database.password", "studydesk")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.path", "studydesk.db")

	v.SetDefault("ai.geminiApiKey", "")
	v.SetDefault("ai.model", "gemini-1.5-pro")
	v.SetDefault("ai.requestsPerSecond", 1.0)
	v.SetDefault("ai.maxContextChars", 50000)

	v.SetDefault("calendar.credentialsFile", "")
	v.SetDefault("calendar.calendarId", "primary")
	v.SetDefault("calendar.timeZone", "UTC")

	v.SetDefault("materials.maxUploadMB", 10)
	v.SetDefault("materials.allowedMimeTypes", []string{})
	v.SetDefault("materials.extractorURL", "")

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.digestSpec", "0 7 * * MON")
	v.SetDefault("jobs.sweepSpec", "@every 1h")
}

// NewConfig loads the configuration from (by order of precedence): environment variables prefixed with
// the environment name (eg. DEV_DATABASE_HOST), config/.env.<env>, the file pointed to by STUDYDESK_CONFIG and defaults.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{Env: env, WorkDir: workDir}

	if path := os.Getenv("STUDYDESK_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			log.Fatalf("config.ReadInConfig(%s): %v", path, err)
		}
		v.OnConfigChange(func(e fsnotify.Event) {
			if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				return
			}
			conf.reload(v)
		})
		v.WatchConfig()
	}

	conf.load(v)
	return conf
}

func (c *Config) load(v *viper.Viper) {
	c.AppName = v.GetString("appName")
	c.Build = v.GetString("build")
	c.Debug = v.GetBool("debug")
	c.TestMode = v.GetBool("testMode")
	c.LogLevel = v.GetString("logLevel")
	c.SecretKey = v.GetString("secretKey")
	c.FrontendBaseURL = v.GetString("frontendBaseURL")
	c.RollbarToken = v.GetString("rollbarToken")
	c.SendgridAPIKey = v.GetString("sendgridApiKey")
	c.defaultFromEmail = v.GetString("defaultFromEmail")
	c.PasswordResetTimeout = v.GetDuration("passwordResetTimeout")

	c.Server = ServerConfig{
		Address:                   v.GetString("server.address"),
		Host:                      v.GetString("server.host"),
		DebugHost:                 v.GetString("server.debugHost"),
		BodyLimit:                 v.GetString("server.bodyLimit"),
		ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
		JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
		JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
	}
	c.Database = DatabaseConfig{
		Engine:        strings.ToLower(v.GetString("database.engine")),
		Host:          v.GetString("database.host"),
		Port:          v.GetInt("database.port"),
		Name:          v.GetString("database.name"),
		User:          v.GetString("database.user"),
		Password:      v.GetString("database.password"),
		AdminUser:     v.GetString("database.adminUser"),
		AdminPassword: v.GetString("database.adminPassword"),
		DisableTLS:    v.GetBool("database.disableTLS"),
		URI:           v.GetString("database.uri"),
		Path:          v.GetString("database.path"),
	}
	c.AI = AIConfig{
		GeminiAPIKey:      v.GetString("ai.geminiApiKey"),
		Model:             v.GetString("ai.model"),
		RequestsPerSecond: v.GetFloat64("ai.requestsPerSecond"),
		MaxContextChars:   v.GetInt("ai.maxContextChars"),
	}
	c.Calendar = CalendarConfig{
		CredentialsFile: v.GetString("calendar.credentialsFile"),
		CalendarID:      v.GetString("calendar.calendarId"),
		TimeZone:        v.GetString("calendar.timeZone"),
	}
	c.Materials = MaterialsConfig{
		MaxUploadMB:      v.GetInt("materials.maxUploadMB"),
		AllowedMimeTypes: v.GetStringSlice("materials.allowedMimeTypes"),
		ExtractorURL:     v.GetString("materials.extractorURL"),
	}
	c.Jobs = JobsConfig{
		Enabled:    v.GetBool("jobs.enabled"),
		DigestSpec: v.GetString("jobs.digestSpec"),
		SweepSpec:  v.GetString("jobs.sweepSpec"),
	}
}

// reload only refreshes the settings that are safe to change at runtime.
func (c *Config) reload(v *viper.Viper) {
	c.mu.Lock()
	c.LogLevel = v.GetString("logLevel")
	hooks := append([]func(*Config){}, c.onReload...)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn(c)
	}
}

// NewTestConfig returns the configuration used by tests: in-memory storage, no external services.
func NewTestConfig() *Config {
	v := viper.New()
	setDefaults(v)
	v.Set("testMode", true)
	v.Set("database.engine", "memory")
	v.Set("jobs.enabled", false)
	v.Set("logLevel", "disabled")

	conf := &Config{Env: "TEST"}
	conf.load(v)
	return conf
}

func (c *Config) String() string {
	return fmt.Sprintf("%s (%s, build %s, db %s)", c.AppName, c.Env, c.Build, c.Database.Engine)
}
