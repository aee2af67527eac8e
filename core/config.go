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
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName  string
		Env      string // DEV (local; default), TEST, QA, PROD
		Build    string
		Debug    bool
		TestMode bool

		RollbarToken string

		Server   ServerConfig
		Database DatabaseConfig
		Email    EmailConfig
		Client   ClientConfig
		Editor   EditorConfig
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
		AllowedOrigins  []string
		DisableReqLogs  bool
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite | memory
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Path          string // sqlite only
	}

	EmailConfig struct {
		DefaultFrom    string
		SendgridAPIKey string
		// NoticeRecipients receive a summary every time a course mapping is replaced.
		NoticeRecipients []string
	}

	ClientConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	EditorConfig struct {
		NoticeTTL time.Duration
	}
)

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, strconv.Itoa(db.Port))
}

func (conf *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(conf.Email.DefaultFrom)
	if err != nil {
		return mail.Address{Name: conf.AppName, Address: "noreply@localhost"}
	}
	if addr.Name == "" {
		addr.Name = conf.AppName
	}
	return *addr
}

func (conf *Config) NoticeRecipients() []mail.Address {
	addrs := make([]mail.Address, 0, len(conf.Email.NoticeRecipients))
	for _, rcpt := range conf.Email.NoticeRecipients {
		if addr, err := mail.ParseAddress(CleanString(rcpt)); err == nil {
			addrs = append(addrs, *addr)
		}
	}
	return addrs
}

// NewConfig reads the configuration from defaults, an optional `config/.env.<env>` file and the environment.
// Env vars are prefixed with the upper-cased env name, e.g. DEV_DATABASE_ENGINE=sqlite.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Curriculum")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.allowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "curriculum")
	v.SetDefault("database.user", "curriculum")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", env == "DEV" || env == "TEST")
	v.SetDefault("database.path", filepath.Join("data", "curriculum.db"))

	v.SetDefault("email.defaultFrom", "noreply@localhost")
	v.SetDefault("email.sendgridApiKey", "")
	v.SetDefault("email.noticeRecipients", []string{})

	v.SetDefault("client.baseUrl", "http://localhost:8000")
	v.SetDefault("client.timeout", 10*time.Second)

	v.SetDefault("editor.noticeTTL", 3*time.Second)

	// load .env if it exists (ignore if it does not)
	if wd, err := os.Getwd(); err == nil {
		dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			AllowedOrigins:  splitList(v.GetStringSlice("server.allowedOrigins")),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        CleanString(v.GetString("database.engine"), true /* lower */),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			Path:          v.GetString("database.path"),
		},
		Email: EmailConfig{
			DefaultFrom:      v.GetString("email.defaultFrom"),
			SendgridAPIKey:   v.GetString("email.sendgridApiKey"),
			NoticeRecipients: splitList(v.GetStringSlice("email.noticeRecipients")),
		},
		Client: ClientConfig{
			BaseURL: strings.TrimRight(v.GetString("client.baseUrl"), "/"),
			Timeout: v.GetDuration("client.timeout"),
		},
		Editor: EditorConfig{
			NoticeTTL: v.GetDuration("editor.noticeTTL"),
		},
	}
}

// splitList flattens comma separated values coming from env vars, e.g. "a@x.cd,b@x.cd".
func splitList(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, val := range vals {
		for _, part := range strings.Split(val, ",") {
			if part = CleanString(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (conf *Config) String() string {
	return fmt.Sprintf("%s[%s] build=%s db=%s", conf.AppName, conf.Env, conf.Build, conf.Database.Engine)
}
