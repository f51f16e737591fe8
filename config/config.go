package config

import (
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// DBConfig database config
type DBConfig struct {
	Type     string `yaml:"type"` // postgres, sqlite or memory
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

// SysConfig system config
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Region   string `yaml:"region"` // phone numbering region for numbers without a country code
	Debug    bool   `yaml:"debug"`
}

// WebConfig web config
type WebConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Secret      string `yaml:"secret"`
	SessionName string `yaml:"session_name"`
	TokenTTL    int    `yaml:"token_ttl"` // hours
	UploadLimit string `yaml:"upload_limit"`
}

type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// SmtpConfig outgoing mail used for feedback notifications, disabled when Host is empty.
type SmtpConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	Notify   string `yaml:"notify"`
}

// AdminConfig seeds the primary administrator account.
type AdminConfig struct {
	Whatsapp string `yaml:"whatsapp"`
	Name     string `yaml:"name"`
	City     string `yaml:"city"`
}

type AppConfig struct {
	System   SysConfig   `yaml:"system"`
	Web      WebConfig   `yaml:"web"`
	Database DBConfig    `yaml:"database"`
	Logger   LogConfig   `yaml:"logger"`
	Smtp     SmtpConfig  `yaml:"smtp"`
	Admin    AdminConfig `yaml:"admin"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) GetExportDir() string {
	return path.Join(c.System.Workdir, "data/export")
}

// TokenTTL returns the lifetime of issued admin api tokens.
func (c *AppConfig) TokenTTL() time.Duration {
	if c.Web.TokenTTL <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(c.Web.TokenTTL) * time.Hour
}

// MemoryMode reports whether products and wishlists are kept in process memory.
func (c *AppConfig) MemoryMode() bool {
	return strings.EqualFold(c.Database.Type, "memory")
}

func (c *AppConfig) initDirs() {
	for _, dir := range []string{c.GetLogDir(), c.GetDataDir(), c.GetExportDir()} {
		_ = os.MkdirAll(dir, 0o755)
	}
}

// DefaultAppConfig returns a fresh copy of the built-in configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		System: SysConfig{
			Appid:    "VFCatalog",
			Location: "Asia/Kolkata",
			Workdir:  "/var/vfcatalog",
			Region:   "IN",
			Debug:    true,
		},
		Web: WebConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Secret:      "9b6de5cc-0731-4bf1-8a3d-vfcatalog",
			SessionName: "vfcatalog_session",
			TokenTTL:    12,
			UploadLimit: "16M",
		},
		Database: DBConfig{
			Type:     "postgres",
			Host:     "127.0.0.1",
			Port:     5432,
			Name:     "vfcatalog",
			User:     "postgres",
			Passwd:   "myroot",
			MaxConn:  100,
			IdleConn: 10,
			Debug:    false,
		},
		Logger: LogConfig{
			Mode:       "development",
			FileEnable: true,
			Filename:   "/var/vfcatalog/vfcatalog.log",
		},
		Smtp: SmtpConfig{Port: 587},
		Admin: AdminConfig{
			Whatsapp: "+919876510000",
			Name:     "administrator",
		},
	}
}

// LoadConfig reads the yaml file (falling back to /etc/vfcatalog.yml and
// then the built-in defaults) and applies VFCATALOG_* environment overrides.
func LoadConfig(cfile string) (*AppConfig, error) {
	if cfile == "" {
		cfile = "vfcatalog.yml"
	}
	if !fileExists(cfile) {
		cfile = "/etc/vfcatalog.yml"
	}
	cfg := DefaultAppConfig()
	if fileExists(cfile) {
		data, err := os.ReadFile(cfile)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", cfile)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", cfile)
		}
	}
	applyEnv(cfg)
	cfg.initDirs()
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	setEnvValue("VFCATALOG_SYSTEM_WORKER_DIR", &cfg.System.Workdir)
	setEnvValue("VFCATALOG_SYSTEM_LOCATION", &cfg.System.Location)
	setEnvValue("VFCATALOG_SYSTEM_REGION", &cfg.System.Region)
	setEnvBoolValue("VFCATALOG_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("VFCATALOG_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("VFCATALOG_WEB_PORT", &cfg.Web.Port)
	setEnvValue("VFCATALOG_WEB_SECRET", &cfg.Web.Secret)
	setEnvIntValue("VFCATALOG_WEB_TOKEN_TTL", &cfg.Web.TokenTTL)

	setEnvValue("VFCATALOG_DB_TYPE", &cfg.Database.Type)
	setEnvValue("VFCATALOG_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("VFCATALOG_DB_PORT", &cfg.Database.Port)
	setEnvValue("VFCATALOG_DB_NAME", &cfg.Database.Name)
	setEnvValue("VFCATALOG_DB_USER", &cfg.Database.User)
	setEnvValue("VFCATALOG_DB_PWD", &cfg.Database.Passwd)
	setEnvBoolValue("VFCATALOG_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("VFCATALOG_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("VFCATALOG_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)

	setEnvValue("VFCATALOG_SMTP_HOST", &cfg.Smtp.Host)
	setEnvIntValue("VFCATALOG_SMTP_PORT", &cfg.Smtp.Port)
	setEnvValue("VFCATALOG_SMTP_USERNAME", &cfg.Smtp.Username)
	setEnvValue("VFCATALOG_SMTP_PASSWORD", &cfg.Smtp.Password)
	setEnvValue("VFCATALOG_SMTP_NOTIFY", &cfg.Smtp.Notify)

	setEnvValue("VFCATALOG_ADMIN_WHATSAPP", &cfg.Admin.Whatsapp)
	setEnvValue("VFCATALOG_ADMIN_NAME", &cfg.Admin.Name)
}

func setEnvValue(name string, val *string) {
	if v := os.Getenv(name); v != "" {
		*val = v
	}
}

func setEnvBoolValue(name string, val *bool) {
	if v := os.Getenv(name); v != "" {
		if b, err := cast.ToBoolE(v); err == nil {
			*val = b
		}
	}
}

func setEnvIntValue(name string, val *int) {
	if v := os.Getenv(name); v != "" {
		if i, err := cast.ToIntE(v); err == nil {
			*val = i
		}
	}
}

func fileExists(file string) bool {
	info, err := os.Stat(file)
	return err == nil && !info.IsDir()
}
