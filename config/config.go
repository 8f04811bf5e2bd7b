package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

// SysConfig holds process-wide system settings.
type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

// WebConfig holds the embedded web server settings.
type WebConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// CatalogConfig holds the external catalog gateway settings.
type CatalogConfig struct {
	// BaseURL of the catalog service, e.g. http://localhost:5000
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Timeout per request in seconds
	Timeout int `yaml:"timeout" json:"timeout"`
	// RefreshInterval for the periodic snapshot refresh, cron spec syntax
	RefreshInterval string `yaml:"refresh_interval" json:"refresh_interval"`
}

// DBConfig holds the sales journal database settings.
type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

// JournalConfig holds sales journal retention settings.
type JournalConfig struct {
	// RetentionDays before finalized invoice records are pruned, 0 keeps forever
	RetentionDays int `yaml:"retention_days" json:"retention_days"`
}

// SmtpConfig holds optional invoice mail delivery settings.
type SmtpConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	From     string `yaml:"from" json:"from"`
}

// LogConfig holds zap logger settings.
type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System   SysConfig     `yaml:"system" json:"system"`
	Web      WebConfig     `yaml:"web" json:"web"`
	Catalog  CatalogConfig `yaml:"catalog" json:"catalog"`
	Database DBConfig      `yaml:"database" json:"database"`
	Journal  JournalConfig `yaml:"journal" json:"journal"`
	Smtp     SmtpConfig    `yaml:"smtp" json:"smtp"`
	Logger   LogConfig     `yaml:"logger" json:"logger"`
}

func (c *AppConfig) GetLogDir() string {
	return filepath.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return filepath.Join(c.System.Workdir, "data")
}

func (c *AppConfig) GetBackupDir() string {
	return filepath.Join(c.System.Workdir, "backup")
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "billingd",
		Location: "Asia/Kolkata",
		Workdir:  "/var/billingd",
		Debug:    true,
	},
	Web: WebConfig{
		Host: "0.0.0.0",
		Port: 1920,
	},
	Catalog: CatalogConfig{
		BaseURL:         "http://127.0.0.1:5000",
		Timeout:         10,
		RefreshInterval: "@every 5m",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "billingd",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
	},
	Journal: JournalConfig{
		RetentionDays: 365,
	},
	Smtp: SmtpConfig{
		Enabled: false,
		Port:    587,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/billingd/billingd.log",
	},
}

// LoadConfig reads the yaml config file and applies environment overrides.
// A missing file falls back to DefaultAppConfig.
func LoadConfig(cfile string) *AppConfig {
	cfg := new(AppConfig)
	*cfg = *DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}
	setEnvValue("BILLINGD_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvBoolValue("BILLINGD_SYSTEM_DEBUG", &cfg.System.Debug)
	setEnvValue("BILLINGD_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("BILLINGD_WEB_PORT", &cfg.Web.Port)
	setEnvValue("BILLINGD_CATALOG_URL", &cfg.Catalog.BaseURL)
	setEnvIntValue("BILLINGD_CATALOG_TIMEOUT", &cfg.Catalog.Timeout)
	setEnvValue("BILLINGD_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("BILLINGD_DB_PORT", &cfg.Database.Port)
	setEnvValue("BILLINGD_DB_NAME", &cfg.Database.Name)
	setEnvValue("BILLINGD_DB_USER", &cfg.Database.User)
	setEnvValue("BILLINGD_DB_PASSWD", &cfg.Database.Passwd)
	setEnvValue("BILLINGD_SMTP_HOST", &cfg.Smtp.Host)
	setEnvValue("BILLINGD_SMTP_USERNAME", &cfg.Smtp.Username)
	setEnvValue("BILLINGD_SMTP_PASSWORD", &cfg.Smtp.Password)
	return cfg
}

func setEnvValue(name string, f *string) {
	if v, ok := os.LookupEnv(name); ok {
		*f = v
	}
}

func setEnvBoolValue(name string, f *bool) {
	if v, ok := os.LookupEnv(name); ok {
		*f = cast.ToBool(v)
	}
}

func setEnvIntValue(name string, f *int) {
	if v, ok := os.LookupEnv(name); ok {
		*f = cast.ToInt(v)
	}
}
