package configuration

import (
	"fmt"
	"os"
	"strconv"

	"fb-video-manager/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	Facebook    Facebook    `json:"facebook"`
	Downloader  Downloader  `json:"downloader"`
	Transcoder  Transcoder  `json:"transcoder"`
	Scheduler   Scheduler   `json:"scheduler"`
	Logger      Logger      `json:"logger"`
}

type App struct {
	Port        int    `json:"port"`
	TLSEnabled  bool   `json:"tlsEnabled"`
	TLSCertFile string `json:"tlsCertFile"`
	TLSKeyFile  string `json:"tlsKeyFile"`
}

type Database struct {
	Psql  Db `json:"psql"`
	MySql Db `json:"mysql"`
	Mssql Db `json:"mssql"`
	Mongo Db `json:"mongo"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

// Facebook holds Graph API credentials and upload defaults.
type Facebook struct {
	AccessToken        string `json:"accessToken"`
	PageID             string `json:"pageId"`
	GraphVersion       string `json:"graphVersion"`
	AutoUploadEnabled  bool   `json:"autoUploadEnabled"`
	DefaultTitlePrefix string `json:"defaultTitlePrefix"`
	DefaultDescription string `json:"defaultDescription"`
	MaxFileSizeMB      int64  `json:"maxFileSizeMb"`
}

type Downloader struct {
	OutputDir        string `json:"outputDir"`
	Quality          string `json:"quality"`
	Format           string `json:"format"`
	FilenameTemplate string `json:"filenameTemplate"`
	MaxFileSizeMB    int64  `json:"maxFileSizeMb"`
	Retries          int    `json:"retries"`
	SaveMetadata     bool   `json:"saveMetadata"`
}

type Transcoder struct {
	Enabled      bool   `json:"enabled"`
	HandbrakeCLI string `json:"handbrakeCli"`
}

type Scheduler struct {
	CheckIntervalSeconds int `json:"checkIntervalSeconds"`
	ProcessingTimeoutMin int `json:"processingTimeoutMin"`
}

type Logger struct {
	Format string `json:"format"`
}

var C Config

func init() {
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initDownloader(&C)
	initScheduler(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}

	// Optional MSSQL config via environment (Azure SQL in production)
	if v := os.Getenv("MSSQL_DB_NAME"); v != "" && C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = v
	}
	if v := os.Getenv("MSSQL_HOST"); v != "" && C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = v
	}
	if v := os.Getenv("MSSQL_USER"); v != "" && C.Database.Mssql.User == "" {
		C.Database.Mssql.User = v
	}
	if v := os.Getenv("MSSQL_PASSWORD"); v != "" && C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = v
	}
	if C.Database.Mssql.Port == "" {
		if v := os.Getenv("MSSQL_PORT"); v != "" {
			C.Database.Mssql.Port = v
		} else {
			C.Database.Mssql.Port = "1433"
		}
	}
	if C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = "localhost"
	}
}

func initApp(C *Config) {
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 5000
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 5000
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			C.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			C.App.TLSEnabled = false
		}
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
}

func initDownloader(C *Config) {
	if C.Downloader.OutputDir == "" {
		if v := os.Getenv("DOWNLOAD_OUTPUT_DIR"); v != "" {
			C.Downloader.OutputDir = v
		} else {
			C.Downloader.OutputDir = "downloads"
		}
	}
	if C.Downloader.Quality == "" {
		C.Downloader.Quality = "best"
	}
	if C.Downloader.Format == "" {
		C.Downloader.Format = "mp4"
	}
	if C.Downloader.FilenameTemplate == "" {
		// ID in the name avoids special-character collisions
		C.Downloader.FilenameTemplate = "%(title).200s [%(id)s].%(ext)s"
	}
	if C.Downloader.Retries == 0 {
		C.Downloader.Retries = 3
	}
}

func initScheduler(C *Config) {
	if v := os.Getenv("SCHEDULER_CHECK_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			C.Scheduler.CheckIntervalSeconds = n
		}
	}
	if C.Scheduler.CheckIntervalSeconds == 0 {
		C.Scheduler.CheckIntervalSeconds = 60
	}
	if C.Scheduler.ProcessingTimeoutMin == 0 {
		C.Scheduler.ProcessingTimeoutMin = 15
	}
}
