package config

import (
	"errors"

	"github.com/spf13/viper"
)

const (
	// 运行日志默认路径
	DefaultJournalPath = "~/.framemover/journal.db"

	// 默认每扫描多少个文件输出一次进度
	DefaultLogEvery = 100
)

type Config struct {
	Logging struct {
		Level string
		File  string
	}
	Scanner struct {
		Precount bool
	}
	Journal struct {
		Enabled bool
		Path    string
	}
	Progress struct {
		LogEvery int `mapstructure:"log_every"`
	}
}

var cfg Config

// Load 读取配置文件，configFile 为空时按默认路径查找，找不到配置文件不算错误
func Load(configFile string) (*Config, error) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		viper.AddConfigPath("$HOME/.framemover")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/framemover")
	}

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
	viper.SetDefault("scanner.precount", true)
	viper.SetDefault("journal.enabled", false)
	viper.SetDefault("journal.path", DefaultJournalPath)
	viper.SetDefault("progress.log_every", DefaultLogEvery)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg = Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Progress.LogEvery <= 0 {
		cfg.Progress.LogEvery = DefaultLogEvery
	}

	return &cfg, nil
}

func Get() *Config {
	return &cfg
}
