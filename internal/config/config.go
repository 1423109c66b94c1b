package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoggingConfig — настройки логирования и интеграции с Sentry.
type LoggingConfig struct {
	LogFile      string // путь к файлу логов (только ошибки)
	SentryDSN    string // DSN для Sentry
	EnableSentry bool   // включить отправку ошибок в Sentry
	Level        string // уровень консольного вывода: debug|info|warn|error
}

// Config — настройки утилиты, не относящиеся к параметрам конкретного
// запуска. Читается из необязательного YAML-файла и переменных окружения
// FWLOGREADER_*; у всех полей есть значения по умолчанию.
type Config struct {
	StreamingThresholdMB int    // порог больших файлов: дальше читаем чанками
	ProgressThresholdMB  int    // порог включения отчётов о прогрессе
	ChunkSize            int    // размер чанка потокового чтения, строк
	ProgressEvery        int    // период отчёта о прогрессе, строк
	OffsetFile           string // файл со смещениями для режима слежения

	Logging LoggingConfig
}

// Load читает конфигурацию через viper: значения по умолчанию,
// YAML-файл (явный путь или fwlogreader.yaml в текущем каталоге)
// и переменные окружения. Затем — валидация обязательных полей.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("StreamingThresholdMB", 64)
	v.SetDefault("ProgressThresholdMB", 16)
	v.SetDefault("ChunkSize", 1000)
	v.SetDefault("ProgressEvery", 100000)
	v.SetDefault("OffsetFile", "fwlogreader_offsets.json")
	v.SetDefault("Logging.Level", "info")

	v.SetEnvPrefix("FWLOGREADER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("fwlogreader")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// Файл не обязателен, остальные ошибки чтения — фатальны
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Validate проверяет обязательные поля конфигурации.
func (c *Config) Validate() error {
	if c.StreamingThresholdMB < 0 {
		return fmt.Errorf("StreamingThresholdMB must not be negative")
	}
	if c.ProgressThresholdMB < 0 {
		return fmt.Errorf("ProgressThresholdMB must not be negative")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("ChunkSize must be positive")
	}
	if c.ProgressEvery <= 0 {
		return fmt.Errorf("ProgressEvery must be positive")
	}
	return nil
}

// StreamingThreshold — порог больших файлов в байтах.
func (c *Config) StreamingThreshold() int64 {
	return int64(c.StreamingThresholdMB) * 1024 * 1024
}

// ProgressThreshold — порог отчётов о прогрессе в байтах.
func (c *Config) ProgressThreshold() int64 {
	return int64(c.ProgressThresholdMB) * 1024 * 1024
}
