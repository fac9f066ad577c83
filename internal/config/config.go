package config

import "github.com/spf13/viper"

type Config struct {
	Server    ServerConfig
	Download  DownloadConfig
	Reaper    ReaperConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
}

type ServerConfig struct {
	Host     string
	Port     string
	Env      string
	LogLevel string
}

type DownloadConfig struct {
	// Dir is the scratch directory all artifacts live under.
	Dir string
	// MaxFileSizeMB aborts fetches whose media exceeds this many megabytes.
	MaxFileSizeMB int64
	// SocketTimeoutSec bounds each network operation of the extraction tool.
	SocketTimeoutSec int
	Retries          int
	// FragmentConcurrency bounds parallel fragment downloads per job.
	FragmentConcurrency int
	YTDLPPath           string
	FFmpegPath          string
}

type ReaperConfig struct {
	RetentionMin    int
	IntervalMin     int
	ErrorBackoffSec int
}

type RateLimitConfig struct {
	// Values are requests per minute, keyed by client IP.
	DefaultPerMin      int
	StartPerMin        int
	DownloadFilePerMin int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.host", "HOST")
	_ = viper.BindEnv("server.port", "PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("download.dir", "DOWNLOAD_DIR")
	_ = viper.BindEnv("download.max_file_size_mb", "MAX_FILE_SIZE_MB")
	_ = viper.BindEnv("download.socket_timeout_sec", "SOCKET_TIMEOUT_SEC")
	_ = viper.BindEnv("download.retries", "DOWNLOAD_RETRIES")
	_ = viper.BindEnv("download.fragment_concurrency", "FRAGMENT_CONCURRENCY")
	_ = viper.BindEnv("download.ytdlp_path", "YTDLP_PATH")
	_ = viper.BindEnv("download.ffmpeg_path", "FFMPEG_PATH")
	_ = viper.BindEnv("reaper.retention_min", "REAPER_RETENTION_MIN")
	_ = viper.BindEnv("reaper.interval_min", "REAPER_INTERVAL_MIN")
	_ = viper.BindEnv("reaper.error_backoff_sec", "REAPER_ERROR_BACKOFF_SEC")
	_ = viper.BindEnv("ratelimit.default_per_min", "RATE_LIMIT_DEFAULT")
	_ = viper.BindEnv("ratelimit.start_per_min", "RATE_LIMIT_START_DOWNLOAD")
	_ = viper.BindEnv("ratelimit.download_file_per_min", "RATE_LIMIT_DOWNLOAD_FILE")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")

	// Defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "5000")
	viper.SetDefault("server.env", "production")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("download.dir", "temp_downloads")
	viper.SetDefault("download.max_file_size_mb", 2000)
	viper.SetDefault("download.socket_timeout_sec", 30)
	viper.SetDefault("download.retries", 3)
	viper.SetDefault("download.fragment_concurrency", 4)
	viper.SetDefault("download.ytdlp_path", "yt-dlp")
	viper.SetDefault("download.ffmpeg_path", "ffmpeg")
	viper.SetDefault("reaper.retention_min", 60)
	viper.SetDefault("reaper.interval_min", 60)
	viper.SetDefault("reaper.error_backoff_sec", 60)
	viper.SetDefault("ratelimit.default_per_min", 5)
	viper.SetDefault("ratelimit.start_per_min", 3)
	viper.SetDefault("ratelimit.download_file_per_min", 5)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Host:     viper.GetString("server.host"),
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Download: DownloadConfig{
			Dir:                 viper.GetString("download.dir"),
			MaxFileSizeMB:       viper.GetInt64("download.max_file_size_mb"),
			SocketTimeoutSec:    viper.GetInt("download.socket_timeout_sec"),
			Retries:             viper.GetInt("download.retries"),
			FragmentConcurrency: viper.GetInt("download.fragment_concurrency"),
			YTDLPPath:           viper.GetString("download.ytdlp_path"),
			FFmpegPath:          viper.GetString("download.ffmpeg_path"),
		},
		Reaper: ReaperConfig{
			RetentionMin:    viper.GetInt("reaper.retention_min"),
			IntervalMin:     viper.GetInt("reaper.interval_min"),
			ErrorBackoffSec: viper.GetInt("reaper.error_backoff_sec"),
		},
		RateLimit: RateLimitConfig{
			DefaultPerMin:      viper.GetInt("ratelimit.default_per_min"),
			StartPerMin:        viper.GetInt("ratelimit.start_per_min"),
			DownloadFilePerMin: viper.GetInt("ratelimit.download_file_per_min"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
	}

	return cfg, nil
}
