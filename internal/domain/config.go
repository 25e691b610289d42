package domain

import "time"

type Config struct {
	Discord       DiscordConfig       `mapstructure:"discord"`
	AniList       UpstreamConfig      `mapstructure:"anilist"`
	Jikan         UpstreamConfig      `mapstructure:"jikan"`
	WaifuIm       UpstreamConfig      `mapstructure:"waifuim"`
	HTTP          HTTPConfig          `mapstructure:"http"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Fetch         FetchConfig         `mapstructure:"fetch"`
	Schedule      ScheduleConfig      `mapstructure:"schedule"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Subscriptions SubscriptionsConfig `mapstructure:"subscriptions"`
	Votes         VotesConfig         `mapstructure:"votes"`
	Commands      CommandsConfig      `mapstructure:"commands"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Log           LogConfig           `mapstructure:"log"`
}

type DiscordConfig struct {
	Token            string `mapstructure:"token" validate:"required"`
	Prefix           string `mapstructure:"prefix" validate:"required"`
	DefaultChannelID string `mapstructure:"default_channel_id" validate:"omitempty,numeric"`
	OpsWebhookURL    string `mapstructure:"ops_webhook_url" validate:"omitempty,url"`
}

type UpstreamConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type CacheConfig struct {
	TTL        time.Duration `mapstructure:"ttl" validate:"gt=0"`
	MaxEntries int           `mapstructure:"max_entries" validate:"gt=0"`
}

type FetchConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" validate:"gte=1,lte=3"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
	Cooldown    time.Duration `mapstructure:"cooldown" validate:"gte=0"`
}

type ScheduleConfig struct {
	CheckInterval    time.Duration `mapstructure:"check_interval" validate:"gt=0"`
	DailyCheckHour   int           `mapstructure:"daily_check_hour" validate:"gte=0,lte=23"`
	WaifuPicInterval time.Duration `mapstructure:"waifu_pic_interval" validate:"gt=0"`
	SendDelay        time.Duration `mapstructure:"send_delay" validate:"gte=0"`
}

type DatabaseConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

type SubscriptionsConfig struct {
	// Path of the bbolt file; empty keeps subscriptions in memory only
	Path string `mapstructure:"path"`
}

type VotesConfig struct {
	MaxPerUserPerDay int `mapstructure:"max_per_user_per_day" validate:"gte=0"`
}

type CommandsConfig struct {
	NSFWToken string `mapstructure:"nsfw_token" validate:"required"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}
