package config

import (
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/varoOP/animebot/internal/domain"
)

// EnvPrefix is prepended to every environment key, e.g. ANIMEBOT_DISCORD_TOKEN
const EnvPrefix = "ANIMEBOT"

var defaults = map[string]any{
	"discord.token":               "",
	"discord.prefix":              "v!",
	"discord.default_channel_id":  "",
	"discord.ops_webhook_url":     "",
	"anilist.url":                 "https://graphql.anilist.co",
	"jikan.url":                   "https://api.jikan.moe/v4",
	"waifuim.url":                 "https://api.waifu.im",
	"http.timeout":                15 * time.Second,
	"cache.ttl":                   time.Hour,
	"cache.max_entries":           100,
	"fetch.max_attempts":          3,
	"fetch.retry_delay":           2 * time.Second,
	"fetch.cooldown":              500 * time.Millisecond,
	"schedule.check_interval":     time.Hour,
	"schedule.daily_check_hour":   8,
	"schedule.waifu_pic_interval": 10 * time.Minute,
	"schedule.send_delay":         500 * time.Millisecond,
	"database.dir":                ".",
	"subscriptions.path":          "",
	"votes.max_per_user_per_day":  0,
	"commands.nsfw_token":         "eeeee",
	"metrics.addr":                "",
	"log.level":                   "info",
}

// legacyEnv are the unprefixed variable names older deployments use
var legacyEnv = map[string]string{
	"discord.token":              "DISCORD_TOKEN",
	"discord.default_channel_id": "CHANNEL_ID",
	"discord.prefix":             "PREFIX",
}

// SetDefaults registers every known key on v
func SetDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// BindEnv maps every key to ANIMEBOT_<KEY> and the legacy names to their keys.
// The prefixed variable wins when both are set.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return errors.Wrapf(err, "could not bind %s", legacy)
		}
	}
	return nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding what is already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "could not load %s", f)
		}
	}
	return nil
}

// Load reads the configuration from the global viper instance, which the CLI
// points at the config file
func Load() (*domain.Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom fills a domain.Config from v, then validates it
func LoadFrom(v *viper.Viper) (*domain.Config, error) {
	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		return nil, err
	}

	cfg := &domain.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "could not decode config")
	}
	cfg.Discord.Token = strings.TrimSpace(cfg.Discord.Token)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = newValidator()

// newValidator reports fields by their config key instead of the Go name
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
	})
	return v
}

// Validate checks cfg and reports the first offending keys by their config name
func Validate(cfg *domain.Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "could not validate config")
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, configKey(fe.Namespace())+" failed "+fe.Tag())
	}
	return errors.Errorf("invalid config: %s (set via config.yaml or %s_* environment variables)", strings.Join(msgs, ", "), EnvPrefix)
}

// configKey renders Config.discord.token as discord.token
func configKey(namespace string) string {
	_, key, ok := strings.Cut(namespace, ".")
	if !ok {
		return namespace
	}
	return key
}
