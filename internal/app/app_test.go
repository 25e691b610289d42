package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varoOP/animebot/internal/domain"
)

func testConfig(t *testing.T) *domain.Config {
	t.Helper()
	dir := t.TempDir()
	boltPath := filepath.Join(dir, "subscriptions.db")
	return &domain.Config{
		Discord:       domain.DiscordConfig{Token: "token", Prefix: "v!", DefaultChannelID: "123"},
		AniList:       domain.UpstreamConfig{URL: "http://127.0.0.1:1"},
		Jikan:         domain.UpstreamConfig{URL: "http://127.0.0.1:1"},
		WaifuIm:       domain.UpstreamConfig{URL: "http://127.0.0.1:1"},
		HTTP:          domain.HTTPConfig{Timeout: time.Second},
		Cache:         domain.CacheConfig{TTL: time.Hour, MaxEntries: 10},
		Fetch:         domain.FetchConfig{MaxAttempts: 1},
		Schedule:      domain.ScheduleConfig{CheckInterval: time.Hour, DailyCheckHour: 8, WaifuPicInterval: 10 * time.Minute},
		Database:      domain.DatabaseConfig{Dir: dir},
		Subscriptions: domain.SubscriptionsConfig{Path: boltPath},
		Commands:      domain.CommandsConfig{NSFWToken: "eeeee"},
	}
}

func TestNew_DryRun(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(zerolog.Nop(), cfg, Options{DryRun: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, []string{"airing_today", "new_anime", "new_waifu", "ranking_update", "waifu_pic"}, a.Jobs())
	assert.True(t, a.Registry().IsSubscribed(domain.KindAiringToday, "123"))
	assert.Nil(t, a.bot)
}

func TestCheck_NoSubscribers(t *testing.T) {
	cfg := testConfig(t)
	cfg.Discord.DefaultChannelID = ""

	a, err := New(zerolog.Nop(), cfg, Options{DryRun: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	for _, job := range a.Jobs() {
		require.NoError(t, a.Check(context.Background(), job), job)
	}
	assert.Error(t, a.Check(context.Background(), "nope"))
}

func TestNew_SubscriptionsPersist(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(zerolog.Nop(), cfg, Options{DryRun: true})
	require.NoError(t, err)
	require.NoError(t, a.Registry().Subscribe(domain.KindWaifuPic, "456", ""))
	require.NoError(t, a.Close())

	b, err := New(zerolog.Nop(), cfg, Options{DryRun: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	assert.True(t, b.Registry().IsSubscribed(domain.KindWaifuPic, "456"))
	assert.Len(t, b.Registry().Subscribers(domain.KindAiringToday), 1)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Discord.DefaultChannelID = ""
	cfg.Schedule.CheckInterval = time.Hour

	a, err := New(zerolog.Nop(), cfg, Options{DryRun: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
}
