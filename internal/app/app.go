// Package app constructs every component once and wires them together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/varoOP/animebot/internal/anilist"
	"github.com/varoOP/animebot/internal/cache"
	"github.com/varoOP/animebot/internal/commands"
	"github.com/varoOP/animebot/internal/database"
	"github.com/varoOP/animebot/internal/discord"
	"github.com/varoOP/animebot/internal/domain"
	"github.com/varoOP/animebot/internal/fetch"
	"github.com/varoOP/animebot/internal/jikan"
	"github.com/varoOP/animebot/internal/jobs"
	"github.com/varoOP/animebot/internal/metrics"
	"github.com/varoOP/animebot/internal/notification"
	"github.com/varoOP/animebot/internal/scheduler"
	"github.com/varoOP/animebot/internal/subscription"
	"github.com/varoOP/animebot/internal/waifuim"
)

// Options change how the app talks to the outside world
type Options struct {
	// DryRun logs messages instead of sending them and skips the gateway
	DryRun bool
}

// App represents the bot with all dependencies initialized
type App struct {
	log       zerolog.Logger
	config    *domain.Config
	db        *database.DB
	persister *subscription.BoltPersister
	registry  *subscription.Registry
	scheduler *scheduler.Scheduler
	bot       *discord.Bot
	services  []suture.Service
}

// New initializes storage, clients, jobs and the messaging surface
func New(log zerolog.Logger, cfg *domain.Config, opts Options) (*App, error) {
	a := &App{log: log, config: cfg}
	if err := a.init(opts); err != nil {
		if cerr := a.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close after init error")
		}
		return nil, err
	}
	return a, nil
}

func (a *App) init(opts Options) error {
	log, cfg := a.log, a.config

	db, err := database.NewDB(cfg.Database.Dir, log)
	if err != nil {
		return errors.Wrap(err, "failed to initialize database")
	}
	a.db = db
	rankingRepo := database.NewRankingRepo(log, a.db)
	voteRepo := database.NewVoteRepo(log, a.db, cfg.Votes.MaxPerUserPerDay)

	if err := a.initSubscriptions(); err != nil {
		return err
	}

	responses := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	client := &http.Client{Timeout: cfg.HTTP.Timeout}
	media := anilist.NewClient(log, cfg.AniList.URL, a.fetcher(client, "anilist"), responses)
	season := jikan.NewClient(log, cfg.Jikan.URL, a.fetcher(client, "jikan"), responses)
	images := waifuim.NewClient(log, cfg.WaifuIm.URL, a.fetcher(client, "waifuim"), responses)

	var sink domain.Messenger
	var session *discordgo.Session
	if opts.DryRun {
		sink = notification.NewLogMessenger(log)
	} else {
		session, err = discord.NewSession(cfg.Discord.Token)
		if err != nil {
			return err
		}
		sink = discord.NewMessenger(session)
	}
	messenger := notification.NewThrottled(log, sink, cfg.Schedule.SendDelay)

	notifier := notification.NewService(log, cfg.Discord.OpsWebhookURL)

	j := jobs.New(log, jobs.Deps{
		Media:         media,
		Season:        season,
		Images:        images,
		Rankings:      rankingRepo,
		Subscriptions: a.registry,
		Messenger:     messenger,
		DailyHour:     cfg.Schedule.DailyCheckHour,
	})

	a.scheduler = scheduler.New(log, notifier)
	for _, t := range j.Tasks(cfg.Schedule) {
		if err := a.scheduler.Add(t); err != nil {
			return errors.Wrapf(err, "failed to register job %s", t.Name)
		}
	}
	a.services = append(a.services, a.scheduler)

	if session != nil {
		handler := commands.NewHandler(log, commands.Deps{
			Media:         media,
			Season:        season,
			Images:        images,
			Votes:         voteRepo,
			Subscriptions: a.registry,
			Prefix:        cfg.Discord.Prefix,
			NSFWToken:     cfg.Commands.NSFWToken,
		})
		a.bot = discord.NewBot(log, session, messenger, handler, cfg.Discord.Prefix)
		a.services = append(a.services, a.bot)
	}

	if cfg.Metrics.Addr != "" {
		a.services = append(a.services, metrics.NewServer(log, cfg.Metrics.Addr))
	}

	return nil
}

func (a *App) fetcher(client *http.Client, name string) *fetch.Fetcher {
	settings := fetch.DefaultSettings(name)
	settings.MaxAttempts = a.config.Fetch.MaxAttempts
	settings.RetryDelay = a.config.Fetch.RetryDelay
	settings.Cooldown = a.config.Fetch.Cooldown
	return fetch.New(a.log, client, settings)
}

// initSubscriptions opens the optional bbolt store, loads it and seeds the
// default channel into the airing notifications
func (a *App) initSubscriptions() error {
	var persister subscription.Persister
	if path := a.config.Subscriptions.Path; path != "" {
		p, err := subscription.NewBoltPersister(path)
		if err != nil {
			return errors.Wrap(err, "failed to open subscription store")
		}
		a.persister = p
		persister = p
	}

	a.registry = subscription.NewRegistry(a.log, persister)
	if err := a.registry.Load(); err != nil {
		return errors.Wrap(err, "failed to load subscriptions")
	}

	if id := a.config.Discord.DefaultChannelID; id != "" && !a.registry.IsSubscribed(domain.KindAiringToday, id) {
		if err := a.registry.Subscribe(domain.KindAiringToday, id, ""); err != nil {
			return errors.Wrap(err, "failed to seed default channel")
		}
	}
	return nil
}

// Registry returns the subscription registry
func (a *App) Registry() *subscription.Registry {
	return a.registry
}

// Jobs returns the names of the scheduled jobs
func (a *App) Jobs() []string {
	return a.scheduler.Names()
}

// Check runs one job once
func (a *App) Check(ctx context.Context, job string) error {
	return a.scheduler.RunNow(ctx, job)
}

// Run serves the scheduler, the bot and the metrics server until ctx is done
func (a *App) Run(ctx context.Context) error {
	root := suture.New("animebot", suture.Spec{
		EventHook:        scheduler.EventHook(a.log.With().Str("module", "supervisor").Logger()),
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})
	for _, s := range a.services {
		root.Add(s)
	}

	a.log.Info().Strs("jobs", a.scheduler.Names()).Msg("animebot started")

	err := root.Serve(ctx)
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		a.log.Info().Msg("animebot stopped")
		return nil
	}
	return err
}

// Close releases the database and the subscription store
func (a *App) Close() error {
	var firstErr error
	if a.persister != nil {
		if err := a.persister.Close(); err != nil {
			firstErr = err
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
