package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/varoOP/animebot/internal/classify"
	"github.com/varoOP/animebot/internal/domain"
	"github.com/varoOP/animebot/internal/format"
	"github.com/varoOP/animebot/internal/jobs"
)

const (
	topSize          = 10
	topCharacterPool = 50
	topVoteSize      = 5
	checkNewSize     = 10
	maxTopWaifus     = 20
	defaultTopWaifus = 10
	waifuDescLimit   = 50
)

var kindLabels = map[domain.NotificationKind]string{
	domain.KindNewAnime:      "new anime notifications",
	domain.KindNewWaifu:      "new waifu notifications",
	domain.KindAiringToday:   "airing today notifications",
	domain.KindWaifuPic:      "automatic waifu pictures",
	domain.KindRankingUpdate: "anime ranking notifications",
}

func (h *Handler) register() {
	h.add(command{name: "anime", usage: "anime <title>", help: "Look up an anime", handler: h.searchMedia(domain.MediaAnime)})
	h.add(command{name: "manga", usage: "manga <title>", help: "Look up a manga", handler: h.searchMedia(domain.MediaManga)})
	h.add(command{name: "character", usage: "character <name>", help: "Look up a character", handler: h.character})
	h.add(command{name: "top", usage: "top [genre]", help: "Top 10 trending anime, optionally by genre", handler: h.top})
	h.add(command{name: "topyear", usage: "topyear", help: "Most popular anime of this year", handler: h.topYear})
	h.add(command{name: "topwaifu", usage: "topwaifu", help: "Top 10 favourite waifus", handler: h.topWaifu})
	h.add(command{name: "vote", usage: "vote <waifu name>", help: "Vote for your favourite waifu", handler: h.vote})
	h.add(command{name: "topvote", usage: "topvote", help: "Most voted waifus of the server", handler: h.topVote})
	h.add(command{name: "checknew", usage: "checknew", help: "Anime released today", handler: h.checkNew})
	h.add(command{name: "waifu", usage: "waifu [false]", help: "A random waifu picture", handler: h.waifu})
	h.add(command{name: "topwaifus", usage: "topwaifus [limit]", help: "The most popular waifus, up to 20", handler: h.topWaifus})

	h.add(command{name: "autoanime", usage: "autoanime #channel", help: "Toggle new anime notifications", admin: true, handler: h.toggle("autoanime", domain.KindNewAnime)})
	h.add(command{name: "autowaifu", usage: "autowaifu #channel", help: "Toggle new waifu notifications", admin: true, handler: h.toggle("autowaifu", domain.KindNewWaifu)})
	h.add(command{name: "autoairing", usage: "autoairing #channel", help: "Toggle airing today notifications", admin: true, handler: h.toggle("autoairing", domain.KindAiringToday)})
	h.add(command{name: "autowaifupic", usage: "autowaifupic #channel", help: "Toggle a waifu picture every few minutes", admin: true, handler: h.toggle("autowaifupic", domain.KindWaifuPic)})
	h.add(command{name: "autoranking", usage: "autoranking #channel [genre]", help: "Toggle ranking change notifications", admin: true, handler: h.toggle("autoranking", domain.KindRankingUpdate)})

	h.add(command{name: "help", usage: "help", help: "Show this list", handler: h.help})
}

func (h *Handler) searchMedia(kind domain.MediaKind) func(context.Context, Request) ([]domain.Message, error) {
	name := strings.ToLower(string(kind))
	return func(ctx context.Context, req Request) ([]domain.Message, error) {
		query := req.Rest()
		if query == "" {
			return nil, h.usage(name)
		}
		m, err := h.deps.Media.SearchMedia(ctx, kind, query)
		if err != nil {
			return h.notFound(err, fmt.Sprintf("No %s found!", name))
		}
		return []domain.Message{{Embed: format.MediaEmbed(*m)}}, nil
	}
}

func (h *Handler) character(ctx context.Context, req Request) ([]domain.Message, error) {
	query := req.Rest()
	if query == "" {
		return nil, h.usage("character")
	}
	c, err := h.deps.Media.SearchCharacter(ctx, query)
	if err != nil {
		return h.notFound(err, "No character found!")
	}
	return []domain.Message{{Embed: format.CharacterEmbed(*c)}}, nil
}

func (h *Handler) top(ctx context.Context, req Request) ([]domain.Message, error) {
	genre, err := domain.NormalizeGenre(req.Rest())
	if err != nil {
		return nil, err
	}
	media, err := h.deps.Media.Trending(ctx, domain.MediaAnime, topSize, genre)
	if err != nil {
		return nil, err
	}
	if len(media) == 0 {
		return []domain.Message{domain.Text("No data found!")}, nil
	}
	title := "Top 10 Anime" + domain.GenreLabel(genre)
	return []domain.Message{{Embed: format.TopEmbed(title, format.ColorRanking, media, true)}}, nil
}

func (h *Handler) topYear(ctx context.Context, _ Request) ([]domain.Message, error) {
	year := h.deps.Now().Year()
	media, err := h.deps.Media.PopularByYear(ctx, year, topSize)
	if err != nil {
		return nil, err
	}
	if len(media) == 0 {
		return []domain.Message{domain.Text("No data found!")}, nil
	}
	title := fmt.Sprintf("Top 10 Anime of %d", year)
	return []domain.Message{{Embed: format.TopEmbed(title, format.ColorTopYear, media, false)}}, nil
}

func (h *Handler) femaleTopCharacters(ctx context.Context) ([]domain.Character, error) {
	chars, err := h.deps.Media.TopCharacters(ctx, topCharacterPool)
	if err != nil {
		return nil, err
	}
	return classify.Female(chars), nil
}

func (h *Handler) topWaifu(ctx context.Context, _ Request) ([]domain.Message, error) {
	waifus, err := h.femaleTopCharacters(ctx)
	if err != nil {
		return nil, err
	}
	if len(waifus) == 0 {
		return []domain.Message{domain.Text("No female characters found!")}, nil
	}
	if len(waifus) > topSize {
		waifus = waifus[:topSize]
	}

	e := &domain.Embed{Title: "Top 10 Favourite Waifus", Color: format.ColorCharacter, Footer: "Source: " + domain.SourceAniList}
	for i, c := range waifus {
		e.AddField(fmt.Sprintf("%d. %s", i+1, c.FullName), "📜 "+format.Description(c.Description, waifuDescLimit), false)
	}
	return []domain.Message{{Embed: e}}, nil
}

func (h *Handler) vote(ctx context.Context, req Request) ([]domain.Message, error) {
	waifu := req.Rest()
	if waifu == "" {
		return nil, h.usage("vote")
	}
	if err := h.deps.Votes.AddVote(ctx, domain.Vote{UserID: req.UserID, Waifu: waifu}); err != nil {
		return nil, err
	}
	return []domain.Message{domain.Text(fmt.Sprintf("Voted for **%s**! Use `%stopvote` to see the results.", waifu, h.deps.Prefix))}, nil
}

func (h *Handler) topVote(ctx context.Context, _ Request) ([]domain.Message, error) {
	top, err := h.deps.Votes.TopVotes(ctx, topVoteSize)
	if err != nil {
		return nil, err
	}
	if len(top) == 0 {
		return []domain.Message{domain.Text(fmt.Sprintf("No votes yet! Use `%svote <waifu name>` to get started.", h.deps.Prefix))}, nil
	}

	e := &domain.Embed{Title: "Top 5 Waifus (Server)", Color: format.ColorCharacter, Footer: "Source: Server"}
	for i, v := range top {
		e.AddField(fmt.Sprintf("%d. %s", i+1, v.Waifu), fmt.Sprintf("%d votes", v.Count), false)
	}
	return []domain.Message{{Embed: e}}, nil
}

func (h *Handler) checkNew(ctx context.Context, _ Request) ([]domain.Message, error) {
	today := h.deps.Now()
	day := fmt.Sprintf("%d/%d/%d", today.Day(), today.Month(), today.Year())

	media, err := jobs.Releases(ctx, h.log, h.deps.Media, h.deps.Season, today)
	if err != nil {
		return nil, err
	}
	if len(media) == 0 {
		return []domain.Message{domain.Text(fmt.Sprintf("No anime released today (%s)!", day))}, nil
	}
	if len(media) > checkNewSize {
		media = media[:checkNewSize]
	}

	e := &domain.Embed{Title: fmt.Sprintf("Anime Released Today (%s)", day), Color: format.ColorAnime, Footer: "Source: AniList & Jikan"}
	for i, m := range media {
		e.AddField(fmt.Sprintf("%d. %s (%s)", i+1, m.Title(), m.Source), fmt.Sprintf("[Details](%s)", m.SiteURL), false)
	}
	return []domain.Message{{Embed: e}}, nil
}

// waifu only accepts "false" or the configured NSFW token, nothing that
// merely looks like a boolean
func (h *Handler) waifu(ctx context.Context, req Request) ([]domain.Message, error) {
	flag := "false"
	if len(req.Args) > 0 {
		flag = strings.ToLower(req.Args[0])
	}

	var nsfw bool
	switch {
	case flag == "false":
	case h.deps.NSFWToken != "" && flag == strings.ToLower(h.deps.NSFWToken):
		nsfw = true
	default:
		return nil, domain.NewValidationError("Invalid NSFW parameter, use `%swaifu` or `%swaifu false`.", h.deps.Prefix, h.deps.Prefix)
	}

	img, err := h.deps.Images.RandomImage(ctx, nsfw)
	if err != nil {
		return h.notFound(err, "No waifu found 😢")
	}
	return []domain.Message{format.ImageMessage("", *img)}, nil
}

func (h *Handler) topWaifus(ctx context.Context, req Request) ([]domain.Message, error) {
	limit := defaultTopWaifus
	if len(req.Args) > 0 {
		n, err := strconv.Atoi(req.Args[0])
		if err != nil || n < 1 {
			return nil, domain.NewValidationError("The limit must be a number between 1 and %d.", maxTopWaifus)
		}
		limit = n
	}
	if limit > maxTopWaifus {
		return nil, domain.NewValidationError("At most %d waifus!", maxTopWaifus)
	}

	waifus, err := h.femaleTopCharacters(ctx)
	if err != nil {
		return nil, err
	}
	if len(waifus) == 0 {
		return []domain.Message{domain.Text("No waifus found!")}, nil
	}
	if len(waifus) > limit {
		waifus = waifus[:limit]
	}

	images, err := h.deps.Images.PopularImages(ctx, limit)
	if err != nil {
		h.log.Warn().Err(err).Msg("could not fetch popular images")
		return []domain.Message{domain.Text("Could not get images from waifu.im!")}, nil
	}

	e := &domain.Embed{
		Title:  fmt.Sprintf("🏆 Top %d Most Popular Waifus", limit),
		Color:  format.ColorTopWaifus,
		Footer: "Source: AniList & waifu.im",
	}
	for i, c := range waifus {
		anime := c.OriginMediaTitle
		if anime == "" {
			anime = "Unknown"
		}
		e.AddField(fmt.Sprintf("%d. %s", i+1, c.FullName), "Anime: "+anime, false)
	}
	if len(images) > 0 {
		e.ThumbnailURL = images[0].URL
	} else {
		e.ThumbnailURL = waifus[0].ImageURL
	}
	return []domain.Message{{Embed: e}}, nil
}

// toggle subscribes the mentioned channel, or without a mention unsubscribes
// the current one
func (h *Handler) toggle(name string, kind domain.NotificationKind) func(context.Context, Request) ([]domain.Message, error) {
	label := kindLabels[kind]
	return func(_ context.Context, req Request) ([]domain.Message, error) {
		if len(req.Args) == 0 {
			removed, err := h.deps.Subscriptions.Unsubscribe(kind, req.ChannelID)
			if err != nil {
				return nil, err
			}
			if !removed {
				return []domain.Message{domain.Text(fmt.Sprintf("⚠️ Please specify a channel (e.g. `%s%s`)", h.deps.Prefix, h.commands[name].usage))}, nil
			}
			return []domain.Message{domain.Text("❌ Disabled " + label)}, nil
		}

		channelID, ok := ParseChannelMention(req.Args[0])
		if !ok {
			return nil, h.usage(name)
		}

		var genre string
		if kind == domain.KindRankingUpdate && len(req.Args) > 1 {
			g, err := domain.NormalizeGenre(strings.Join(req.Args[1:], " "))
			if err != nil {
				return nil, err
			}
			genre = g
		}

		if err := h.deps.Subscriptions.Subscribe(kind, channelID, genre); err != nil {
			return nil, err
		}
		return []domain.Message{domain.Text(fmt.Sprintf("✅ Enabled %s%s in <#%s>", label, domain.GenreLabel(genre), channelID))}, nil
	}
}

func (h *Handler) help(_ context.Context, _ Request) ([]domain.Message, error) {
	e := &domain.Embed{Title: "Commands", Color: format.ColorRanking}
	for _, name := range h.order {
		c := h.commands[name]
		help := c.help
		if c.admin {
			help += " (admin)"
		}
		e.AddField(h.deps.Prefix+c.usage, help, false)
	}
	return []domain.Message{{Embed: e}}, nil
}
