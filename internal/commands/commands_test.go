package commands

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varoOP/animebot/internal/domain"
	"github.com/varoOP/animebot/internal/format"
	"github.com/varoOP/animebot/internal/subscription"
)

var fixedNow = time.Date(2024, time.October, 5, 12, 0, 0, 0, time.Local)

type harness struct {
	handler  *Handler
	media    *fakeMedia
	season   *fakeSeason
	images   *fakeImages
	votes    *fakeVotes
	registry *subscription.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		media:    &fakeMedia{media: map[domain.MediaKind]*domain.Media{}},
		season:   &fakeSeason{},
		images:   &fakeImages{},
		votes:    &fakeVotes{maxPerDay: 2},
		registry: subscription.NewRegistry(zerolog.Nop(), nil),
	}
	h.handler = NewHandler(zerolog.Nop(), Deps{
		Media:         h.media,
		Season:        h.season,
		Images:        h.images,
		Votes:         h.votes,
		Subscriptions: h.registry,
		Prefix:        "!",
		NSFWToken:     "secret",
		Now:           func() time.Time { return fixedNow },
		Rand:          func() float64 { return 0.99 },
	})
	return h
}

func (h *harness) run(t *testing.T, content string, admin bool) []domain.Message {
	t.Helper()
	req, ok := Parse("!", content)
	require.True(t, ok, "not a command: %q", content)
	req.ChannelID = "100"
	req.UserID = "u1"
	req.IsAdmin = admin
	msgs := h.handler.Handle(context.Background(), req)
	require.NotEmpty(t, msgs)
	return msgs
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		ok      bool
		want    Request
	}{
		{name: "simple", content: "!anime naruto", ok: true, want: Request{Name: "anime", Args: []string{"naruto"}}},
		{name: "case insensitive name", content: "!TOP Action", ok: true, want: Request{Name: "top", Args: []string{"Action"}}},
		{name: "extra spaces", content: "!vote   Rem  ", ok: true, want: Request{Name: "vote", Args: []string{"Rem"}}},
		{name: "no prefix", content: "anime naruto", ok: false},
		{name: "prefix only", content: "!", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse("!", tt.content)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseChannelMention(t *testing.T) {
	id, ok := ParseChannelMention("<#123456>")
	assert.True(t, ok)
	assert.Equal(t, "123456", id)

	for _, bad := range []string{"#general", "123456", "<#abc>", "<@123>"} {
		_, ok := ParseChannelMention(bad)
		assert.False(t, ok, bad)
	}
}

func TestHandle_Unknown(t *testing.T) {
	h := newHarness(t)
	msgs := h.run(t, "!nope", false)
	assert.Contains(t, msgs[0].Content, "Unknown command")
	assert.Contains(t, msgs[0].Content, "!help")
}

func TestHandle_Reaction(t *testing.T) {
	h := newHarness(t)
	h.handler.deps.Rand = func() float64 { return 0.1 }
	h.media.media[domain.MediaAnime] = &domain.Media{TitleRomaji: "Frieren", Kind: domain.MediaAnime}

	msgs := h.run(t, "!anime frieren", false)
	require.Len(t, msgs, 2)
	assert.Equal(t, reactions[0], msgs[1].Content)
}

func TestAnime(t *testing.T) {
	h := newHarness(t)
	h.media.media[domain.MediaAnime] = &domain.Media{TitleRomaji: "Sousou no Frieren", Kind: domain.MediaAnime, Source: domain.SourceAniList}

	msgs := h.run(t, "!anime sousou no frieren", false)
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].Embed)
	assert.Equal(t, "Sousou no Frieren", msgs[0].Embed.Title)
	assert.Equal(t, format.ColorAnime, msgs[0].Embed.Color)
	assert.Equal(t, "sousou no frieren", h.media.lastQuery)
}

func TestAnime_NotFound(t *testing.T) {
	h := newHarness(t)
	msgs := h.run(t, "!manga unknown", false)
	assert.Equal(t, "No manga found!", msgs[0].Content)
}

func TestAnime_MissingQuery(t *testing.T) {
	h := newHarness(t)
	msgs := h.run(t, "!anime", false)
	assert.Equal(t, "Usage: `!anime <title>`", msgs[0].Content)
}

func TestAnime_Unavailable(t *testing.T) {
	h := newHarness(t)
	h.media.err = errors.Wrap(domain.ErrUnavailable, "anilist: circuit open")
	msgs := h.run(t, "!anime naruto", false)
	assert.Equal(t, "No anime found!", msgs[0].Content)

	msgs = h.run(t, "!character rem", false)
	assert.Equal(t, "No character found!", msgs[0].Content)
}

func TestTop_Unavailable(t *testing.T) {
	h := newHarness(t)
	h.media.err = errors.Wrap(domain.ErrUnavailable, "anilist")
	msgs := h.run(t, "!top", false)
	assert.Contains(t, msgs[0].Content, "not reachable")
}

func TestHandle_InternalError(t *testing.T) {
	h := newHarness(t)
	h.media.err = errors.New("boom")
	msgs := h.run(t, "!character rem", false)
	assert.Equal(t, "Something went wrong while running `!character`!", msgs[0].Content)
}

func TestCharacter(t *testing.T) {
	h := newHarness(t)
	h.media.character = &domain.Character{FullName: "Rem", OriginMediaTitle: "Re:Zero"}
	msgs := h.run(t, "!character rem", false)
	require.NotNil(t, msgs[0].Embed)
	assert.Equal(t, "Rem", msgs[0].Embed.Title)
	require.Len(t, msgs[0].Embed.Fields, 1)
	assert.Equal(t, "Re:Zero", msgs[0].Embed.Fields[0].Value)
}

func TestTop(t *testing.T) {
	h := newHarness(t)
	h.media.trending = []domain.Media{
		{TitleRomaji: "A", AverageScore: domain.IntPtr(90), StartDate: domain.FuzzyDate{Year: domain.IntPtr(2023)}},
		{TitleRomaji: "B"},
	}

	msgs := h.run(t, "!top Slice of Life", false)
	e := msgs[0].Embed
	require.NotNil(t, e)
	assert.Equal(t, "slice of life", h.media.lastGenre)
	assert.Equal(t, "Top 10 Anime (slice of life)", e.Title)
	require.Len(t, e.Fields, 2)
	assert.Equal(t, "1. A", e.Fields[0].Name)
	assert.Equal(t, "⭐ 90/100 | 🗓️ 2023", e.Fields[0].Value)
}

func TestTop_InvalidGenre(t *testing.T) {
	h := newHarness(t)
	msgs := h.run(t, "!top cooking", false)
	assert.Contains(t, msgs[0].Content, "Genre 'cooking' is not valid!")
	assert.Empty(t, h.media.lastGenre)
}

func TestTopYear(t *testing.T) {
	h := newHarness(t)
	h.media.popular = []domain.Media{{TitleRomaji: "A"}}
	msgs := h.run(t, "!topyear", false)
	require.NotNil(t, msgs[0].Embed)
	assert.Equal(t, 2024, h.media.lastYear)
	assert.Equal(t, "Top 10 Anime of 2024", msgs[0].Embed.Title)
	assert.Equal(t, format.ColorTopYear, msgs[0].Embed.Color)
}

func TestTopWaifu(t *testing.T) {
	h := newHarness(t)
	h.media.top = []domain.Character{
		{FullName: "Levi Ackerman", Description: "He is a soldier."},
		{FullName: "Mikasa Ackerman", Description: "A girl from Shiganshina."},
	}
	msgs := h.run(t, "!topwaifu", false)
	e := msgs[0].Embed
	require.NotNil(t, e)
	require.Len(t, e.Fields, 1)
	assert.Equal(t, "1. Mikasa Ackerman", e.Fields[0].Name)
}

func TestTopWaifu_NoneFemale(t *testing.T) {
	h := newHarness(t)
	h.media.top = []domain.Character{{FullName: "Levi", Description: "He is a soldier."}}
	msgs := h.run(t, "!topwaifu", false)
	assert.Equal(t, "No female characters found!", msgs[0].Content)
}

func TestVote(t *testing.T) {
	h := newHarness(t)

	msgs := h.run(t, "!vote Rem", false)
	assert.Equal(t, "Voted for **Rem**! Use `!topvote` to see the results.", msgs[0].Content)
	h.run(t, "!vote Emilia", false)

	msgs = h.run(t, "!vote Ram", false)
	assert.Equal(t, domain.ErrVoteLimit.Message, msgs[0].Content)

	msgs = h.run(t, "!topvote", false)
	e := msgs[0].Embed
	require.NotNil(t, e)
	assert.Equal(t, "Top 5 Waifus (Server)", e.Title)
	require.Len(t, e.Fields, 2)
	assert.Equal(t, "1. Rem", e.Fields[0].Name)
	assert.Equal(t, "1 votes", e.Fields[0].Value)
}

func TestTopVote_Empty(t *testing.T) {
	h := newHarness(t)
	msgs := h.run(t, "!topvote", false)
	assert.Contains(t, msgs[0].Content, "No votes yet!")
}

func TestCheckNew(t *testing.T) {
	h := newHarness(t)
	h.season.releases = []domain.Media{{TitleRomaji: "Fallback Show", SiteURL: "https://myanimelist.net/anime/1", Source: domain.SourceJikan}}

	msgs := h.run(t, "!checknew", false)
	e := msgs[0].Embed
	require.NotNil(t, e)
	require.Len(t, e.Fields, 1)
	assert.Equal(t, "[Details](https://myanimelist.net/anime/1)", e.Fields[0].Value)
}

func TestCheckNew_Empty(t *testing.T) {
	h := newHarness(t)
	msgs := h.run(t, "!checknew", false)
	assert.Equal(t, "No anime released today (5/10/2024)!", msgs[0].Content)
}

func TestWaifu(t *testing.T) {
	h := newHarness(t)
	h.images.img = &domain.Image{URL: "https://cdn.waifu.im/1.jpg"}

	msgs := h.run(t, "!waifu", false)
	require.NotNil(t, msgs[0].Embed)
	assert.Equal(t, "https://cdn.waifu.im/1.jpg", msgs[0].Embed.ImageURL)
	assert.False(t, h.images.lastNSFW)

	h.run(t, "!waifu secret", false)
	assert.True(t, h.images.lastNSFW)

	h.run(t, "!waifu false", false)
	assert.False(t, h.images.lastNSFW)
}

func TestWaifu_InvalidFlag(t *testing.T) {
	h := newHarness(t)
	h.images.img = &domain.Image{URL: "x"}

	for _, arg := range []string{"true", "1", "yes"} {
		msgs := h.run(t, "!waifu "+arg, false)
		assert.Contains(t, msgs[0].Content, "Invalid NSFW parameter", arg)
	}
	assert.Equal(t, 0, h.images.calls)
}

func TestTopWaifus(t *testing.T) {
	h := newHarness(t)
	h.media.top = []domain.Character{
		{FullName: "Mikasa", Description: "A girl from Shiganshina.", OriginMediaTitle: "Attack on Titan"},
		{FullName: "Rem", Description: "A maid."},
		{FullName: "Emilia", Description: "A half elf."},
	}
	h.images.popular = []domain.Image{{URL: "https://cdn.waifu.im/a.jpg"}, {URL: "b"}}

	msgs := h.run(t, "!topwaifus 2", false)
	e := msgs[0].Embed
	require.NotNil(t, e)
	assert.Equal(t, "🏆 Top 2 Most Popular Waifus", e.Title)
	assert.Equal(t, format.ColorTopWaifus, e.Color)
	assert.Equal(t, "https://cdn.waifu.im/a.jpg", e.ThumbnailURL)
	assert.Equal(t, "Source: AniList & waifu.im", e.Footer)
	require.Len(t, e.Fields, 2)
	assert.Equal(t, "Anime: Attack on Titan", e.Fields[0].Value)
	assert.Equal(t, "Anime: Unknown", e.Fields[1].Value)
}

func TestTopWaifus_Limit(t *testing.T) {
	h := newHarness(t)
	msgs := h.run(t, "!topwaifus 21", false)
	assert.Equal(t, "At most 20 waifus!", msgs[0].Content)

	msgs = h.run(t, "!topwaifus many", false)
	assert.Contains(t, msgs[0].Content, "must be a number")
}

func TestAutoCommands_RequireAdmin(t *testing.T) {
	h := newHarness(t)
	for _, name := range []string{"autoanime", "autowaifu", "autoairing", "autowaifupic", "autoranking"} {
		msgs := h.run(t, "!"+name+" <#200>", false)
		assert.Equal(t, "You do not have permission to use this command!", msgs[0].Content, name)
	}
	for _, kind := range domain.NotificationKinds {
		assert.Empty(t, h.registry.Subscribers(kind))
	}
}

func TestAutoAnime_Toggle(t *testing.T) {
	h := newHarness(t)

	msgs := h.run(t, "!autoanime <#200>", true)
	assert.Equal(t, "✅ Enabled new anime notifications in <#200>", msgs[0].Content)
	assert.True(t, h.registry.IsSubscribed(domain.KindNewAnime, "200"))

	// the current channel is not subscribed
	msgs = h.run(t, "!autoanime", true)
	assert.Contains(t, msgs[0].Content, "Please specify a channel")

	msgs = h.run(t, "!autoairing <#100>", true)
	assert.Contains(t, msgs[0].Content, "airing today")
	msgs = h.run(t, "!autoairing", true)
	assert.Equal(t, "❌ Disabled airing today notifications", msgs[0].Content)
	assert.False(t, h.registry.IsSubscribed(domain.KindAiringToday, "100"))
}

func TestAutoCommand_BadChannel(t *testing.T) {
	h := newHarness(t)
	msgs := h.run(t, "!autowaifu general", true)
	assert.Equal(t, "Usage: `!autowaifu #channel`", msgs[0].Content)
}

func TestAutoRanking_Genre(t *testing.T) {
	h := newHarness(t)

	msgs := h.run(t, "!autoranking <#300> Action", true)
	assert.Equal(t, "✅ Enabled anime ranking notifications (action) in <#300>", msgs[0].Content)
	subs := h.registry.Subscribers(domain.KindRankingUpdate)
	require.Len(t, subs, 1)
	assert.Equal(t, "action", subs[0].Genre)

	msgs = h.run(t, "!autoranking <#300> cooking", true)
	assert.Contains(t, msgs[0].Content, "is not valid")
	assert.Equal(t, "action", h.registry.Subscribers(domain.KindRankingUpdate)[0].Genre)
}

func TestHelp(t *testing.T) {
	h := newHarness(t)
	msgs := h.run(t, "!help", false)
	e := msgs[0].Embed
	require.NotNil(t, e)
	assert.Len(t, e.Fields, len(h.handler.Names()))
	assert.Equal(t, "!anime <title>", e.Fields[0].Name)
}
