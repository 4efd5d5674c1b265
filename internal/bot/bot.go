package bot

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Domenick1991/railwatch/internal/service/query"
	"github.com/Domenick1991/railwatch/internal/rzd"
	"github.com/Domenick1991/railwatch/internal/service/watch"
)

// CityCache caches upstream autocomplete display names.
type CityCache interface {
	GetCity(ctx context.Context, name string) (string, error)
	SetCity(ctx context.Context, name, display string) error
}

// Deps wires the bot to the core services. Cities and Producer are optional.
type Deps struct {
	Registry  *watch.Registry
	Scheduler *watch.Scheduler
	Search    watch.Executor
	Upstream  rzd.Client
	Cities    CityCache

	Producer    watch.Producer
	EventsTopic string

	WatchTTL      time.Duration
	SearchTimeout time.Duration
	MaxResults    int
}

// Bot is the Telegram front: it turns incoming messages into searches and
// watches, and implements the scheduler's Notifier for outbound delivery.
type Bot struct {
	api *tgbot.Bot
	Deps
}

func New(token string, deps Deps) (*Bot, error) {
	b := &Bot{Deps: deps}
	api, err := tgbot.New(token, tgbot.WithDefaultHandler(b.handleUpdate))
	if err != nil {
		return nil, err
	}
	b.api = api
	return b, nil
}

// Start runs long polling until ctx is canceled.
func (b *Bot) Start(ctx context.Context) {
	b.api.Start(ctx)
}

// The two accepted command shapes: "москва, спб, 4.05 20:00 - 5.05 03:00"
// or "мск спб 5" (single-word city tokens in the whitespace form).
var queryShapes = []*regexp.Regexp{
	regexp.MustCompile(`^(?P<from>[^,]+)\s*,\s*(?P<to>[^,]+)\s*,\s*(?P<when>.*)$`),
	regexp.MustCompile(`^(?P<from>\S+)\s+(?P<to>\S+)(?P<when>.*)$`),
}

func matchQuery(text string) (query.Input, bool) {
	for _, re := range queryShapes {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		var in query.Input
		for i, name := range re.SubexpNames() {
			switch name {
			case "from":
				in.From = m[i]
			case "to":
				in.To = m[i]
			case "when":
				in.When = m[i]
			}
		}
		return in, true
	}
	return query.Input{}, false
}

func (b *Bot) handleUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	chatID := update.Message.Chat.ID
	cmd, rest := splitCommand(strings.TrimSpace(update.Message.Text))

	switch cmd {
	case "/start", "/help":
		b.send(ctx, chatID, usageText(time.Now()))
	case "/list":
		b.handleList(ctx, chatID)
	case "/cancel":
		b.handleCancel(ctx, chatID, rest)
	case "/notify":
		b.handleNotify(ctx, chatID, rest)
	case "/search":
		b.handleSearch(ctx, chatID, rest)
	default:
		// A bare message that looks like a query acts as /search.
		if in, ok := matchQuery(rest); ok && cmd == "" {
			b.runSearch(ctx, chatID, in)
			return
		}
		log.Printf("chat %d: not matched: %q", chatID, update.Message.Text)
		b.send(ctx, chatID, msgUnknown)
	}
}

// splitCommand separates a leading /command (with optional @botname suffix)
// from its argument text.
func splitCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	cmd, rest := text, ""
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		cmd, rest = text[:i], strings.TrimSpace(text[i+1:])
	}
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	return cmd, rest
}
