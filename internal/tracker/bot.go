package tracker

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode"
)

/* ─── Collaborators ──────────────────────────────────────────────────── */

// WeatherLookup resolves a city's current temperature. Any failure is
// reported as nil ("unknown"), never as an error.
type WeatherLookup interface {
	Temperature(ctx context.Context, city string) *float64
}

// FoodLookup resolves a product name to its energy density. ok=false means
// not found, including on network failure.
type FoodLookup interface {
	Lookup(ctx context.Context, query string) (item FoodItem, ok bool)
}

// Sample is one labelled point handed to a ChartRenderer.
type Sample struct {
	Label string
	Value int
}

// ChartRenderer draws a line chart of samples as a PNG. goal, when non-nil,
// is drawn as a horizontal line.
type ChartRenderer interface {
	Render(samples []Sample, title, yLabel string, goal *int) ([]byte, error)
}

// Journal receives every committed ledger mutation. It is an audit trail:
// nothing is ever read back into a ledger.
type Journal interface {
	Record(ctx context.Context, e Entry) error
}

// Entry kinds written to the Journal.
const (
	EntryProfile = "profile"
	EntryWater   = "water"
	EntryFood    = "food"
	EntryWorkout = "workout"
	EntryReset   = "reset"
)

// Entry is one journal record. Amount is the delta of the mutation and
// ValueAfter the cumulative counter after it (goal values for profile entries).
type Entry struct {
	UserID     int64
	Kind       string
	Label      string
	Amount     int
	ValueAfter int
	At         time.Time
}

// Reply is one outbound message: either text or a PNG image.
type Reply struct {
	Text     string `json:"text,omitempty"`
	Image    []byte `json:"image,omitempty"`
	Filename string `json:"filename,omitempty"`
}

func text(s string) Reply { return Reply{Text: s} }

/* ─── Bot ────────────────────────────────────────────────────────────── */

// Config wires a Bot. Weather and Food are required; a nil Charts disables
// /plot, a nil Journal discards entries, a nil Store means in-memory.
type Config struct {
	Store   Store
	Weather WeatherLookup
	Food    FoodLookup
	Charts  ChartRenderer
	Journal Journal
	Now     func() time.Time
}

// Bot is the conversational core. Handle is safe for concurrent use.
type Bot struct {
	reg     *Registry
	weather WeatherLookup
	food    FoodLookup
	charts  ChartRenderer
	journal Journal
	now     func() time.Time
}

func New(cfg Config) *Bot {
	b := &Bot{
		reg:     NewRegistry(cfg.Store),
		weather: cfg.Weather,
		food:    cfg.Food,
		charts:  cfg.Charts,
		journal: cfg.Journal,
		now:     cfg.Now,
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// outcome is what one locked step produces. after, when set, runs with the
// user's lock released (external I/O) and yields the next outcome.
type outcome struct {
	replies []Reply
	entries []Entry
	after   func(ctx context.Context) outcome
}

func reply(msgs ...string) outcome {
	out := outcome{}
	for _, m := range msgs {
		out.replies = append(out.replies, text(m))
	}
	return out
}

// Handle processes one inbound message from userID and returns the replies
// to send back, in order.
func (b *Bot) Handle(ctx context.Context, userID int64, msg string) []Reply {
	cmd, arg := parseCommand(msg)

	out := b.locked(userID, func(st *UserState) outcome {
		if cmd == "" {
			return b.continueConversation(st, userID, msg)
		}
		return b.command(st, userID, cmd, arg)
	})

	var replies []Reply
	for {
		replies = append(replies, out.replies...)
		b.record(ctx, out.entries)
		if out.after == nil {
			return replies
		}
		out = out.after(ctx)
	}
}

// Ledger returns a copy of the user's ledger, if a profile exists.
func (b *Bot) Ledger(userID int64) (DailyLedger, bool) {
	var snap DailyLedger
	var ok bool
	b.locked(userID, func(st *UserState) outcome {
		if st.Ledger != nil {
			snap, ok = st.Ledger.Snapshot(), true
		}
		return outcome{}
	})
	return snap, ok
}

func (b *Bot) locked(userID int64, fn func(st *UserState) outcome) outcome {
	unlock := b.reg.Lock(userID)
	defer unlock()
	st := b.reg.State(userID)
	out := fn(st)
	b.reg.Save(userID, st)
	return out
}

func (b *Bot) record(ctx context.Context, entries []Entry) {
	if b.journal == nil {
		return
	}
	for _, e := range entries {
		if err := b.journal.Record(ctx, e); err != nil {
			log.Printf("[journal] record %s for user %d failed: %v", e.Kind, e.UserID, err)
		}
	}
}

// parseCommand splits "/cmd@bot args" into ("cmd", "args") at the first
// whitespace of any kind. Plain text gives an empty command.
func parseCommand(msg string) (cmd, arg string) {
	msg = strings.TrimSpace(msg)
	if !strings.HasPrefix(msg, "/") {
		return "", msg
	}
	head, rest := msg, ""
	if i := strings.IndexFunc(msg, unicode.IsSpace); i >= 0 {
		head, rest = msg[:i], msg[i:]
	}
	head = strings.TrimPrefix(head, "/")
	if at := strings.IndexByte(head, '@'); at >= 0 {
		head = head[:at]
	}
	return strings.ToLower(head), strings.TrimSpace(rest)
}

// errorReply maps the error taxonomy onto user-facing text.
func errorReply(err error) outcome {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return reply(verr.Prompt)
	case errors.Is(err, ErrMissingProfile):
		return reply("Сначала настрой профиль: /set_profile")
	case errors.Is(err, ErrNotFound):
		return reply("Не удалось найти продукт. Попробуй другое название (например на английском).")
	case errors.Is(err, ErrUnknownState):
		return reply("Не понимаю 🙂 Список команд: /help")
	}
	log.Printf("[bot] unexpected error: %v", err)
	return reply("Что-то пошло не так, попробуй ещё раз.")
}
