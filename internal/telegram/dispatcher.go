package telegram

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/SimplePineApple/BalanceTrackerBot/internal/tracker"
)

const (
	queueSize   = 32
	idleTimeout = time.Minute
	sendTimeout = 30 * time.Second

	floodNotice = "⏳ Слишком много сообщений подряд. Подожди пару секунд."
)

// Handler turns one inbound message into replies. *tracker.Bot satisfies it.
type Handler interface {
	Handle(ctx context.Context, userID int64, text string) []tracker.Reply
}

// Sender delivers replies. *Client satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, filename string, img []byte, caption string) error
}

type job struct {
	chatID int64
	text   string
	notice string // set for flood notices; text is then ignored
}

// worker owns one user's queue and rate limiter.
type worker struct {
	queue   chan job
	limiter *rate.Limiter
	warned  bool
}

// Dispatcher runs one goroutine per active user. A user's messages are
// handled strictly in arrival order; different users run in parallel. Idle
// workers exit after idleTimeout.
type Dispatcher struct {
	ctx     context.Context
	bot     Handler
	sender  Sender
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	workers map[int64]*worker
	wg      sync.WaitGroup
}

// NewDispatcher builds a dispatcher whose workers stop when ctx is cancelled.
// perSec <= 0 disables rate limiting.
func NewDispatcher(ctx context.Context, bot Handler, sender Sender, perSec float64, burst int) *Dispatcher {
	limit := rate.Limit(perSec)
	if perSec <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Dispatcher{
		ctx:     ctx,
		bot:     bot,
		sender:  sender,
		limit:   limit,
		burst:   burst,
		workers: make(map[int64]*worker),
	}
}

// Dispatch queues a text message update. Anything else is ignored.
func (d *Dispatcher) Dispatch(u Update) {
	m := u.Message
	if m == nil || m.From == nil || m.Chat == nil || m.Text == "" {
		return
	}
	log.Printf("[cmd] user_id=%d username=@%s text=%q", m.From.ID, m.From.UserName, m.Text)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx.Err() != nil {
		return
	}

	w, ok := d.workers[m.From.ID]
	if !ok {
		w = &worker{queue: make(chan job, queueSize), limiter: rate.NewLimiter(d.limit, d.burst)}
		d.workers[m.From.ID] = w
		d.wg.Add(1)
		go d.run(m.From.ID, w)
	}

	j := job{chatID: m.Chat.ID, text: m.Text}
	if !w.limiter.Allow() {
		if w.warned {
			log.Printf("[dispatcher] user_id=%d rate limited, dropped", m.From.ID)
			return
		}
		w.warned = true
		j.notice = floodNotice
	} else {
		w.warned = false
	}

	select {
	case w.queue <- j:
	default:
		log.Printf("[dispatcher] user_id=%d queue full, dropped", m.From.ID)
	}
}

func (d *Dispatcher) run(userID int64, w *worker) {
	defer d.wg.Done()
	idle := time.NewTimer(idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case j := <-w.queue:
			d.process(userID, j)
			idle.Reset(idleTimeout)
		case <-idle.C:
			// Dispatch only enqueues under d.mu, so an empty queue here stays empty.
			d.mu.Lock()
			if len(w.queue) == 0 {
				delete(d.workers, userID)
				d.mu.Unlock()
				return
			}
			d.mu.Unlock()
			idle.Reset(idleTimeout)
		}
	}
}

func (d *Dispatcher) process(userID int64, j job) {
	if j.notice != "" {
		d.send(j.chatID, tracker.Reply{Text: j.notice})
		return
	}
	for _, r := range d.bot.Handle(d.ctx, userID, j.text) {
		d.send(j.chatID, r)
	}
}

func (d *Dispatcher) send(chatID int64, r tracker.Reply) {
	ctx, cancel := context.WithTimeout(d.ctx, sendTimeout)
	defer cancel()

	var err error
	if r.Image != nil {
		err = d.sender.SendPhoto(ctx, chatID, r.Filename, r.Image, r.Text)
	} else {
		err = d.sender.SendMessage(ctx, chatID, r.Text)
	}
	if err != nil {
		log.Printf("[dispatcher] send to chat %d: %v", chatID, err)
	}
}

// Wait blocks until every worker has exited. Call after cancelling ctx.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
