package telegram

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/SimplePineApple/BalanceTrackerBot/internal/tracker"
)

// echoBot replies with the text it got, after an optional delay.
type echoBot struct {
	delay time.Duration
}

func (b echoBot) Handle(_ context.Context, userID int64, text string) []tracker.Reply {
	time.Sleep(b.delay)
	if text == "plot" {
		return []tracker.Reply{{Image: []byte("png"), Filename: "water.png"}}
	}
	return []tracker.Reply{{Text: fmt.Sprintf("%d:%s", userID, text)}}
}

type sent struct {
	chatID   int64
	text     string
	filename string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sent
}

func (s *recordingSender) SendMessage(_ context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sent{chatID: chatID, text: text})
	return nil
}

func (s *recordingSender) SendPhoto(_ context.Context, chatID int64, filename string, _ []byte, caption string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sent{chatID: chatID, text: caption, filename: filename})
	return nil
}

func (s *recordingSender) snapshot() []sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sent(nil), s.sent...)
}

// waitFor polls until n messages were sent or the deadline passes.
func waitFor(t *testing.T, s *recordingSender, n int) []sent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := s.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d sent messages, got %d", n, len(s.snapshot()))
	return nil
}

func textUpdate(userID int64, text string) Update {
	return Update{Message: &Message{From: &User{ID: userID, UserName: "u"}, Chat: &Chat{ID: userID}, Text: text}}
}

func TestDispatcher_PerUserOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sender := &recordingSender{}
	d := NewDispatcher(ctx, echoBot{delay: time.Millisecond}, sender, 0, 0)

	for i := 0; i < 10; i++ {
		d.Dispatch(textUpdate(1, fmt.Sprint(i)))
		d.Dispatch(textUpdate(2, fmt.Sprint(i)))
	}
	got := waitFor(t, sender, 20)
	cancel()
	d.Wait()

	next := map[int64]int{}
	for _, s := range got {
		want := fmt.Sprintf("%d:%d", s.chatID, next[s.chatID])
		if s.text != want {
			t.Fatalf("user %d: expected %q, got %q", s.chatID, want, s.text)
		}
		next[s.chatID]++
	}
}

func TestDispatcher_IgnoresNonText(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sender := &recordingSender{}
	d := NewDispatcher(ctx, echoBot{}, sender, 0, 0)

	d.Dispatch(Update{})
	d.Dispatch(Update{Message: &Message{Chat: &Chat{ID: 1}, Text: "no sender"}})
	d.Dispatch(Update{Message: &Message{From: &User{ID: 1}, Chat: &Chat{ID: 1}}})
	d.Dispatch(Update{Message: &Message{From: &User{ID: 1}, Text: "no chat"}})
	d.Dispatch(textUpdate(3, "hi"))

	got := waitFor(t, sender, 1)
	time.Sleep(20 * time.Millisecond)
	if got = sender.snapshot(); len(got) != 1 || got[0].text != "3:hi" {
		t.Errorf("unexpected sends %+v", got)
	}
}

func TestDispatcher_SendsImagesAsPhotos(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sender := &recordingSender{}
	d := NewDispatcher(ctx, echoBot{}, sender, 0, 0)

	d.Dispatch(textUpdate(5, "plot"))
	got := waitFor(t, sender, 1)
	if got[0].filename != "water.png" {
		t.Errorf("expected photo water.png, got %+v", got[0])
	}
}

func TestDispatcher_RateLimited(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sender := &recordingSender{}
	// One token, refilled every 10 minutes: only the first message is handled.
	d := NewDispatcher(ctx, echoBot{}, sender, 1.0/600, 1)

	for i := 0; i < 5; i++ {
		d.Dispatch(textUpdate(9, fmt.Sprint(i)))
	}
	got := waitFor(t, sender, 2)
	time.Sleep(20 * time.Millisecond)
	got = sender.snapshot()

	if len(got) != 2 {
		t.Fatalf("expected reply plus one notice, got %+v", got)
	}
	if got[0].text != "9:0" || got[1].text != floodNotice {
		t.Errorf("unexpected sends %+v", got)
	}
}

func TestDispatcher_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sender := &recordingSender{}
	d := NewDispatcher(ctx, echoBot{}, sender, 0, 0)
	d.Dispatch(textUpdate(1, "x"))
	waitFor(t, sender, 1)

	cancel()
	done := make(chan struct{})
	go func() { d.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("workers did not exit")
	}

	d.Dispatch(textUpdate(1, "late"))
	time.Sleep(20 * time.Millisecond)
	if n := len(sender.snapshot()); n != 1 {
		t.Errorf("expected no sends after cancel, got %d", n)
	}
}
