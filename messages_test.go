package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/SimplePineApple/BalanceTrackerBot/internal/telegram"
	"github.com/SimplePineApple/BalanceTrackerBot/internal/tracker"
)

type stubWeather struct{}

func (stubWeather) Temperature(context.Context, string) *float64 {
	t := 30.0
	return &t
}

type stubFood struct{}

func (stubFood) Lookup(_ context.Context, q string) (tracker.FoodItem, bool) {
	return tracker.FoodItem{Name: q, KcalPer100G: 100}, q == "banana"
}

type stubCharts struct{}

func (stubCharts) Render([]tracker.Sample, string, string, *int) ([]byte, error) {
	return []byte("\x89PNG"), nil
}

// setupMessagesTest builds a router without a DB. Auth is replaced by a
// middleware that links the caller to telegram user 42.
func setupMessagesTest(secret string) (*gin.Engine, *[]telegram.Update) {
	var mu sync.Mutex
	var dispatched []telegram.Update

	gin.SetMode(gin.TestMode)
	h := &Handler{
		bot:           tracker.New(tracker.Config{Weather: stubWeather{}, Food: stubFood{}, Charts: stubCharts{}}),
		webhookSecret: secret,
		dispatch: func(u telegram.Update) {
			mu.Lock()
			dispatched = append(dispatched, u)
			mu.Unlock()
		},
	}
	router := gin.New()
	h.registerRoutes(router)

	linked := func(c *gin.Context) {
		c.Set("user_id", 1)
		c.Set("telegram_user_id", int64(42))
		c.Next()
	}
	router.POST("/test/messages", linked, h.postMessage)
	router.GET("/test/progress", linked, h.getProgress)
	router.POST("/test/unlinked", func(c *gin.Context) { c.Set("user_id", 2) }, h.postMessage)
	return router, &dispatched
}

func doRequest(router *gin.Engine, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sendText(t *testing.T, router *gin.Engine, text string) []tracker.Reply {
	t.Helper()
	body, _ := json.Marshal(messageRequest{Text: text})
	w := doRequest(router, "POST", "/test/messages", string(body), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("%q: expected 200, got %d: %s", text, w.Code, w.Body.String())
	}
	var resp struct {
		Replies []tracker.Reply `json:"replies"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return resp.Replies
}

/* ─── Health & request id ────────────────────────────────────────────── */

func TestHealth_SetsRequestID(t *testing.T) {
	router, _ := setupMessagesTest("")
	w := doRequest(router, "GET", "/api/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	w = doRequest(router, "GET", "/api/health", "", map[string]string{"X-Request-ID": "abc"})
	if got := w.Header().Get("X-Request-ID"); got != "abc" {
		t.Errorf("expected caller's request id, got %q", got)
	}
}

func TestDashboardRoutes_RequireDB(t *testing.T) {
	router, _ := setupMessagesTest("")
	if w := doRequest(router, "POST", "/api/login", `{}`, nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a DB, got %d", w.Code)
	}
}

/* ─── Webhook ────────────────────────────────────────────────────────── */

func TestWebhook_Dispatches(t *testing.T) {
	router, dispatched := setupMessagesTest("s3cret")
	update := `{"update_id":1,"message":{"message_id":1,"from":{"id":42,"username":"alice"},"chat":{"id":42},"text":"/start"}}`

	w := doRequest(router, "POST", "/api/telegram/webhook", update, map[string]string{secretHeader: "s3cret"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(*dispatched) != 1 || (*dispatched)[0].Message.Text != "/start" {
		t.Errorf("unexpected dispatched updates %+v", *dispatched)
	}
}

func TestWebhook_RejectsBadSecret(t *testing.T) {
	router, dispatched := setupMessagesTest("s3cret")
	for _, header := range []map[string]string{nil, {secretHeader: "wrong"}} {
		w := doRequest(router, "POST", "/api/telegram/webhook", `{"update_id":1}`, header)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	}
	if len(*dispatched) != 0 {
		t.Error("rejected update was dispatched")
	}
}

func TestWebhook_MalformedBody(t *testing.T) {
	router, _ := setupMessagesTest("")
	if w := doRequest(router, "POST", "/api/telegram/webhook", `{not json`, nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

/* ─── Messages & progress ────────────────────────────────────────────── */

// TestMessages_ReferenceDay drives the profile dialog and a day of logging
// through the HTTP surface.
func TestMessages_ReferenceDay(t *testing.T) {
	router, _ := setupMessagesTest("")

	for _, msg := range []string{"/set_profile", "70", "175", "22", "40", "Tel Aviv"} {
		sendText(t, router, msg)
	}
	replies := sendText(t, router, "нет")
	last := replies[len(replies)-1].Text
	if !strings.Contains(last, "3100") || !strings.Contains(last, "1883") {
		t.Fatalf("expected goals 3100/1883, got %q", last)
	}

	replies = sendText(t, router, "/log_water 250")
	if !strings.Contains(replies[0].Text, "Осталось: 2850 мл") {
		t.Errorf("unexpected water reply %q", replies[0].Text)
	}

	w := doRequest(router, "GET", "/test/progress", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var p progressResponse
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.WaterML != 250 || p.WaterRemainingML != 2850 || p.CalorieGoalKcal != 1883 || len(p.Tips) != 4 {
		t.Errorf("unexpected progress %+v", p)
	}
}

func TestMessages_PlotReturnsBase64Images(t *testing.T) {
	router, _ := setupMessagesTest("")
	for _, msg := range []string{"/set_profile", "70", "175", "22", "40", "Tel Aviv", "нет", "/log_water 250"} {
		sendText(t, router, msg)
	}

	body, _ := json.Marshal(messageRequest{Text: "/plot"})
	w := doRequest(router, "POST", "/test/messages", string(body), nil)
	if !strings.Contains(w.Body.String(), `"image":"iVBORw=="`) || !strings.Contains(w.Body.String(), `"filename":"water.png"`) {
		t.Errorf("expected a base64 water chart, got %s", w.Body.String())
	}
}

func TestMessages_Validation(t *testing.T) {
	router, _ := setupMessagesTest("")
	if w := doRequest(router, "POST", "/test/messages", `{"text":"   "}`, nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank text, got %d", w.Code)
	}
	if w := doRequest(router, "POST", "/test/unlinked", `{"text":"/start"}`, nil); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for unlinked account, got %d", w.Code)
	}
}

func TestProgress_NoProfile(t *testing.T) {
	router, _ := setupMessagesTest("")
	if w := doRequest(router, "GET", "/test/progress", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
