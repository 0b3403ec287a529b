// Package telegram wraps the Bot API client and adds the long poller and
// per-user dispatcher that feed updates into the bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const DefaultAPIURL = "https://api.telegram.org"

// Wire types come straight from the Bot API library.
type (
	Update  = tgbotapi.Update
	Message = tgbotapi.Message
	User    = tgbotapi.User
	Chat    = tgbotapi.Chat
)

// Client talks to one bot's Bot API endpoint.
//
// tgbotapi has no context support, so ctx only gates whether a call starts.
// The HTTP timeout bounds each request.
type Client struct {
	api   *tgbotapi.BotAPI
	token string
}

// NewClient builds a client and checks the token with getMe. The HTTP
// timeout must outlast the long-poll timeout used by Poll.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	endpoint := strings.TrimRight(baseURL, "/") + "/bot%s/%s"
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram getMe: %w", redact(err, token))
	}
	return &Client{api: api, token: token}, nil
}

// Username is the bot's own @name as reported by getMe.
func (c *Client) Username() string {
	return c.api.Self.UserName
}

func (c *Client) request(ctx context.Context, method string, cfg tgbotapi.Chattable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(cfg); err != nil {
		return fmt.Errorf("telegram %s: %w", method, redact(err, c.token))
	}
	return nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.request(ctx, "sendMessage", tgbotapi.NewMessage(chatID, text))
}

// SendPhoto uploads img as a multipart file.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, filename string, img []byte, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: filename, Bytes: img})
	photo.Caption = caption
	return c.request(ctx, "sendPhoto", photo)
}

// SetWebhook registers link with Telegram, or removes the webhook when link
// is empty (required before getUpdates works).
func (c *Client) SetWebhook(ctx context.Context, link, secret string) error {
	if link == "" {
		return c.request(ctx, "deleteWebhook", tgbotapi.DeleteWebhookConfig{})
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	// WebhookConfig predates secret_token, so the params are built by hand.
	params := tgbotapi.Params{"url": link}
	if err := params.AddInterface("allowed_updates", []string{"message"}); err != nil {
		return fmt.Errorf("telegram setWebhook: %w", err)
	}
	params.AddNonEmpty("secret_token", secret)
	if _, err := c.api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("telegram setWebhook: %w", redact(err, c.token))
	}
	return nil
}

const pollTimeoutSec = 30

// Poll long-polls getUpdates until ctx is cancelled, handing each message
// update to handle in order. Transport errors are retried by the library.
// Poll must be called at most once per Client.
func Poll(ctx context.Context, c *Client, handle func(Update)) {
	if err := c.SetWebhook(ctx, "", ""); err != nil {
		log.Printf("[poller] deleteWebhook: %v", err)
	}

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeoutSec
	cfg.AllowedUpdates = []string{"message"}
	updates := c.api.GetUpdatesChan(cfg)

	stopped := make(chan struct{})
	go func() {
		<-ctx.Done()
		c.api.StopReceivingUpdates()
		close(stopped)
	}()

	for {
		select {
		case <-stopped:
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			handle(u)
		}
	}
}

// redact strips the token from transport errors, whose URL carries it.
func redact(err error, token string) error {
	var uerr *url.Error
	if token == "" || !errors.As(err, &uerr) {
		return err
	}
	return fmt.Errorf("%s %q: %w", uerr.Op, strings.ReplaceAll(uerr.URL, token, "<token>"), uerr.Err)
}
