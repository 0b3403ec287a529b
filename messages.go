package main

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SimplePineApple/BalanceTrackerBot/internal/telegram"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// telegramWebhook accepts one Update from Telegram and hands it to the
// dispatcher. Replies go out through the Bot API, not this response.
// POST /api/telegram/webhook (public, guarded by the webhook secret).
func (h *Handler) telegramWebhook(c *gin.Context) {
	if h.webhookSecret != "" &&
		subtle.ConstantTimeCompare([]byte(c.GetHeader(secretHeader)), []byte(h.webhookSecret)) != 1 {
		apiError(c, http.StatusUnauthorized, "invalid webhook secret")
		return
	}

	var u telegram.Update
	if err := c.ShouldBindJSON(&u); err != nil {
		apiError(c, http.StatusBadRequest, "invalid update")
		return
	}
	h.dispatch(u)
	c.Status(http.StatusOK)
}

// postMessage runs one message through the bot as the linked Telegram user
// and returns the replies. Images are base64 in the JSON.
// POST /api/messages {"text": "..."}
func (h *Handler) postMessage(c *gin.Context) {
	tgID, ok := telegramUserID(c)
	if !ok {
		return
	}

	var body messageRequest
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Text) == "" {
		apiError(c, http.StatusBadRequest, "text is required")
		return
	}

	log.Printf("[cmd] user_id=%d username=@%s text=%q request_id=%s",
		tgID, "dashboard", body.Text, c.GetString("request_id"))
	replies := h.bot.Handle(c.Request.Context(), tgID, body.Text)
	c.JSON(http.StatusOK, gin.H{"replies": replies})
}

// getProgress returns the live summary and tips for the linked user.
// GET /api/progress
func (h *Handler) getProgress(c *gin.Context) {
	tgID, ok := telegramUserID(c)
	if !ok {
		return
	}
	snap, ok := h.bot.Ledger(tgID)
	if !ok {
		apiError(c, http.StatusNotFound, "profile not set up")
		return
	}
	c.JSON(http.StatusOK, newProgressResponse(&snap))
}
