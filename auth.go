package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a pre-computed bcrypt hash used when a login username isn't found.
// Running bcrypt against it (instead of returning early) keeps response time
// constant, preventing timing-based username enumeration.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy"), bcrypt.DefaultCost)

// login verifies username/password and returns the user's auth token.
// POST /api/login (public).
func (h *Handler) login(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	u, lookupErr := queryOne[user](c, h.db,
		"SELECT * FROM users WHERE username = @username",
		pgx.NamedArgs{"username": body.Username})

	hashToCheck := string(dummyHash)
	if lookupErr == nil {
		hashToCheck = u.Password
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(hashToCheck), []byte(body.Password))

	if lookupErr != nil || compareErr != nil {
		apiError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":            u.AuthToken,
		"user_id":          u.ID,
		"telegram_user_id": u.TelegramUserID,
	})
}

// authMiddleware validates the Bearer token and sets user_id on the context,
// plus telegram_user_id when the dashboard user is linked to a bot user.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		var userID int
		var telegramUserID *int64
		err := h.db.QueryRow(c, "SELECT id, telegram_user_id FROM users WHERE auth_token = $1", token).
			Scan(&userID, &telegramUserID)
		if err != nil {
			apiError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		if telegramUserID != nil {
			c.Set("telegram_user_id", *telegramUserID)
		}
		c.Next()
	}
}

// telegramUserID returns the bot user the dashboard user acts as, answering
// 403 when the account is not linked.
func telegramUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get("telegram_user_id")
	id, isInt := v.(int64)
	if !ok || !isInt {
		apiError(c, http.StatusForbidden, "account is not linked to a Telegram user")
		return 0, false
	}
	return id, true
}
