package service

import (
	"context"
	"time"

	"github.com/Acceptto/telegram-miniapp-scaffold/internal/adapters/telegram"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/domain/miniapp/model"
)

// InitResult is what a successful launch returns to the client. Token is the
// raw bearer credential; it exists only here and in the response body.
type InitResult struct {
	Token      string
	StartParam string
	StartPage  string
	User       model.User
}

// BotClient is the slice of the Telegram Bot API the service calls out to.
type BotClient interface {
	SendMessage(ctx context.Context, chatID int64, text string, replyToMessageID int64) error
	SetWebhook(ctx context.Context, externalURL, secretToken string) error
	GetMe(ctx context.Context) (telegram.User, error)
	GetUpdates(ctx context.Context, lastUpdateID int64) ([]telegram.Update, error)
}

// SessionCache mirrors live sessions for the hot authenticate path. A nil
// cache is valid; lookups then always hit the store.
type SessionCache interface {
	Get(ctx context.Context, tokenHash string) (model.User, error)
	Put(ctx context.Context, tokenHash string, u model.User, ttl time.Duration) error
}

type Service interface {
	// InitMiniApp verifies a raw launch payload and, when genuine and fresh,
	// persists the profile and mints a session token.
	InitMiniApp(ctx context.Context, initDataRaw string) (InitResult, error)

	// Authenticate resolves a bearer token to its owner. Malformed, unknown
	// and expired tokens are indistinguishable to the caller.
	Authenticate(ctx context.Context, bearerToken string) (model.User, error)

	CreateCalendar(ctx context.Context, user model.User, dates []string) (model.Calendar, error)
	CalendarByRef(ctx context.Context, ref string) (model.Calendar, error)

	// ProcessUpdate handles one bot webhook update.
	ProcessUpdate(ctx context.Context, update telegram.Update) (string, error)

	// VerifyWebhookSecret checks the secret token Telegram echoes on webhook
	// deliveries.
	VerifyWebhookSecret(ctx context.Context, provided string) error

	// SetupWebhook registers the webhook endpoint with Telegram, generating
	// and storing the security code on first use.
	SetupWebhook(ctx context.Context, externalURL string) error

	// PollUpdates fetches and processes pending updates. Local development
	// substitute for the webhook.
	PollUpdates(ctx context.Context) ([]string, error)
}
