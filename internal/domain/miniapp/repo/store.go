package repo

import (
	"context"
	"time"

	"github.com/Acceptto/telegram-miniapp-scaffold/internal/domain/miniapp/model"
)

// Store is the persistence contract the application core requires.
// The storage engine behind it owns atomicity: SaveLogin must apply the user
// upsert and the session insert as one unit or not at all.
type Store interface {
	// UpsertUser inserts or refreshes a profile keyed by Telegram id. The
	// update is applied only when authTimestamp is strictly newer than the
	// stored one; absent optional fields keep their stored values.
	UpsertUser(ctx context.Context, u model.TelegramUser, authTimestamp int64) (model.User, error)

	CreateSession(ctx context.Context, userID int64, tokenHash string, ttl time.Duration) (model.Session, error)

	// SaveLogin runs UpsertUser and CreateSession atomically and returns the
	// resulting profile.
	SaveLogin(ctx context.Context, u model.TelegramUser, authTimestamp int64, tokenHash string, ttl time.Duration) (model.User, error)

	// UserBySessionHash resolves the owner of a live session. Expired sessions
	// are filtered at query time. Returns ErrNotFound when no live session
	// matches.
	UserBySessionHash(ctx context.Context, tokenHash string) (model.User, model.Session, error)

	UserByTelegramID(ctx context.Context, telegramID int64) (model.User, error)

	SaveCalendar(ctx context.Context, userID int64, ref, calendarJSON string) (model.Calendar, error)
	CalendarByRef(ctx context.Context, ref string) (model.Calendar, error)

	Setting(ctx context.Context, name string) (string, error)
	SetSetting(ctx context.Context, name, value string) error

	AddMessage(ctx context.Context, updateID int64, payload string) error
	LatestUpdateID(ctx context.Context) (int64, error)
}
