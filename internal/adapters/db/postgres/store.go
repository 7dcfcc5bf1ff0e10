package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	customErrors "github.com/Acceptto/telegram-miniapp-scaffold/internal/domain/miniapp/errors"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/domain/miniapp/model"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Profile upsert keyed by telegram_id. The WHERE guard keeps the row
// monotonic in last_auth_timestamp: a replayed or out-of-order launch never
// overwrites fresher state. Optional fields arrive as NULL and COALESCE back
// to the stored values.
const upsertUserSQL = `
INSERT INTO users (
	telegram_id, is_bot, first_name, last_name, username, language_code,
	is_premium, added_to_attachment_menu, allows_write_to_pm, photo_url,
	last_auth_timestamp, created_at, updated_at
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
ON CONFLICT (telegram_id) DO UPDATE SET
	updated_at = CURRENT_TIMESTAMP,
	last_auth_timestamp = COALESCE(excluded.last_auth_timestamp, users.last_auth_timestamp),
	is_bot = COALESCE(excluded.is_bot, users.is_bot),
	first_name = excluded.first_name,
	last_name = excluded.last_name,
	username = excluded.username,
	language_code = COALESCE(excluded.language_code, users.language_code),
	is_premium = COALESCE(excluded.is_premium, users.is_premium),
	added_to_attachment_menu = COALESCE(excluded.added_to_attachment_menu, users.added_to_attachment_menu),
	allows_write_to_pm = COALESCE(excluded.allows_write_to_pm, users.allows_write_to_pm),
	photo_url = COALESCE(excluded.photo_url, users.photo_url)
WHERE excluded.last_auth_timestamp > users.last_auth_timestamp`

func (s *Store) UpsertUser(ctx context.Context, u model.TelegramUser, authTimestamp int64) (model.User, error) {
	return s.upsertUser(ctx, s.db, u, authTimestamp)
}

func (s *Store) upsertUser(ctx context.Context, tx *gorm.DB, u model.TelegramUser, authTimestamp int64) (model.User, error) {
	res := tx.WithContext(ctx).Exec(upsertUserSQL,
		u.ID, u.IsBot, u.FirstName, u.LastName, u.Username, u.LanguageCode,
		u.IsPremium, u.AddedToAttachmentMenu, u.AllowsWriteToPM, u.PhotoURL,
		authTimestamp,
	)
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "UpsertUser")
	}

	var stored model.User
	res = tx.WithContext(ctx).Where("telegram_id = ?", u.ID).First(&stored)
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "UpsertUser fetch")
	}
	return stored, nil
}

func (s *Store) CreateSession(ctx context.Context, userID int64, tokenHash string, ttl time.Duration) (model.Session, error) {
	return s.createSession(ctx, s.db, userID, tokenHash, ttl)
}

func (s *Store) createSession(ctx context.Context, tx *gorm.DB, userID int64, tokenHash string, ttl time.Duration) (model.Session, error) {
	session := model.Session{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(ttl),
	}
	res := tx.WithContext(ctx).Create(&session)
	if err := res.Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.Session{}, customErrors.WrapInternal(err, "CreateSession hash collision")
		}
		return model.Session{}, customErrors.WrapInternal(err, "CreateSession")
	}
	return session, nil
}

// SaveLogin applies the profile upsert and the session insert as one
// transaction: a session never exists for a user row that failed to commit.
func (s *Store) SaveLogin(ctx context.Context, u model.TelegramUser, authTimestamp int64, tokenHash string, ttl time.Duration) (model.User, error) {
	var stored model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		stored, err = s.upsertUser(ctx, tx, u, authTimestamp)
		if err != nil {
			return err
		}
		_, err = s.createSession(ctx, tx, stored.ID, tokenHash, ttl)
		return err
	})
	if err != nil {
		return model.User{}, err
	}
	return stored, nil
}

func (s *Store) UserBySessionHash(ctx context.Context, tokenHash string) (model.User, model.Session, error) {
	var sess model.Session
	res := s.db.WithContext(ctx).
		Where("token_hash = ? AND expires_at > ?", tokenHash, time.Now()).
		First(&sess)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, model.Session{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, model.Session{}, customErrors.WrapInternal(err, "UserBySessionHash")
	}

	var u model.User
	res = s.db.WithContext(ctx).First(&u, sess.UserID)
	if err := res.Error; err != nil {
		return model.User{}, model.Session{}, customErrors.WrapInternal(err, "UserBySessionHash user")
	}
	return u, sess, nil
}

func (s *Store) UserByTelegramID(ctx context.Context, telegramID int64) (model.User, error) {
	var u model.User
	res := s.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "UserByTelegramID")
	}
	return u, nil
}

func (s *Store) SaveCalendar(ctx context.Context, userID int64, ref, calendarJSON string) (model.Calendar, error) {
	calendar := model.Calendar{
		UserID:       userID,
		CalendarRef:  ref,
		CalendarJSON: calendarJSON,
	}
	res := s.db.WithContext(ctx).Create(&calendar)
	if err := res.Error; err != nil {
		return model.Calendar{}, customErrors.WrapInternal(err, "SaveCalendar")
	}
	return calendar, nil
}

func (s *Store) CalendarByRef(ctx context.Context, ref string) (model.Calendar, error) {
	var c model.Calendar
	res := s.db.WithContext(ctx).Where("calendar_ref = ?", ref).First(&c)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Calendar{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Calendar{}, customErrors.WrapInternal(err, "CalendarByRef")
	}
	return c, nil
}

func (s *Store) Setting(ctx context.Context, name string) (string, error) {
	var setting model.Setting
	res := s.db.WithContext(ctx).Where("name = ?", name).First(&setting)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return "", customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return "", customErrors.WrapInternal(err, "Setting")
	}
	return setting.Value, nil
}

func (s *Store) SetSetting(ctx context.Context, name, value string) error {
	setting := model.Setting{Name: name, Value: value}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "SetSetting")
	}
	return nil
}

func (s *Store) AddMessage(ctx context.Context, updateID int64, payload string) error {
	msg := model.Message{UpdateID: updateID, Payload: payload}
	res := s.db.WithContext(ctx).Create(&msg)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "AddMessage")
	}
	return nil
}

func (s *Store) LatestUpdateID(ctx context.Context) (int64, error) {
	var msg model.Message
	res := s.db.WithContext(ctx).Order("update_id DESC").First(&msg)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err := res.Error; err != nil {
		return 0, customErrors.WrapInternal(err, "LatestUpdateID")
	}
	return msg.UpdateID, nil
}
