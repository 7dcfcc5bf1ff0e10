package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Acceptto/telegram-miniapp-scaffold/internal/adapters/telegram"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/app/miniapp/locale"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/auth/initdata"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/auth/token"
	customErrors "github.com/Acceptto/telegram-miniapp-scaffold/internal/domain/miniapp/errors"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/domain/miniapp/model"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/domain/miniapp/repo"
)

const (
	maxCalendarDates = 100
	calendarRefBytes = 8
	webhookCodeBytes = 16

	botNameSetting     = "bot_name"
	webhookCodeSetting = "telegram_security_code"
	webhookPath        = "/telegramMessage"
)

type miniAppService struct {
	store      repo.Store
	cache      SessionCache
	verifier   *initdata.Verifier
	bot        BotClient
	botName    string
	sessionTTL time.Duration
	v          *validator.Validate
	log        *zap.Logger
}

func New(
	store repo.Store,
	cache SessionCache,
	verifier *initdata.Verifier,
	bot BotClient,
	botName string,
	sessionTTL time.Duration,
	v *validator.Validate,
	log *zap.Logger,
) Service {
	return &miniAppService{
		store: store, cache: cache, verifier: verifier, bot: bot,
		botName: botName, sessionTTL: sessionTTL, v: v, log: log,
	}
}

// ResolveBotName returns the bot's display name, preferring the stored
// setting and falling back to a getMe call whose result is persisted.
// Called once at startup; the name is then passed around explicitly.
func ResolveBotName(ctx context.Context, store repo.Store, bot BotClient, log *zap.Logger) (string, error) {
	name, err := store.Setting(ctx, botNameSetting)
	if err == nil && name != "" {
		return name, nil
	}
	if err != nil && !customErrors.IsNotFound(err) {
		return "", err
	}

	me, err := bot.GetMe(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve bot name: %w", err)
	}
	if me.Username == "" {
		return "", fmt.Errorf("resolve bot name: getMe returned empty username")
	}
	if err := store.SetSetting(ctx, botNameSetting, me.Username); err != nil {
		// дубликат или гонка на старте безвредны
		log.Warn("failed to persist bot name", zap.Error(err))
	}
	return me.Username, nil
}

func (s *miniAppService) InitMiniApp(ctx context.Context, initDataRaw string) (InitResult, error) {
	fields, err := s.verifier.Verify(initDataRaw)
	if err != nil {
		return InitResult{}, err
	}

	data, err := initdata.Parse(fields, s.log)
	if err != nil {
		return InitResult{}, err
	}
	if err := data.Fresh(time.Now()); err != nil {
		return InitResult{}, err
	}
	if data.User == nil || data.User.ID == 0 {
		return InitResult{}, customErrors.NewMalformedPayload("missing user id")
	}

	rawToken, tokenHash, err := token.Issue()
	if err != nil {
		return InitResult{}, err
	}

	user, err := s.store.SaveLogin(ctx, *data.User, data.AuthDate, tokenHash, s.sessionTTL)
	if err != nil {
		return InitResult{}, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, tokenHash, user, s.sessionTTL); err != nil {
			s.log.Warn("session cache put failed", zap.Error(err))
		}
	}

	startPage := "home"
	if data.StartParam != "" {
		startPage = "calendar"
	}

	return InitResult{
		Token:      rawToken,
		StartParam: data.StartParam,
		StartPage:  startPage,
		User:       user,
	}, nil
}

func (s *miniAppService) Authenticate(ctx context.Context, bearerToken string) (model.User, error) {
	// Малформированный, неизвестный и просроченный токены проходят один и
	// тот же путь: hash → lookup → Unauthorized.
	tokenHash := token.Hash(bearerToken)

	if s.cache != nil {
		if user, err := s.cache.Get(ctx, tokenHash); err == nil {
			return user, nil
		} else if customErrors.IsInternal(err) {
			s.log.Warn("session cache get failed", zap.Error(err))
		}
	}

	user, sess, err := s.store.UserBySessionHash(ctx, tokenHash)
	if customErrors.IsNotFound(err) {
		return model.User{}, customErrors.ErrUnauthorized
	}
	if err != nil {
		return model.User{}, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, tokenHash, user, time.Until(sess.ExpiresAt)); err != nil {
			s.log.Warn("session cache put failed", zap.Error(err))
		}
	}
	return user, nil
}

func (s *miniAppService) CreateCalendar(ctx context.Context, user model.User, dates []string) (model.Calendar, error) {
	if len(dates) == 0 {
		return model.Calendar{}, customErrors.NewMalformedPayload("no dates")
	}
	if len(dates) > maxCalendarDates {
		return model.Calendar{}, customErrors.NewMalformedPayload("too many dates")
	}
	for _, d := range dates {
		if err := s.v.Var(d, "required,datetime=2006-01-02"); err != nil {
			return model.Calendar{}, customErrors.NewMalformedPayload("invalid date " + d)
		}
	}

	ref, err := token.NewRef(calendarRefBytes)
	if err != nil {
		return model.Calendar{}, err
	}

	payload, err := json.Marshal(map[string][]string{"dates": dates})
	if err != nil {
		return model.Calendar{}, customErrors.WrapInternal(err, "encode calendar")
	}

	calendar, err := s.store.SaveCalendar(ctx, user.ID, ref, string(payload))
	if err != nil {
		return model.Calendar{}, err
	}

	lang := locale.Normalize(user.LanguageCode)
	if err := s.bot.SendMessage(ctx, user.TelegramID, locale.CalendarLink(lang), 0); err != nil {
		return model.Calendar{}, customErrors.WrapInternal(err, "send calendar link")
	}
	share := locale.CalendarShare(lang, user.FirstName, s.botName, ref)
	if err := s.bot.SendMessage(ctx, user.TelegramID, share, 0); err != nil {
		return model.Calendar{}, customErrors.WrapInternal(err, "send calendar share")
	}

	return calendar, nil
}

func (s *miniAppService) CalendarByRef(ctx context.Context, ref string) (model.Calendar, error) {
	return s.store.CalendarByRef(ctx, ref)
}

func (s *miniAppService) ProcessUpdate(ctx context.Context, update telegram.Update) (string, error) {
	if update.Message == nil {
		return "skipped update", nil
	}

	payload, err := json.Marshal(update)
	if err != nil {
		return "", customErrors.WrapInternal(err, "encode update")
	}
	if err := s.store.AddMessage(ctx, update.UpdateID, string(payload)); err != nil {
		return "", err
	}

	if update.Message.Text != "/start" {
		return "skipped message", nil
	}

	lang := locale.English
	if update.Message.From != nil {
		lang = locale.Normalize(update.Message.From.LanguageCode)
	}
	greeting := locale.Greeting(lang, s.botName)
	if err := s.bot.SendMessage(ctx, update.Message.Chat.ID, greeting, update.Message.MessageID); err != nil {
		return "", customErrors.WrapInternal(err, "send greeting")
	}
	return "greeting sent", nil
}

func (s *miniAppService) VerifyWebhookSecret(ctx context.Context, provided string) error {
	stored, err := s.store.Setting(ctx, webhookCodeSetting)
	if customErrors.IsNotFound(err) {
		return customErrors.ErrUnauthorized
	}
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(stored)) != 1 {
		return customErrors.ErrUnauthorized
	}
	return nil
}

func (s *miniAppService) SetupWebhook(ctx context.Context, externalURL string) error {
	code, err := s.store.Setting(ctx, webhookCodeSetting)
	if customErrors.IsNotFound(err) {
		code, err = token.NewRef(webhookCodeBytes)
		if err != nil {
			return err
		}
		if err := s.store.SetSetting(ctx, webhookCodeSetting, code); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return s.bot.SetWebhook(ctx, externalURL+webhookPath, code)
}

func (s *miniAppService) PollUpdates(ctx context.Context) ([]string, error) {
	lastID, err := s.store.LatestUpdateID(ctx)
	if err != nil {
		return nil, err
	}
	updates, err := s.bot.GetUpdates(ctx, lastID)
	if err != nil {
		return nil, customErrors.WrapInternal(err, "getUpdates")
	}

	results := make([]string, 0, len(updates))
	for _, u := range updates {
		res, err := s.ProcessUpdate(ctx, u)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
