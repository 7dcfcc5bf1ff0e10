package initdata

import (
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	customErrors "github.com/Acceptto/telegram-miniapp-scaffold/internal/domain/miniapp/errors"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/domain/miniapp/model"
)

// MaxAge is the freshness window: a signed payload older than this is
// rejected to bound the replay window of an intercepted launch.
const MaxAge = 600 * time.Second

// Data is the structured result of a verified launch payload. It exists only
// after the signature has been accepted and is never persisted as-is.
type Data struct {
	AuthDate   int64
	User       *model.TelegramUser
	Receiver   *model.TelegramUser
	Chat       *model.TelegramChat
	StartParam string
	QueryID    string
}

// Parse decodes verified fields into Data. JSON sub-records that fail to
// decode are logged and treated as absent; the payload itself stays valid
// because its signature already covered the raw strings.
func Parse(fields Fields, log *zap.Logger) (Data, error) {
	authDateRaw, ok := fields["auth_date"]
	if !ok {
		return Data{}, customErrors.NewMalformedPayload("missing auth_date")
	}
	authDate, err := strconv.ParseInt(authDateRaw, 10, 64)
	if err != nil {
		return Data{}, customErrors.NewMalformedPayload("auth_date is not an integer")
	}

	d := Data{
		AuthDate:   authDate,
		StartParam: fields["start_param"],
		QueryID:    fields["query_id"],
	}

	if raw, ok := fields["user"]; ok {
		var u model.TelegramUser
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			log.Warn("failed to decode user field", zap.Error(err))
		} else {
			d.User = &u
		}
	}
	if raw, ok := fields["receiver"]; ok {
		var u model.TelegramUser
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			log.Warn("failed to decode receiver field", zap.Error(err))
		} else {
			d.Receiver = &u
		}
	}
	if raw, ok := fields["chat"]; ok {
		var c model.TelegramChat
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			log.Warn("failed to decode chat field", zap.Error(err))
		} else {
			d.Chat = &c
		}
	}

	return d, nil
}

// Fresh rejects payloads whose auth_date is older than MaxAge at the given
// instant. Future-dated timestamps are accepted: there is deliberately no
// lower bound, matching the platform-observed behavior.
func (d Data) Fresh(now time.Time) error {
	if now.Unix()-d.AuthDate > int64(MaxAge/time.Second) {
		return customErrors.ErrStaleData
	}
	return nil
}
