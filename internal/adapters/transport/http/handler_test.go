package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Acceptto/telegram-miniapp-scaffold/internal/adapters/db/postgres"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/adapters/telegram"
	transport "github.com/Acceptto/telegram-miniapp-scaffold/internal/adapters/transport/http"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/app/miniapp/service"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/auth/initdata"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/domain/miniapp/model"
)

const (
	testBotToken   = "7000000000:AAFakeTokenForUnitTests_0123456789a"
	testInitSecret = "init-secret"
)

type botStub struct {
	sent []string
}

func (b *botStub) SendMessage(_ context.Context, _ int64, text string, _ int64) error {
	b.sent = append(b.sent, text)
	return nil
}
func (b *botStub) SetWebhook(_ context.Context, _, _ string) error { return nil }
func (b *botStub) GetMe(_ context.Context) (telegram.User, error) {
	return telegram.User{ID: 7, IsBot: true, Username: "scaffold_bot"}, nil
}
func (b *botStub) GetUpdates(_ context.Context, _ int64) ([]telegram.Update, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *botStub, *postgres.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Session{}, &model.Calendar{}, &model.Setting{}, &model.Message{}))

	store := postgres.NewStore(db)
	verifier, err := initdata.NewVerifier(testBotToken)
	require.NoError(t, err)

	bot := &botStub{}
	svc := service.New(store, nil, verifier, bot, "scaffold_bot", 24*time.Hour, validator.New(), zap.NewNop())

	router := gin.New()
	transport.NewHandler(svc, testInitSecret, zap.NewNop()).Register(router)
	return router, bot, store
}

func signedInitData(authDate int64, userJSON string) string {
	values := url.Values{}
	values.Set("auth_date", strconv.FormatInt(authDate, 10))
	if userJSON != "" {
		values.Set("user", userJSON)
	}
	values.Set("hash", initdata.Sign(values, testBotToken))
	return values.Encode()
}

func doJSON(router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestInitThenMe_EndToEnd(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/miniApp/init", map[string]string{
		"init_data_raw": signedInitData(time.Now().Unix(), `{"id":42,"first_name":"Ann"}`),
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var initResp struct {
		Token      string     `json:"token"`
		StartParam *string    `json:"start_param"`
		StartPage  string     `json:"start_page"`
		User       model.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &initResp))
	require.NotEmpty(t, initResp.Token)
	require.Nil(t, initResp.StartParam)
	require.Equal(t, "home", initResp.StartPage)
	require.EqualValues(t, 42, initResp.User.TelegramID)

	w = doJSON(router, http.MethodGet, "/miniApp/me", nil, map[string]string{
		"Authorization": "Bearer " + initResp.Token,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var meResp struct {
		User model.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meResp))
	require.EqualValues(t, 42, meResp.User.TelegramID)
}

func TestInit_InvalidSignature(t *testing.T) {
	router, _, _ := newTestRouter(t)

	raw := signedInitData(time.Now().Unix(), `{"id":42,"first_name":"Ann"}`)
	w := doJSON(router, http.MethodPost, "/miniApp/init", map[string]string{
		"init_data_raw": raw + "tampered",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
}

func TestInit_Stale(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/miniApp/init", map[string]string{
		"init_data_raw": signedInitData(time.Now().Unix()-700, `{"id":42,"first_name":"Ann"}`),
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"Stale data, please restart the app"}`, w.Body.String())
}

func TestInit_MissingBody(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/miniApp/init", map[string]string{}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMe_UniformUnauthorized(t *testing.T) {
	router, _, _ := newTestRouter(t)

	// No header, garbage token, well-formed but unknown token: same response.
	for _, headers := range []map[string]string{
		nil,
		{"Authorization": "Bearer %%%not-a-token"},
		{"Authorization": "Bearer " + "a1b2c3d4e5f60718293a4b5c6d7e8f90"},
	} {
		w := doJSON(router, http.MethodGet, "/miniApp/me", nil, headers)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
	}
}

func TestDatesAndCalendar(t *testing.T) {
	router, bot, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/miniApp/init", map[string]string{
		"init_data_raw": signedInitData(time.Now().Unix(), `{"id":42,"first_name":"Ann"}`),
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var initResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &initResp))

	auth := map[string]string{"Authorization": "Bearer " + initResp.Token}

	w = doJSON(router, http.MethodPost, "/miniApp/dates", map[string][]string{
		"dates": {"2026-09-01", "2026-09-02"},
	}, auth)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, bot.sent, 2)

	// Extract the ref from the share message link (...startapp=<ref>).
	share := bot.sent[1]
	idx := bytes.LastIndex([]byte(share), []byte("startapp="))
	require.GreaterOrEqual(t, idx, 0)
	ref := share[idx+len("startapp="):]

	w = doJSON(router, http.MethodGet, "/miniApp/calendar/"+ref, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var calResp struct {
		Calendar struct {
			Dates []string `json:"dates"`
		} `json:"calendar"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &calResp))
	require.Equal(t, []string{"2026-09-01", "2026-09-02"}, calResp.Calendar.Dates)

	w = doJSON(router, http.MethodGet, "/miniApp/calendar/unknown", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDates_Invalid(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/miniApp/init", map[string]string{
		"init_data_raw": signedInitData(time.Now().Unix(), `{"id":42,"first_name":"Ann"}`),
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var initResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &initResp))
	auth := map[string]string{"Authorization": "Bearer " + initResp.Token}

	w = doJSON(router, http.MethodPost, "/miniApp/dates", map[string][]string{
		"dates": {"not-a-date"},
	}, auth)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Unauthenticated save is rejected before validation.
	w = doJSON(router, http.MethodPost, "/miniApp/dates", map[string][]string{
		"dates": {"2026-09-01"},
	}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTelegramMessageWebhook(t *testing.T) {
	router, bot, store := newTestRouter(t)
	ctx := context.Background()

	require.NoError(t, store.SetSetting(ctx, "telegram_security_code", "s3cr3t"))

	update := map[string]any{
		"update_id": 10,
		"message": map[string]any{
			"message_id": 1,
			"chat":       map[string]any{"id": 42, "type": "private"},
			"from":       map[string]any{"id": 42, "first_name": "Ann", "language_code": "en"},
			"text":       "/start",
		},
	}

	w := doJSON(router, http.MethodPost, "/telegramMessage", update, map[string]string{
		"X-Telegram-Bot-Api-Secret-Token": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Empty(t, bot.sent)

	w = doJSON(router, http.MethodPost, "/telegramMessage", update, map[string]string{
		"X-Telegram-Bot-Api-Secret-Token": "s3cr3t",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, bot.sent, 1)
}

func TestSetupWebhook_RequiresInitSecret(t *testing.T) {
	router, _, _ := newTestRouter(t)

	body := map[string]string{"externalUrl": "https://example.com"}

	w := doJSON(router, http.MethodPost, "/init", body, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodPost, "/init", body, map[string]string{
		"Authorization": "Bearer " + testInitSecret,
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHealth(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
}
