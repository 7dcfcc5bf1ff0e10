package http

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Acceptto/telegram-miniapp-scaffold/internal/adapters/telegram"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/adapters/transport/http/dto"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/app/miniapp/service"
	customErrors "github.com/Acceptto/telegram-miniapp-scaffold/internal/domain/miniapp/errors"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/domain/miniapp/model"
)

const userContextKey = "currentUser"

// Handler registers the mini app routes on a gin engine.
type Handler struct {
	svc        service.Service
	initSecret string
	log        *zap.Logger
}

func NewHandler(svc service.Service, initSecret string, log *zap.Logger) *Handler {
	return &Handler{svc: svc, initSecret: initSecret, log: log}
}

func (h *Handler) Register(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "This telegram bot is deployed correctly. No user-serviceable parts inside.")
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/miniApp/init", h.initMiniApp)
	r.GET("/miniApp/me", h.requireSession, h.me)
	r.GET("/miniApp/calendar/:ref", h.calendarByRef)
	r.POST("/miniApp/dates", h.requireSession, h.saveDates)

	r.POST("/telegramMessage", h.telegramMessage)
	r.GET("/updateTelegramMessages", h.pollUpdates)
	r.POST("/init", h.setupWebhook)
}

func (h *Handler) initMiniApp(c *gin.Context) {
	var body dto.InitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid initDataRaw"})
		return
	}

	res, err := h.svc.InitMiniApp(c.Request.Context(), body.InitDataRaw)
	if err != nil {
		h.handleError(c, err)
		return
	}

	var startParam *string
	if res.StartParam != "" {
		startParam = &res.StartParam
	}
	c.JSON(http.StatusOK, dto.InitResponse{
		Token:      res.Token,
		StartParam: startParam,
		StartPage:  res.StartPage,
		User:       res.User,
	})
}

// requireSession authenticates the bearer token and stashes the resolved
// user in the request context. Every failure mode is the same 401.
func (h *Handler) requireSession(c *gin.Context) {
	bearer := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")

	user, err := h.svc.Authenticate(c.Request.Context(), bearer)
	if err != nil {
		if customErrors.IsInternal(err) {
			h.log.Error("authenticate", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Set(userContextKey, user)
	c.Next()
}

func currentUser(c *gin.Context) model.User {
	u, _ := c.Get(userContextKey)
	user, _ := u.(model.User)
	return user
}

func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, dto.MeResponse{User: currentUser(c)})
}

func (h *Handler) calendarByRef(c *gin.Context) {
	calendar, err := h.svc.CalendarByRef(c.Request.Context(), c.Param("ref"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	// Stored payload is JSON; re-emit it as a nested object.
	c.Data(http.StatusOK, "application/json", []byte(`{"calendar":`+calendar.CalendarJSON+`}`))
}

func (h *Handler) saveDates(c *gin.Context) {
	var body dto.DatesRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dates"})
		return
	}

	user := currentUser(c)
	if _, err := h.svc.CreateCalendar(c.Request.Context(), user, body.Dates); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MeResponse{User: user})
}

func (h *Handler) telegramMessage(c *gin.Context) {
	provided := c.GetHeader("X-Telegram-Bot-Api-Secret-Token")
	if err := h.svc.VerifyWebhookSecret(c.Request.Context(), provided); err != nil {
		h.handleError(c, err)
		return
	}

	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update"})
		return
	}

	if _, err := h.svc.ProcessUpdate(c.Request.Context(), update); err != nil {
		h.handleError(c, err)
		return
	}
	c.String(http.StatusOK, "Success")
}

func (h *Handler) pollUpdates(c *gin.Context) {
	// Только для локальной разработки
	if !isLocalhost(c.Request.Host) {
		c.JSON(http.StatusForbidden, gin.H{"error": "This request is only supposed to be used locally"})
		return
	}

	results, err := h.svc.PollUpdates(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *Handler) setupWebhook(c *gin.Context) {
	if h.initSecret == "" || c.GetHeader("Authorization") != "Bearer "+h.initSecret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var body dto.SetupWebhookRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid externalUrl"})
		return
	}

	if err := h.svc.SetupWebhook(c.Request.Context(), body.ExternalURL); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "webhook registered"})
}

func isLocalhost(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return host == "localhost" || host == "127.0.0.1"
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case customErrors.IsInvalidSignature(err), customErrors.IsUnauthorized(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case customErrors.IsStaleData(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Stale data, please restart the app"})
	case customErrors.IsMalformedPayload(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case customErrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		h.log.Error("internal error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
