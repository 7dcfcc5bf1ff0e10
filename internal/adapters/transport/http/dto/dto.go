package dto

import "github.com/Acceptto/telegram-miniapp-scaffold/internal/domain/miniapp/model"

type InitRequest struct {
	InitDataRaw string `json:"init_data_raw" binding:"required"`
}

type InitResponse struct {
	Token      string     `json:"token"`
	StartParam *string    `json:"start_param"`
	StartPage  string     `json:"start_page"`
	User       model.User `json:"user"`
}

type MeResponse struct {
	User model.User `json:"user"`
}

type DatesRequest struct {
	Dates []string `json:"dates" binding:"required"`
}

type CalendarResponse struct {
	Calendar any `json:"calendar"`
}

type SetupWebhookRequest struct {
	ExternalURL string `json:"externalUrl" binding:"required,url"`
}
