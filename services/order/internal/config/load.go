package config

import (
	"time"

	"github.com/Skotchmaster/ezpickup/pkg/config"
	"github.com/Skotchmaster/ezpickup/services/order/internal/notify"
)

type ServiceConfig struct {
	config.Config

	EventsTopic string
	OrderIndex  string
	LinkBaseURL string

	FCM   notify.FCMConfig
	Kakao notify.KakaoConfig

	OutboxInterval time.Duration
	OutboxGrace    time.Duration
	OutboxBatch    int
}

func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "order"
	}

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.AuthHTTPURL, "AUTH_URL")

	sc := ServiceConfig{
		Config: cfg,

		EventsTopic: config.EnvDefault("ORDER_EVENTS_TOPIC", "order_events"),
		OrderIndex:  config.EnvDefault("ORDER_INDEX", "orders"),
		LinkBaseURL: config.EnvDefault("ORDER_LINK_BASE_URL", "http://localhost:3000"),

		FCM: notify.FCMConfig{
			Endpoint:        config.EnvDefault("FCM_ENDPOINT", notify.DefaultFCMEndpoint),
			ProjectID:       config.EnvDefault("FCM_PROJECT_ID", ""),
			ClientEmail:     config.EnvDefault("FCM_CLIENT_EMAIL", ""),
			PrivateKey:      config.EnvDefault("FCM_PRIVATE_KEY", ""),
			CredentialsFile: config.EnvDefault("FCM_CREDENTIALS_FILE", ""),
		},

		Kakao: notify.KakaoConfig{
			APIURL:       config.EnvDefault("KAKAO_API_URL", notify.DefaultKakaoAPIURL),
			AccessKey:    config.EnvDefault("KAKAO_ACCESS_KEY", ""),
			SecretKey:    config.EnvDefault("KAKAO_SECRET_KEY", ""),
			ServiceID:    config.EnvDefault("KAKAO_SERVICE_ID", ""),
			PlusFriendID: config.EnvDefault("KAKAO_PLUS_FRIEND_ID", ""),
		},

		OutboxInterval: config.EnvDurationDefault("OUTBOX_INTERVAL", 30*time.Second),
		OutboxGrace:    config.EnvDurationDefault("OUTBOX_GRACE", time.Minute),
		OutboxBatch:    config.EnvIntDefault("OUTBOX_BATCH", 100),
	}
	return sc
}

// PushEnabled reports whether FCM service account credentials are configured.
func (c ServiceConfig) PushEnabled() bool {
	return c.FCM.Enabled()
}

// KakaoEnabled reports whether SENS credentials are configured.
func (c ServiceConfig) KakaoEnabled() bool {
	k := c.Kakao
	return k.AccessKey != "" && k.SecretKey != "" && k.ServiceID != "" && k.PlusFriendID != ""
}
