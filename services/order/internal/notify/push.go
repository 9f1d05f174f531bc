package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googlejwt "golang.org/x/oauth2/jwt"
)

const (
	DefaultFCMEndpoint = "https://fcm.googleapis.com"

	fcmScope = "https://www.googleapis.com/auth/firebase.messaging"
)

// ErrTokenUnregistered is returned when the push provider no longer accepts
// a device token. The caller deactivates the token.
var ErrTokenUnregistered = errors.New("push token unregistered")

type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

// FCMConfig holds service account credentials for FCM. Either
// CredentialsFile (a service account JSON key) or ClientEmail with
// PrivateKey must be set.
type FCMConfig struct {
	Endpoint        string
	ProjectID       string
	ClientEmail     string
	PrivateKey      string
	CredentialsFile string
	// TokenURL overrides the Google OAuth token endpoint for key fields.
	TokenURL string
}

func (c FCMConfig) Enabled() bool {
	if c.CredentialsFile != "" {
		return true
	}
	return c.ProjectID != "" && c.ClientEmail != "" && c.PrivateKey != ""
}

// FCMClient sends messages through the FCM HTTP v1 API. Access tokens come
// from an oauth2 token source and are refreshed before they expire.
type FCMClient struct {
	endpoint   string
	httpClient *http.Client
}

func NewFCMClient(endpoint, projectID string, ts oauth2.TokenSource) *FCMClient {
	hc := oauth2.NewClient(context.Background(), oauth2.ReuseTokenSource(nil, ts))
	hc.Timeout = 5 * time.Second
	return &FCMClient{
		endpoint:   strings.TrimRight(endpoint, "/") + "/v1/projects/" + projectID + "/messages:send",
		httpClient: hc,
	}
}

// NewFCMClientFromConfig builds the token source from service account
// credentials. ctx bounds token refreshes and should outlive the client.
func NewFCMClientFromConfig(ctx context.Context, cfg FCMConfig) (*FCMClient, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultFCMEndpoint
	}

	if cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("fcm: read credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, fcmScope)
		if err != nil {
			return nil, fmt.Errorf("fcm: parse credentials: %w", err)
		}
		projectID := cfg.ProjectID
		if projectID == "" {
			projectID = creds.ProjectID
		}
		if projectID == "" {
			return nil, errors.New("fcm: project id is missing")
		}
		return NewFCMClient(endpoint, projectID, creds.TokenSource), nil
	}

	if cfg.ProjectID == "" || cfg.ClientEmail == "" || cfg.PrivateKey == "" {
		return nil, errors.New("fcm: project id, client email and private key are required")
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = google.JWTTokenURL
	}
	// keys passed through env usually carry escaped newlines
	jc := &googlejwt.Config{
		Email:      cfg.ClientEmail,
		PrivateKey: []byte(strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n")),
		Scopes:     []string{fcmScope},
		TokenURL:   tokenURL,
	}
	return NewFCMClient(endpoint, cfg.ProjectID, jc.TokenSource(ctx)), nil
}

type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Android      fcmAndroid        `json:"android"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmAndroid struct {
	Notification struct {
		Sound     string `json:"sound"`
		ChannelID string `json:"channel_id"`
	} `json:"notification"`
}

type fcmError struct {
	Error struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
		Details []struct {
			ErrorCode       string `json:"errorCode"`
			FieldViolations []struct {
				Field string `json:"field"`
			} `json:"fieldViolations"`
		} `json:"details"`
	} `json:"error"`
}

func (c *FCMClient) Send(ctx context.Context, token string, msg PushMessage) error {
	req := fcmRequest{Message: fcmMessage{
		Token:        token,
		Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
	}}
	req.Message.Android.Notification.Sound = "custom_sound"
	req.Message.Android.Notification.ChannelID = "default"

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("fcm: encode: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("fcm: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("fcm: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	var fe fcmError
	_ = json.NewDecoder(resp.Body).Decode(&fe)
	if isUnregistered(resp.StatusCode, fe) {
		return fmt.Errorf("%w: %s", ErrTokenUnregistered, fe.Error.Message)
	}
	return fmt.Errorf("fcm: send failed with status %d: %s", resp.StatusCode, fe.Error.Message)
}

// isUnregistered reports whether the error is about the device token itself.
// INVALID_ARGUMENT also covers payload problems, so it only counts when a
// field violation names message.token.
func isUnregistered(code int, fe fcmError) bool {
	if code == http.StatusNotFound {
		return true
	}
	for _, d := range fe.Error.Details {
		if d.ErrorCode == "UNREGISTERED" {
			return true
		}
		for _, v := range d.FieldViolations {
			if v.Field == "message.token" {
				return true
			}
		}
	}
	return false
}
