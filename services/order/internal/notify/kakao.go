package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultKakaoAPIURL = "https://sens.apigw.ntruss.com/alimtalk/v2"
	countryCode        = "+82"
)

type KakaoConfig struct {
	APIURL       string
	AccessKey    string
	SecretKey    string
	ServiceID    string
	PlusFriendID string
}

// KakaoClient sends AlimTalk template messages through NCP SENS.
type KakaoClient struct {
	cfg        KakaoConfig
	httpClient *http.Client
	now        func() time.Time
}

func NewKakaoClient(cfg KakaoConfig) *KakaoClient {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultKakaoAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &KakaoClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		now:        time.Now,
	}
}

type kakaoRequest struct {
	CountryCode  string         `json:"countryCode"`
	PlusFriendID string         `json:"plusFriendId"`
	TemplateCode string         `json:"templateCode"`
	Messages     []kakaoMessage `json:"messages"`
}

type kakaoMessage struct {
	To      string   `json:"to"`
	Content string   `json:"content"`
	Buttons []Button `json:"buttons,omitempty"`
}

func (c *KakaoClient) endpoint() (*url.URL, error) {
	return url.Parse(c.cfg.APIURL + "/services/" + c.cfg.ServiceID + "/messages")
}

// Signature is base64(HMAC-SHA256(secret, "POST {path}\n{timestamp}\n{accessKey}")).
func (c *KakaoClient) Signature(path, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.SecretKey))
	mac.Write([]byte("POST " + path + "\n" + timestamp + "\n" + c.cfg.AccessKey))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *KakaoClient) SendTemplate(ctx context.Context, to string, tpl Template, vars map[string]string) error {
	u, err := c.endpoint()
	if err != nil {
		return fmt.Errorf("kakao: build url: %w", err)
	}

	msg := kakaoMessage{To: normalizePhone(to), Content: Render(tpl.Content, vars)}
	for _, b := range tpl.Buttons {
		b.LinkMobile = Render(b.LinkMobile, vars)
		b.LinkPC = Render(b.LinkPC, vars)
		msg.Buttons = append(msg.Buttons, b)
	}

	body, err := json.Marshal(kakaoRequest{
		CountryCode:  countryCode,
		PlusFriendID: c.cfg.PlusFriendID,
		TemplateCode: tpl.Code,
		Messages:     []kakaoMessage{msg},
	})
	if err != nil {
		return fmt.Errorf("kakao: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("kakao: create request: %w", err)
	}
	ts := strconv.FormatInt(c.now().UnixMilli(), 10)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("x-ncp-apigw-timestamp", ts)
	req.Header.Set("x-ncp-iam-access-key", c.cfg.AccessKey)
	req.Header.Set("x-ncp-apigw-signature-v2", c.Signature(u.EscapedPath(), ts))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("kakao: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("kakao: send failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func normalizePhone(p string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(p)
}
