package tpos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"tpos_commerce/core/logger"
)

// tokenResponse là payload trả về từ worker cấp token
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // Giây
}

// tokenProvider lấy và cache bearer token từ worker ngoài.
// Token được refresh sớm 60 giây trước khi hết hạn để tránh request bị 401 giữa chừng.
type tokenProvider struct {
	tokenURL string
	client   *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func newTokenProvider(tokenURL string, client *http.Client) *tokenProvider {
	return &tokenProvider{
		tokenURL: tokenURL,
		client:   client,
	}
}

// Token trả về bearer token hiện tại, tự động refresh khi sắp hết hạn
func (p *tokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Before(p.expiresAt.Add(-60*time.Second)) {
		return p.token, nil
	}

	log := logger.WithModule("tpos")
	log.Info("🔑 [TPOS] Đang lấy bearer token mới từ worker")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.tokenURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.WithError(err).Error("🔑 [TPOS] Lỗi khi gọi token worker")
		return "", fmt.Errorf("token worker request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.WithFields(map[string]interface{}{
			"statusCode": resp.StatusCode,
			"response":   string(bodyBytes),
		}).Error("🔑 [TPOS] Token worker trả về lỗi")
		return "", fmt.Errorf("token worker returned status %d", resp.StatusCode)
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token worker returned empty access_token")
	}

	p.token = tokenResp.AccessToken
	expiresIn := tokenResp.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600 // Worker cũ không trả expires_in
	}
	p.expiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)

	log.WithFields(map[string]interface{}{
		"expiresAt": p.expiresAt.Format(time.RFC3339),
	}).Info("🔑 [TPOS] Đã có bearer token mới")

	return p.token, nil
}
