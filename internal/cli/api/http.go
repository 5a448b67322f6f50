// Package api — клиент локального API otpkeeperd.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"OTPKeeper/internal/repo"
)

// DoJSON выполняет запрос с JSON-телом (если payload не nil) и возвращает ответ
// вместе с прочитанным телом. Непустой token передаётся как Bearer.
func DoJSON(ctx context.Context, method, url string, payload any, token string) (*http.Response, []byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, fmt.Errorf("read body: %w", err)
	}
	return resp, b, nil
}

// BaseURL превращает адрес прослушивания (host:port) в URL сервера.
func BaseURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/")
	}
	return "http://" + addr
}

// LoadToken читает токен, который otpkeeperd сохранил в каталоге хранилища.
func LoadToken(vaultDir string) (string, error) {
	token, err := (repo.TokenStore{Dir: vaultDir}).Load()
	if err != nil {
		return "", fmt.Errorf("api token: %w", err)
	}
	return token, nil
}
