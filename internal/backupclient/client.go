// Package backupclient — HTTP-клиент к sidecar-у pgbackup: снятие дампа базы
// и восстановление из последнего дампа по запросу из админ-панели.
package backupclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{}}
}

func (c *Client) do(ctx context.Context, path string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("%s: http %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return strings.TrimSpace(string(body)), nil
}

// Backup просит sidecar снять дамп; возвращает путь к файлу на его стороне.
func (c *Client) Backup(ctx context.Context) (string, error) {
	return c.do(ctx, "/cgi-bin/backup", 2*time.Minute)
}

// RestoreLatest восстанавливает базу из последнего снятого дампа.
func (c *Client) RestoreLatest(ctx context.Context) (string, error) {
	return c.do(ctx, "/cgi-bin/restore-latest", 5*time.Minute)
}
