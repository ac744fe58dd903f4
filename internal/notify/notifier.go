package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Notifier makes single best-effort JSON POSTs to caller supplied URLs.
type Notifier struct {
	httpClient *http.Client
	log        *slog.Logger
}

func NewNotifier(timeout time.Duration, log *slog.Logger) *Notifier {
	return &Notifier{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Notify posts payload to target once. The returned error is for logging
// only; delivery is never retried.
func (n *Notifier) Notify(ctx context.Context, target string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification returned status %d", resp.StatusCode)
	}

	n.log.Debug("notification delivered", "url", target, "status", resp.StatusCode)
	return nil
}
