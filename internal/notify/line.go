// Package notify delivers the run summary to a messaging webhook.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"upperlimit/internal/utils"
	"upperlimit/models"

	"github.com/tidwall/gjson"
)

// ErrDelivery wraps every failure to hand a message to the endpoint.
var ErrDelivery = errors.New("notification delivery failed")

// Notifier posts form-encoded messages with a bearer token.
type Notifier struct {
	url    string
	token  string
	client *http.Client
	logger *utils.Logger
}

func NewNotifier(endpoint, token string, timeout time.Duration, logger *utils.Logger) *Notifier {
	return &Notifier{
		url:    endpoint,
		token:  token,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// BuildMessage lists the record count and then one stock name per line in
// table order.
func BuildMessage(records []models.StockRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "총 %d개 상한가 종목이 저장되었습니다.\n\n", len(records))
	sb.WriteString("상한가 종목:\n")
	for _, r := range records {
		sb.WriteString(r.StockName)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Send posts msg once. Non-2xx responses are reported with the endpoint's
// own message when the body carries one.
func (n *Notifier) Send(ctx context.Context, msg string) error {
	form := url.Values{"message": {msg}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	req.Header.Set("Authorization", "Bearer "+n.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if reason := gjson.GetBytes(body, "message").String(); reason != "" {
			return fmt.Errorf("%w: status %d: %s", ErrDelivery, resp.StatusCode, reason)
		}
		return fmt.Errorf("%w: status %d", ErrDelivery, resp.StatusCode)
	}

	n.logger.Debug("Notification accepted (status=%s)", gjson.GetBytes(body, "status").String())
	return nil
}

// Notify sends the summary for records. Failures are logged and never
// returned.
func (n *Notifier) Notify(ctx context.Context, records []models.StockRecord) {
	if err := n.Send(ctx, BuildMessage(records)); err != nil {
		n.logger.Warn("Failed to send notification: %v", err)
		return
	}
	n.logger.Info("Notification sent for %d stocks", len(records))
}
