package notification

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTwilioBaseURL = "https://api.twilio.com/2010-04-01"

// TwilioNotifier sends SMS through the Twilio Messages REST API.
type TwilioNotifier struct {
	accountSID  string
	authToken   string
	from        string
	countryCode string
	baseURL     string
	client      *http.Client
}

// NewTwilioNotifier builds an SMS sender. Destinations without a leading "+"
// are prefixed with countryCode.
func NewTwilioNotifier(accountSID, authToken, from, countryCode string) *TwilioNotifier {
	return &TwilioNotifier{
		accountSID:  accountSID,
		authToken:   authToken,
		from:        from,
		countryCode: strings.TrimPrefix(countryCode, "+"),
		baseURL:     defaultTwilioBaseURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL points the notifier at another API root, used by tests.
func (n *TwilioNotifier) WithBaseURL(base string) *TwilioNotifier {
	n.baseURL = strings.TrimSuffix(base, "/")
	return n
}

// Send posts the message body to the destination phone number.
func (n *TwilioNotifier) Send(ctx context.Context, message Message) error {
	form := url.Values{}
	form.Set("To", n.e164(message.Destination))
	form.Set("From", n.from)
	form.Set("Body", message.Body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", n.baseURL, url.PathEscape(n.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build twilio request: %w", err)
	}
	req.SetBasicAuth(n.accountSID, n.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("twilio responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (n *TwilioNotifier) e164(phone string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+" + n.countryCode + phone
}
