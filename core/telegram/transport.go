package telegram

import (
	"fmt"
	"net"
	"net/http"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/kennelbot/core/config"
	"github.com/m3rciful/kennelbot/core/telegram/netutil"
)

const (
	dialTimeout     = 5 * time.Second
	tlsTimeout      = 5 * time.Second
	idleConnTimeout = 90 * time.Second
	// pollSlack is how long past the long-poll timeout a response may take.
	pollSlack     = 10 * time.Second
	retryAttempts = 2
	retryStep     = time.Second
)

// allowedUpdates are the only update kinds the bot handles.
var allowedUpdates = []string{"message", "callback_query"}

// BuildHTTPClient returns the Bot API client. Header and request deadlines
// leave room for a getUpdates call held open for pollTimeout.
func BuildHTTPClient(pollTimeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsTimeout,
		ResponseHeaderTimeout: pollTimeout + pollSlack,
	}
	return &http.Client{
		Timeout:   pollTimeout + 2*pollSlack,
		Transport: &retryTransport{base: transport, retries: retryAttempts, step: retryStep},
	}
}

// BuildPoller picks the update source for the configured run mode.
func BuildPoller(cfg *coreconfig.Config) (tele.Poller, error) {
	switch cfg.Telegram.RunMode {
	case coreconfig.RunModeWebhook:
		if cfg.Webhook.URL == "" {
			return nil, fmt.Errorf("telegram: webhook mode needs a public url")
		}
		return &tele.Webhook{
			Listen:         fmt.Sprintf("%s:%d", cfg.Webhook.Listen, cfg.Webhook.Port),
			AllowedUpdates: allowedUpdates,
			Endpoint:       &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}, nil
	case coreconfig.RunModeLongpoll, "":
		return &tele.LongPoller{
			Timeout:        cfg.Telegram.PollTimeout(),
			AllowedUpdates: allowedUpdates,
		}, nil
	}
	return nil, fmt.Errorf("telegram: unknown run mode %q", cfg.Telegram.RunMode)
}

// retryTransport repeats requests that failed before Telegram answered.
type retryTransport struct {
	base    http.RoundTripper
	retries int
	step    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	for attempt := 1; err != nil && attempt <= t.retries && netutil.ShouldRetry(err); attempt++ {
		next := req.Clone(req.Context())
		if req.Body != nil {
			if req.GetBody == nil {
				return nil, err
			}
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, err
			}
			next.Body = body
		}
		timer := time.NewTimer(netutil.Backoff(err, attempt, t.step))
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
		resp, err = t.base.RoundTrip(next)
	}
	return resp, err
}
