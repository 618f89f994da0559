package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"timeout", &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: timeoutErr{}}, true},
		{"dial", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, true},
		{"reset", fmt.Errorf("send: %w", syscall.ECONNRESET), true},
		{"flood", tele.FloodError{RetryAfter: 3}, true},
		{"server error", errors.New("telegram: Internal Server Error (500)"), true},
		{"bad request", tele.ErrMessageNotModified, false},
		{"context cancelled", context.Canceled, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldRetry(tc.err))
		})
	}
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 4*time.Second, Backoff(errors.New("x"), 2, 2*time.Second))
	assert.Equal(t, 2*time.Second, Backoff(errors.New("x"), 0, 2*time.Second))
	assert.Equal(t, 7*time.Second, Backoff(tele.FloodError{RetryAfter: 7}, 1, time.Second))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 0, StatusCode(nil))
	assert.Equal(t, 400, StatusCode(tele.ErrMessageNotModified))
	assert.Equal(t, 429, StatusCode(tele.FloodError{RetryAfter: 1}))
	assert.Equal(t, 502, StatusCode(errors.New("telegram: Bad Gateway (502)")))
	assert.Equal(t, 0, StatusCode(errors.New("wrapped (not a code)")))
	assert.Equal(t, 0, StatusCode(errors.New("listen (8443)")))
}
