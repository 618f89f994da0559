package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/kennelbot/core/logger"
	"github.com/m3rciful/kennelbot/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

	sendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kennelbot",
		Subsystem: "tg",
		Name:      "sends_total",
		Help:      "Outbound Bot API calls by action and final result.",
	}, []string{"action", "result"})
	sendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kennelbot",
		Subsystem: "tg",
		Name:      "send_seconds",
		Help:      "Time to complete a successful Bot API call, retries included.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"action"})
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "kennelbot",
		Subsystem: "tg",
		Name:      "send_queue",
		Help:      "Jobs waiting in the outbound queue.",
	})
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
	// done receives the final result when the caller waits for it.
	done chan<- error
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
type Dispatcher struct {
	opts Options
	jobs chan job
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
	errs atomic.Uint64
}

// NewDispatcher starts a dispatcher with sane defaults if options are zeroed.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}

	d := &Dispatcher{
		opts: opts,
		jobs: make(chan job, opts.QueueSize),
		stop: make(chan struct{}),
	}

	d.wg.Add(opts.Workers)
	for range opts.Workers {
		go d.worker()
	}

	return d
}

// Enqueue schedules the provided function for asynchronous execution.
// The run closure must be idempotent if retries are desired.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	return d.enqueue(job{ctx: ctx, action: action, endpoint: endpoint, run: run})
}

// Do schedules run like Enqueue and blocks until the job finishes or ctx is done.
// It returns the job's final error after retries.
func (d *Dispatcher) Do(ctx context.Context, action, endpoint string, run func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	done := make(chan error, 1)
	if err := d.enqueue(job{ctx: ctx, action: action, endpoint: endpoint, run: run, done: done}); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) enqueue(j job) (err error) {
	if j.run == nil {
		return errors.New("telegram sender: nil run function")
	}
	select {
	case <-d.stop:
		return ErrQueueClosed
	default:
	}

	// Close may race with a send on the closed jobs channel.
	defer func() {
		if recover() != nil {
			err = ErrQueueClosed
		}
	}()

	select {
	case d.jobs <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops workers and waits for them to finish processing queued jobs.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.stop)
		close(d.jobs)
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		err := d.handleJob(j)
		if j.done != nil {
			j.done <- err
		}
	}
}

func (d *Dispatcher) handleJob(j job) error {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	queueDepth.Set(float64(len(d.jobs)))
	deadline, cancel := context.WithTimeout(ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := d.opts.MaxRetries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = j.run(); err == nil {
			sendDuration.WithLabelValues(j.action).Observe(time.Since(start).Seconds())
			sendsTotal.WithLabelValues(j.action, "ok").Inc()
			logSend(ctx, j, slog.LevelDebug, nil, attempt, start)
			return nil
		}
		if attempt == attempts || !netutil.ShouldRetry(err) {
			break
		}
		delay := netutil.Backoff(err, attempt, d.opts.RetryBackoff)
		logger.Debug(ctx, "tg.sender", "send.retry",
			slog.String("action", j.action),
			slog.Int("attempts", attempt),
			slog.Duration("delay", delay),
		)
		timer := time.NewTimer(delay)
		select {
		case <-deadline.Done():
			timer.Stop()
			err = errors.Join(err, deadline.Err())
			attempt = attempts
		case <-timer.C:
		}
	}

	d.errs.Add(1)
	sendsTotal.WithLabelValues(j.action, "fail").Inc()
	logSend(ctx, j, slog.LevelError, err, attempts, start)
	return err
}

func logSend(ctx context.Context, j job, level slog.Level, err error, attempts int, start time.Time) {
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("action", j.action),
		slog.String("endpoint", j.endpoint),
		slog.Int("attempts", attempts),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", RedactToken(err.Error())),
			slog.String("err_kind", classifyError(err)),
		)
	}
	logger.Event(ctx, "tg.sender", level, "send", attrs...)
}

// classifyError buckets failures for the error_kind log attribute.
func classifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return "flood"
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return "dns"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return "dial"
	}
	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return "tls"
	}
	switch status := netutil.StatusCode(err); {
	case status >= 500:
		return "http_5xx"
	case status >= 400:
		return "http_4xx"
	}
	return "unknown"
}

// RedactToken masks bot tokens embedded in API URLs.
func RedactToken(msg string) string {
	if msg == "" {
		return ""
	}
	return tokenRe.ReplaceAllString(msg, "bot<redacted>")
}
