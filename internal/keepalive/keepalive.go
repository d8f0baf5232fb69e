package keepalive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	logx "github.com/whatsapp-bot/server/pkg/logger"
)

// IdleThreshold is how long the free hosting tier lets the service sit idle before suspending it.
const IdleThreshold = 15 * time.Minute

type Config struct {
	// URL is the public health endpoint; a loopback address does not count as inbound traffic.
	URL      string        `envconfig:"KEEPALIVE_URL"`
	Interval time.Duration `envconfig:"KEEPALIVE_INTERVAL" default:"10m"`
}

// Pinger periodically requests the service's own public URL.
type Pinger struct {
	cfg    Config
	client *http.Client
	once   sync.Once
}

func New(cfg Config, client *http.Client) *Pinger {
	if client == nil {
		client = http.DefaultClient
	}
	return &Pinger{cfg: cfg, client: client}
}

// Start launches the ping loop once and reports whether it is running.
// The loop lives as long as the process and cannot be stopped.
func (p *Pinger) Start() bool {
	if p.cfg.URL == "" || p.cfg.Interval <= 0 {
		logx.Warn().Msg("KEEPALIVE_URL not set; keep-alive disabled")
		return false
	}
	if p.cfg.Interval >= IdleThreshold {
		logx.Warn().Dur("interval", p.cfg.Interval).Dur("idle_threshold", IdleThreshold).
			Msg("keep-alive interval is not below the idle threshold; the service may still be suspended")
	}

	p.once.Do(func() {
		logx.Info().Str("url", p.cfg.URL).Dur("interval", p.cfg.Interval).Msg("keep-alive started")
		go p.loop()
	})
	return true
}

func (p *Pinger) loop() {
	for {
		time.Sleep(p.cfg.Interval)
		if err := p.Ping(context.Background()); err != nil {
			logx.Debug().Err(err).Msg("keep-alive ping failed")
		}
	}
}

// Ping issues one GET against the configured URL.
func (p *Pinger) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("keep-alive target returned status %d", resp.StatusCode)
	}
	logx.Debug().Int("status", resp.StatusCode).Msg("keep-alive ping")
	return nil
}
