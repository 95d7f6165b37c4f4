// Package capture screenshots the server-rendered month page with a headless
// Chromium driven by chromedp.
package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"daybook/internal/config"
	appLog "daybook/internal/log"
)

const (
	DefaultWidth      = 1024
	DefaultHeight     = 768
	DefaultTimeoutSec = 30

	// readySelector matches the month page root once it has rendered.
	readySelector = `[data-ready="true"]`
)

// Options defines one capture.
type Options struct {
	// URL of the month page, e.g. "http://127.0.0.1:8080/calendar".
	URL string

	// OutputPath is where the PNG is written.
	OutputPath string

	// Width and Height are the viewport size in pixels. Zero means
	// DefaultWidth / DefaultHeight.
	Width  int
	Height int

	// Timeout bounds the whole capture. Zero means DefaultTimeoutSec.
	Timeout time.Duration

	// Username/Password are sent as HTTP Basic Auth when both are set.
	Username string
	Password string
}

// OptionsFromConfig builds Options from the capture and basic_auth sections.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		URL:        cfg.Capture.URL,
		OutputPath: cfg.Capture.Output,
		Width:      cfg.Capture.Width,
		Height:     cfg.Capture.Height,
		Timeout:    time.Duration(cfg.Capture.TimeoutSeconds) * time.Second,
	}
	if cfg.BasicAuth != nil {
		opts.Username = cfg.BasicAuth.Username
		opts.Password = cfg.BasicAuth.Password
	}
	return opts
}

// ForMonth returns a copy of o whose URL selects year/month (1-based).
func (o Options) ForMonth(year, month int) (Options, error) {
	u, err := url.Parse(o.URL)
	if err != nil {
		return o, fmt.Errorf("capture: invalid URL: %w", err)
	}
	q := u.Query()
	q.Set("year", strconv.Itoa(year))
	q.Set("month", strconv.Itoa(month))
	u.RawQuery = q.Encode()
	o.URL = u.String()
	return o, nil
}

func (o *Options) normalize() error {
	if o.URL == "" {
		return errors.New("capture: URL is required")
	}
	if o.OutputPath == "" {
		return errors.New("capture: OutputPath is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}
	return nil
}

func (o Options) authHeader() network.Headers {
	if o.Username == "" || o.Password == "" {
		return nil
	}
	token := base64.StdEncoding.EncodeToString([]byte(o.Username + ":" + o.Password))
	return network.Headers{"Authorization": "Basic " + token}
}

// MonthPNG launches a headless Chromium, opens opts.URL, waits for the month
// page to report data-ready="true" and writes a full-page PNG to
// opts.OutputPath.
func MonthPNG(parentCtx context.Context, opts Options) error {
	if err := opts.normalize(); err != nil {
		return err
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(parentCtx, allocOpts...)
	defer allocCancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		network.Enable(),
	}
	if h := opts.authHeader(); h != nil {
		tasks = append(tasks, network.SetExtraHTTPHeaders(h))
	}
	tasks = append(tasks,
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(readySelector, chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	)

	start := time.Now()
	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := writeFileAtomic(opts.OutputPath, png); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	appLog.Info("month captured",
		"path", opts.OutputPath,
		"bytes", len(png),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".capture-*.png")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
