package render

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// Chrome renders pages in a real headless browser. One Chrome owns one
// tab; the listing walk is sequential, so a single instance is shared
// across pages but never across goroutines.
type Chrome struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewChrome starts the browser eagerly so a broken install fails here
// rather than on the first page of a run.
func NewChrome(parent context.Context, headless bool) (*Chrome, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		chromedp.WindowSize(1280, 900),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	cancel := func() {
		cancelCtx()
		cancelAlloc()
	}

	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	return &Chrome{ctx: ctx, cancel: cancel}, nil
}

// callScoped derives a context that carries the tab's chromedp state but
// ends as soon as the caller's context does, so a per-call deadline or
// cancellation cuts tab work short.
func callScoped(tab, call context.Context) (context.Context, context.CancelFunc) {
	rctx, cancel := context.WithCancel(tab)
	stop := context.AfterFunc(call, cancel)
	return rctx, func() {
		stop()
		cancel()
	}
}

func (c *Chrome) Render(ctx context.Context, url string, opts Options) (string, error) {
	rctx, done := callScoped(c.ctx, ctx)
	defer done()

	if err := chromedp.Run(rctx, chromedp.Navigate(url)); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}

	if len(opts.WaitFor) > 0 {
		// Any one of the candidate containers is enough. The probe is
		// best-effort: on timeout we still grab whatever rendered.
		probe := strings.Join(opts.WaitFor, ", ")
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 6 * time.Second
		}
		pctx, cancel := context.WithTimeout(rctx, timeout)
		err := chromedp.Run(pctx, chromedp.WaitReady(probe, chromedp.ByQuery))
		cancel()
		if err != nil {
			log.Printf("[render] probe %q not found on %s: %v (continuing)", probe, url, err)
		}
	}

	if opts.Settle > 0 {
		if err := chromedp.Run(rctx, chromedp.Sleep(opts.Settle)); err != nil {
			return "", fmt.Errorf("settle: %w", err)
		}
	}

	var html string
	if err := chromedp.Run(rctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page source: %w", err)
	}
	return html, nil
}

func (c *Chrome) Close() {
	c.cancel()
}
