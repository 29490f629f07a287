package render

import (
	"context"
	"time"
)

// Options controls when a page is considered settled before its markup
// is returned.
type Options struct {
	// WaitFor is an ordered list of CSS selectors. Rendering waits until
	// any one of them is present or Timeout passes. A missed probe is
	// never an error; it only risks incomplete markup.
	WaitFor []string

	// Timeout bounds the WaitFor probe.
	Timeout time.Duration

	// Settle is extra time given to the page after the probe, for late
	// script-driven content.
	Settle time.Duration
}

// Renderer returns fully-rendered markup for a URL. Implementations fail
// only on fatal navigation or process errors, never on a missed probe.
type Renderer interface {
	Render(ctx context.Context, url string, opts Options) (string, error)
}
