package render

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Static fetches markup over plain HTTP. Detail views are served
// server-rendered for guest sessions, so no browser is needed; the probe
// and settle options are satisfied trivially because the body is
// complete once read.
type Static struct {
	hc  *http.Client
	lim *HostLimiter
}

func NewStatic(reqPerSec float64, burst int) *Static {
	return &Static{
		hc:  &http.Client{Timeout: 20 * time.Second},
		lim: NewHostLimiter(reqPerSec, burst),
	}
}

func (s *Static) Render(ctx context.Context, url string, opts Options) (string, error) {
	if err := s.lim.WaitURL(ctx, url); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	res, err := s.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", url, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return "", fmt.Errorf("get %s: status %d", url, res.StatusCode)
	}

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(b), nil
}
