package syncgateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"venuebook/internal/config"
)

// HTTPNotifier tells the remote system that a venue's index settled, so it
// can pull a fresh copy.
type HTTPNotifier struct {
	client  *http.Client
	baseURL string
	path    string
}

func NewHTTPNotifier(cfg config.RemoteConfig) *HTTPNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPNotifier{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		path:    cfg.SyncDonePath,
	}
}

func (n *HTTPNotifier) url(venueID int64) string {
	path := strings.ReplaceAll(n.path, "{venueId}", strconv.FormatInt(venueID, 10))
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return n.baseURL + path
}

// SyncDone issues GET on the sync-done URL. Any non-2xx status is an error.
func (n *HTTPNotifier) SyncDone(ctx context.Context, venueID int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.url(venueID), nil)
	if err != nil {
		return err
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("sync done for venue %d: %w", venueID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sync done for venue %d: remote answered %s", venueID, resp.Status)
	}
	return nil
}
