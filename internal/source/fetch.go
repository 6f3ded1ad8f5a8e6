package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PermissionsHint rides along on fetch failures. Share links that are not
// public are the usual cause, and that is invisible from the status alone.
const PermissionsHint = "If this is SharePoint/OneDrive, set link permissions to 'Anyone with the link' and try again. Also try adding &download=1 to the link."

// FetchError is any failed remote retrieval. Status is the upstream HTTP
// status, or 0 for transport failures and timeouts.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("workbook fetch failed with status %d", e.Status)
	}
	return fmt.Sprintf("workbook fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

const defaultFetchTimeout = 30 * time.Second

// Fetcher downloads workbook bytes with a bounded timeout.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch coerces the share link and downloads it. Transport failures and
// non-success statuses both surface as *FetchError; the caller decides
// whether to keep serving its previous workbook.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	target := CoerceShareURL(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, &FetchError{Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	return data, nil
}
