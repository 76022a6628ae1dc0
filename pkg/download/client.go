package download

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const DefaultMaxPages = 10000

var (
	ErrPageLimitExceeded = errors.New("page limit exceeded before an empty page was returned")

	emptyPage = []byte("[]")
)

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("request to %s failed with status %s", e.URL, e.Status)
}

type Client struct {
	HTTPClient *http.Client
	MaxPages   int
}

func NewClient(timeout time.Duration, maxPages int) *Client {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		MaxPages: maxPages,
	}
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create request for %s", rawURL)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send request to %s", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &HTTPError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response body from %s", rawURL)
	}

	return body, nil
}

// FetchFile downloads rawURL and writes the body verbatim to localPath.
func (c *Client) FetchFile(ctx context.Context, rawURL string, fs afero.Fs, localPath string) (int64, error) {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return 0, err
	}

	err = afero.WriteFile(fs, localPath, body, 0o644)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to write downloaded file to %s", localPath)
	}

	return int64(len(body)), nil
}

// FetchPages requests rawURL with page=0,1,2,... until a page body is the empty array.
// onPage receives the body of every non-empty page. It returns the number of
// non-empty pages handed to onPage.
func (c *Client) FetchPages(ctx context.Context, rawURL string, onPage func(page int, body []byte) error) (int, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid url %s", rawURL)
	}

	maxPages := c.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	for page := 0; page < maxPages; page++ {
		pageURL := withPage(base, page)

		body, err := c.get(ctx, pageURL)
		if err != nil {
			return page, err
		}

		if bytes.Equal(bytes.TrimSpace(body), emptyPage) {
			return page, nil
		}

		if err := validatePage(body); err != nil {
			return page, errors.Wrapf(err, "page %d from %s is not a valid player page", page, rawURL)
		}

		if err := onPage(page, body); err != nil {
			return page, errors.Wrapf(err, "failed to process page %d", page)
		}
	}

	return maxPages, errors.Wrapf(ErrPageLimitExceeded, "fetched %d pages from %s", maxPages, rawURL)
}

func withPage(base *url.URL, page int) string {
	u := *base
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
