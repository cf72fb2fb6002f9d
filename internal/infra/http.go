package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	neturl "net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// DefaultTimeout applies when NewClient is given a non-positive timeout.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is kept in ErrHTTP.
const maxErrorBody = 1024

// ErrHTTP wraps an HTTP error response with its status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// ErrRequest is a transport-level failure: DNS, connect, TLS, timeout or
// a cancelled context. No response was received.
type ErrRequest struct {
	URL string
	Err error
}

func (e *ErrRequest) Error() string {
	return fmt.Sprintf("HTTP GET %s: %v", e.URL, e.Err)
}

func (e *ErrRequest) Unwrap() error { return e.Err }

// Client is a pre-configured HTTP client. Cookies set by a response are
// kept for later requests on the same Client.
type Client struct {
	r *resty.Client
}

// NewClient creates a client with the given timeout and User-Agent.
// An empty userAgent selects DefaultUserAgent.
func NewClient(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	r := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json, text/html, */*").
		SetHeader("Accept-Language", "en-US,en;q=0.9")
	return &Client{r: r}
}

// Get performs a GET request and returns the response body. Query values
// are encoded by the client and never appear in returned errors.
// A status >= 400 yields *ErrHTTP; a transport failure yields *ErrRequest.
func (c *Client) Get(ctx context.Context, url string, query, headers map[string]string) ([]byte, error) {
	resp, err := c.r.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		// *url.Error repeats the full request URL, query included.
		var uerr *neturl.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, &ErrRequest{URL: url, Err: err}
	}

	if resp.StatusCode() >= 400 {
		body := resp.Body()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &ErrHTTP{
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       string(body),
		}
	}

	return resp.Body(), nil
}

// GetJSON performs a GET request and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, url string, query, headers map[string]string, out any) error {
	body, err := c.Get(ctx, url, query, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
