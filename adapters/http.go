package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/brettbedarf/nifs"
	"github.com/brettbedarf/nifs/internal/util"
)

type HTTPMethod = string

const (
	HTTPMethodGet  HTTPMethod = "GET"
	HTTPMethodPost HTTPMethod = "POST"
)

// HTTPClient is the subset of *http.Client used by [HTTPAdapter]
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPSource contains http-specific source request fields
type HTTPSource struct {
	URL     string            `json:"url"`
	Method  *HTTPMethod       `json:"method,omitempty"` // Default is GET
	Headers map[string]string `json:"headers,omitempty"`
}

// HTTPProvider builds [HTTPAdapter]s sharing one client
type HTTPProvider struct {
	client HTTPClient
}

// NewHTTPProvider returns a provider using client, or http.DefaultClient if nil
func NewHTTPProvider(client HTTPClient) *HTTPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{client: client}
}

func RegisterHTTP(r *Registry) {
	r.Register(HTTPAdapterType, NewHTTPProvider(nil))
}

// NewAdapter validates the source's URL and method
func (p *HTTPProvider) NewAdapter(raw []byte) (nifs.FileAdapter, error) {
	var src HTTPSource
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, err
	}
	src.URL = strings.TrimSpace(src.URL)
	if err := validateURL(src.URL); err != nil {
		return nil, err
	}
	if src.Method != nil {
		switch m := strings.ToUpper(*src.Method); m {
		case HTTPMethodGet, HTTPMethodPost:
			src.Method = &m
		default:
			return nil, fmt.Errorf("unsupported http method %q", *src.Method)
		}
	}
	return &HTTPAdapter{config: &src, client: p.client}, nil
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("http source requires a url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", raw)
	}
	// pass credentials as headers instead
	if u.User != nil {
		return fmt.Errorf("invalid url %q: user info not allowed", u.Redacted())
	}
	return nil
}

// HTTPAdapter implements [nifs.FileAdapter] for HTTP sources
type HTTPAdapter struct {
	config *HTTPSource
	client HTTPClient
}

func (h *HTTPAdapter) newRequest(ctx context.Context, method HTTPMethod) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.config.URL, nil)
	if err != nil {
		return nil, err
	}

	// Add custom headers
	for k, v := range h.config.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// Open requests the URL and returns the response body. Non 2xx responses are errors.
func (h *HTTPAdapter) Open(ctx context.Context) (io.ReadCloser, error) {
	logger := util.GetLogger("HTTPAdapter.Open")

	req, err := h.newRequest(ctx, h.getMethod())
	if err != nil {
		return nil, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: unexpected status %s", req.Method, h.config.URL, resp.Status)
	}

	logger.Debug().Str("url", h.config.URL).Int64("contentLength", resp.ContentLength).Msg("Opened source")
	return resp.Body, nil
}

func (h *HTTPAdapter) getMethod() HTTPMethod {
	if h.config.Method != nil {
		return *h.config.Method
	}
	return HTTPMethodGet
}
