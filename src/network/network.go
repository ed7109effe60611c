package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"traffic-publisher/src/helpers"
	"traffic-publisher/src/logger"
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

type NetworkManager struct {
	Client    *http.Client
	Logger    *logger.Logger
	Timeout   time.Duration
	UserAgent string
}

// -----------------------------------------------------------------------------

// NewNetworkManager builds a manager whose calls each run under timeout.
// proxy is optional.
func NewNetworkManager(timeout time.Duration, proxy string, log *logger.Logger) (*NetworkManager, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxy != "" {
		if !strings.Contains(proxy, "://") {
			proxy = "http://" + proxy
		}
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, helpers.NewConfigurationError(fmt.Sprintf("invalid proxy '%s'", proxy), err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &NetworkManager{
		Client:    &http.Client{Transport: transport},
		Logger:    log.Named("NetworkManager"),
		Timeout:   timeout,
		UserAgent: "traffic-publisher/1.0",
	}, nil
}

// -----------------------------------------------------------------------------

// Get performs a single GET request. There is no retry: the first failure is returned.
func (nm *NetworkManager) Get(ctx context.Context, urlStr string, params url.Values, headers map[string]string) ([]byte, error) {
	reqURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, helpers.NewFetchError(fmt.Sprintf("invalid url '%s'", urlStr), 0, err)
	}

	q := reqURL.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	reqURL.RawQuery = q.Encode()

	if nm.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, nm.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, helpers.NewFetchError("failed to build request", 0, err)
	}
	req.Header.Set("User-Agent", nm.UserAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := nm.Client.Do(req)
	if err != nil {
		nm.Logger.Error("Request to %s failed: %v", reqURL.Path, err)
		return nil, helpers.NewFetchError(fmt.Sprintf("GET %s failed", reqURL.Path), 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, helpers.NewFetchError(fmt.Sprintf("failed to read response from %s", reqURL.Path), resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		nm.Logger.Error("Bad status %d from %s", resp.StatusCode, reqURL.Path)
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, helpers.NewFetchError(
			fmt.Sprintf("GET %s returned status %d", reqURL.Path, resp.StatusCode),
			resp.StatusCode,
			fmt.Errorf("%s", snippet),
		)
	}

	return body, nil
}
