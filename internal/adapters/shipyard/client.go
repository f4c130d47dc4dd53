package shipyard

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shipyard/dashboard/internal/core/ports"
)

// AccessTokenHeader carries "<username>:<token>" on authenticated requests.
const AccessTokenHeader = "X-Access-Token"

var ErrUnknownContentType = errors.New("unknown response content")

// RestClient talks JSON to the Shipyard controller.
type RestClient struct {
	BaseURL string
	Header  http.Header
	Client  *http.Client
}

// NewRestClient returns a client for the controller at baseURL.
func NewRestClient(baseURL string, timeout time.Duration) *RestClient {
	c := &RestClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Header:  make(http.Header),
		Client:  &http.Client{Timeout: timeout},
	}
	c.Header.Set("Accept", "application/json")
	c.Header.Set("User-Agent", "Shipyard-Dashboard/0_4")
	return c
}

// WithHeader returns a copy of c that also sends key: value.
func (c *RestClient) WithHeader(key, value string) *RestClient {
	clone := *c
	clone.Header = c.Header.Clone()
	clone.Header.Set(key, value)
	return &clone
}

func (c *RestClient) NewRequest(ctx context.Context, method, path string, payload interface{}) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode request")
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	for key, vals := range c.Header {
		for _, val := range vals {
			req.Header.Add(key, val)
		}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Call sends method path with payload and decodes a JSON answer into v,
// which may be nil.
func (c *RestClient) Call(ctx context.Context, method, path string, payload, v interface{}) error {
	req, err := c.NewRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}
	res, err := c.Client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	return ReadJsonResponseBody(res, v)
}

// ReadJsonResponseBody decodes res into v. Status 401 is
// ports.ErrUnauthorized and any other status of 400 or more is a
// *ports.RequestError.
func ReadJsonResponseBody(res *http.Response, v interface{}) error {
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	if res.StatusCode == http.StatusUnauthorized {
		return ports.ErrUnauthorized
	}
	if res.StatusCode >= 400 {
		return &ports.RequestError{StatusCode: res.StatusCode, Payload: strings.TrimSpace(string(data))}
	}
	if v == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if !IsResponseJson(res) {
		return ErrUnknownContentType
	}
	return errors.Wrap(json.Unmarshal(data, v), "failed to decode response")
}

func IsResponseJson(res *http.Response) bool {
	return strings.Contains(res.Header.Get("Content-Type"), "application/json")
}
