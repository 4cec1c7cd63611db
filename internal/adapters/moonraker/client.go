// Package moonraker implements the printer transport over the Moonraker HTTP API.
package moonraker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/example/probeacc/internal/ports/secondary"
)

// DefaultURL is where Moonraker listens on a stock install.
const DefaultURL = "http://localhost:7125"

// Client implements secondary.PrinterTransport for a Moonraker host.
//
// The HTTP client carries no timeout: PROBE_ACCURACY with many samples runs
// for minutes and the script request returns only when it completes.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a Moonraker client for baseURL.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		logger:  logger,
	}
}

// SendGcode runs a gcode script and waits for it to finish.
func (c *Client) SendGcode(ctx context.Context, script string) error {
	c.logger.Debug("sending gcode", zap.String("script", script))

	var result any
	err := c.do(ctx, http.MethodPost, "/printer/gcode/script?script="+escape(script), &result)
	if err == nil {
		return nil
	}
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
		return &secondary.GcodeError{Script: script, Message: apiErr.Message}
	}
	return &secondary.TransportError{Op: "gcode", Err: err}
}

// QueryObject reads one field of a printer object, or the whole object when
// key is empty. A missing field yields (nil, nil).
func (c *Client) QueryObject(ctx context.Context, object, key string) (any, error) {
	path := "/printer/objects/query?" + escape(object)
	if key != "" {
		path += "=" + escape(key)
	}

	var result struct {
		Status map[string]map[string]any `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, path, &result); err != nil {
		return nil, &secondary.TransportError{Op: "query", Err: err}
	}

	fields, ok := result.Status[object]
	if !ok {
		return nil, nil
	}
	if key == "" {
		return fields, nil
	}
	return fields[key], nil
}

// GcodeStore reads up to count most recent entries of the gcode response log.
func (c *Client) GcodeStore(ctx context.Context, count int) ([]*secondary.LogEntryRecord, error) {
	var result struct {
		GcodeStore []struct {
			Message string  `json:"message"`
			Time    float64 `json:"time"`
			Type    string  `json:"type"`
		} `json:"gcode_store"`
	}
	if err := c.do(ctx, http.MethodGet, "/server/gcode_store?count="+strconv.Itoa(count), &result); err != nil {
		return nil, &secondary.TransportError{Op: "gcode_store", Err: err}
	}

	entries := make([]*secondary.LogEntryRecord, len(result.GcodeStore))
	for i, e := range result.GcodeStore {
		entries[i] = &secondary.LogEntryRecord{Time: e.Time, Message: e.Message, Type: e.Type}
	}
	c.logger.Debug("read gcode store", zap.Int("requested", count), zap.Int("received", len(entries)))
	return entries, nil
}

// apiError is a non-2xx Moonraker response.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("moonraker returned status %d: %s", e.Status, e.Message)
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("moonraker request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if decodeErr == nil && env.Error != nil {
			msg = env.Error.Message
		}
		return &apiError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	return nil
}

// escape encodes a query component with spaces as %20, which Moonraker
// requires for object names such as "gcode_macro _User_Variables".
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Ensure Client implements the interface
var _ secondary.PrinterTransport = (*Client)(nil)
