// Package scanapi is the device side HTTP client for the scan endpoints
// it implements scanwedge.ResolverPort so a wedge pipeline can submit
// over the wire instead of in process
package scanapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"scanhub/internal/core/scanwedge"
	perr "scanhub/internal/platform/errors"
)

const (
	defaultTimeout = 10 * time.Second
	deviceHeader   = "X-Device-ID"
)

// Options configures the Client
type Options struct {
	// BaseURL is the API root, e.g. http://localhost:4000
	BaseURL string

	// Token is the static bearer credential; empty means the server
	// runs open and none is sent
	Token string

	Timeout time.Duration
}

// Client speaks to the scan endpoints under /api/v1
type Client struct {
	http *http.Client
	opts Options
}

// New creates a Client with sane defaults
func New(o Options) *Client {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
	}
}

// envelope mirrors the server's transport envelope
type envelope struct {
	StatusCode int             `json:"status_code"`
	Code       int             `json:"code"`
	Error      string          `json:"error"`
	Data       json.RawMessage `json:"data"`
}

// scanPayload is the wire shape of a scan submission; the server binds
// strictly, so only the fields it knows go out
type scanPayload struct {
	Barcode   string `json:"barcode"`
	SessionID string `json:"session_id,omitempty"`
	JobID     string `json:"job_id,omitempty"`
	DeviceID  string `json:"device_id,omitempty"`
	Action    string `json:"action,omitempty"`
}

// Resolve implements scanwedge.ResolverPort over POST /api/v1/scan
func (c *Client) Resolve(ctx context.Context, sub scanwedge.Submission) (scanwedge.Result, error) {
	payload := scanPayload{
		Barcode:   sub.Barcode,
		SessionID: sub.SessionID,
		JobID:     sub.JobID,
		DeviceID:  sub.DeviceID,
		Action:    sub.Action,
	}

	var res scanwedge.Result
	if err := c.postJSON(ctx, "/api/v1/scan", sub.DeviceID, payload, &res); err != nil {
		return scanwedge.Result{}, err
	}
	return res, nil
}

// StartSession opens a new scan session and returns its id
func (c *Client) StartSession(ctx context.Context, jobID string) (string, error) {
	body := struct {
		JobID string `json:"job_id,omitempty"`
	}{JobID: jobID}

	var sess struct {
		ID string `json:"id"`
	}
	if err := c.postJSON(ctx, "/api/v1/sessions/start", "", body, &sess); err != nil {
		return "", err
	}
	return sess.ID, nil
}

// EndSession completes the session; ending twice reports a state error
func (c *Client) EndSession(ctx context.Context, sessionID string) error {
	return c.postJSON(ctx, "/api/v1/sessions/"+sessionID+"/end", "", nil, nil)
}

func (c *Client) postJSON(ctx context.Context, path, deviceID string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnknown, "encode request")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+path, reader)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}
	if deviceID != "" {
		req.Header.Set(deviceHeader, deviceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "decode envelope")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return perr.Newf(perr.ErrorCode(env.Code), "%s", errText(env, resp.StatusCode))
	}
	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnknown, "decode response data")
		}
	}
	return nil
}

func errText(env envelope, status int) string {
	if env.Error != "" {
		return env.Error
	}
	return http.StatusText(status)
}
