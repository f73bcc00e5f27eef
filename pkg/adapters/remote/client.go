package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Lokiragnarock/srm-cia-survey/internal/compiler"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

// Actions understood by the survey web app.
const (
	ActionGetConfig    = "getConfig"
	ActionGetResponses = "getResponses"
)

// Response sheet column names.
const (
	ColumnTimestamp = "Timestamp"
	ColumnPathTaken = "Path_Taken"
)

// maxBody bounds how much of a reply is read.
const maxBody = 8 << 20

// ErrRemote is returned when the web app replies with an error payload.
var ErrRemote = errors.New("survey web app error")

// Client talks to the spreadsheet-backed survey web app. A single client
// serves as ports.ConfigLoader, ports.SubmissionSink and ports.ResponseReader.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.http.Timeout = d
	}
}

// WithLogger sets a custom structured logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// New creates a client for the web app deployed at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid web app url %q", baseURL)
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Load fetches the survey configuration with ?action=getConfig.
func (c *Client) Load(ctx context.Context) ([]domain.Record, error) {
	var rows []map[string]any
	if err := c.get(ctx, ActionGetConfig, &rows); err != nil {
		return nil, err
	}
	records, err := compiler.DecodeRecords(rows)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("survey configuration fetched", "records", len(records))
	return records, nil
}

// submitPayload is the body the web app's POST handler expects.
type submitPayload struct {
	Timestamp string            `json:"timestamp"`
	Responses map[string]string `json:"responses"`
	PathTaken string            `json:"pathTaken"`
}

// Submit posts a completed response to the web app.
func (c *Client) Submit(ctx context.Context, sub *domain.Submission) error {
	body, err := json.Marshal(submitPayload{
		Timestamp: sub.Timestamp.UTC().Format(time.RFC3339Nano),
		Responses: sub.Answers,
		PathTaken: sub.PathString(),
	})
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var reply map[string]any
	if err := c.do(req, &reply); err != nil {
		return fmt.Errorf("submit response: %w", err)
	}
	c.logger.Debug("response submitted", "session_id", sub.SessionID)
	return nil
}

// ListResponses reads the responses sheet with ?action=getResponses.
func (c *Client) ListResponses(ctx context.Context) ([]domain.ResponseRow, error) {
	var raw []map[string]any
	if err := c.get(ctx, ActionGetResponses, &raw); err != nil {
		return nil, err
	}

	rows := make([]domain.ResponseRow, 0, len(raw))
	for _, r := range raw {
		row := domain.ResponseRow{Columns: map[string]string{}}
		for k, v := range r {
			s := fmt.Sprint(v)
			if v == nil {
				s = ""
			}
			switch k {
			case ColumnTimestamp:
				if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
					row.Timestamp = ts
				}
			case ColumnPathTaken:
				row.PathTaken = s
			default:
				row.Columns[k] = s
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (c *Client) get(ctx context.Context, action string, out any) error {
	u, _ := url.Parse(c.baseURL)
	q := u.Query()
	q.Set("action", action)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	if err := c.do(req, out); err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	return nil
}

// do sends req and decodes a JSON reply into out. The web app reports
// failures as {"error": "..."} bodies, sometimes with status 200.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read reply: %w", err)
	}

	var failure struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &failure) == nil && failure.Error != "" {
		return fmt.Errorf("%w: %s", ErrRemote, failure.Error)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrRemote, resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}
