// Package hosted implements the record store against the hosted HTTP API.
//
// The API is rate-limited, so reads retry transparently with exponential
// backoff. Writes never retry on their own: a failed update is reported to
// the edit engine, which classifies it and lets the operator drive the
// retry with the same change-set.
package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"

	"rollcall/internal/field"
	"rollcall/internal/store"
	"rollcall/internal/types"
)

// Config holds the hosted store connection settings.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the hosted record store.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	fields  *field.Registry
}

// New creates a hosted store client. The registry drives the typed
// decoding of record payloads.
func New(cfg Config, fields *field.Registry) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		fields:  fields,
	}
}

// recordPayload is the hosted API's record representation: raw scalars
// keyed by field name.
type recordPayload struct {
	ID     string                     `json:"id"`
	Fields map[string]json.RawMessage `json:"fields"`
}

// Fetch loads one record, retrying rate-limit and transient server
// failures with exponential backoff.
func (c *Client) Fetch(ctx context.Context, id string) (*types.Record, error) {
	var rec *types.Record
	backoff := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := c.fetchOnce(ctx, id)
		if err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		rec = r
		return nil
	})
	return rec, err
}

func (c *Client) fetchOnce(ctx context.Context, id string) (*types.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.recordURL(id), nil)
	if err != nil {
		return nil, err
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	var payload recordPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("hosted: decoding record %s: %w", id, err)
	}
	return c.decodeRecord(payload)
}

// Update writes one change-set in a single PATCH. Cleared fields are sent
// as explicit nulls.
func (c *Client) Update(ctx context.Context, id string, changes map[types.FieldName]types.Change) error {
	fields := make(map[string]any, len(changes))
	for name, ch := range changes {
		if ch.Cleared {
			fields[string(name)] = nil
			continue
		}
		fields[string(name)] = encodeValue(ch.Value)
	}

	body, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return fmt.Errorf("hosted: encoding update for %s: %w", id, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.recordURL(id), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	return classifyStatus(resp)
}

func (c *Client) recordURL(id string) string {
	return c.baseURL + "/v1/records/" + id
}

func (c *Client) auth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// classifyStatus maps API response codes onto the store error taxonomy.
func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return store.ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return store.ErrRateLimited
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", store.ErrSchemaRejected, readErrorBody(resp))
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", store.ErrUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("hosted: unexpected status %d", resp.StatusCode)
	}
}

func readErrorBody(resp *http.Response) string {
	b, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil || len(b) == 0 {
		return resp.Status
	}
	return string(b)
}

func isTransient(err error) bool {
	return errors.Is(err, store.ErrRateLimited) || errors.Is(err, store.ErrUnavailable)
}

// decodeRecord converts raw scalars into typed values per the registry.
// Fields the registry does not declare are ignored; null values mean the
// field is not set.
func (c *Client) decodeRecord(payload recordPayload) (*types.Record, error) {
	rec := types.NewRecord(payload.ID)
	for _, d := range c.fields.Descriptors() {
		raw, ok := payload.Fields[string(d.Name)]
		if !ok || string(raw) == "null" {
			continue
		}
		v, err := decodeValue(d, raw)
		if err != nil {
			return nil, fmt.Errorf("hosted: record %s field %s: %w", payload.ID, d.Name, err)
		}
		rec.Values[d.Name] = v
	}
	return rec, nil
}

func decodeValue(d *field.Descriptor, raw json.RawMessage) (types.Value, error) {
	switch d.Kind {
	case field.KindBoundedInt:
		var num json.Number
		if err := json.Unmarshal(raw, &num); err != nil {
			return types.Value{}, err
		}
		n, err := strconv.Atoi(num.String())
		if err != nil {
			return types.Value{}, err
		}
		return types.IntValue(n), nil
	case field.KindDate:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return types.Value{}, err
		}
		t, err := time.Parse(types.DateLayout, s)
		if err != nil {
			return types.Value{}, err
		}
		return types.DateValue(t), nil
	default:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return types.Value{}, err
		}
		return types.TextValue(s), nil
	}
}

func encodeValue(v types.Value) any {
	switch v.Kind {
	case types.KindInt:
		return v.Int
	case types.KindDate:
		return v.Date.Format(types.DateLayout)
	default:
		return v.Text
	}
}
