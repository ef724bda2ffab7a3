package observatory

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// authHeader carries the opaque session token on every authenticated call.
const authHeader = "X-OBSERVATORY-AUTH"

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client wraps the remote observatory toll API. One method per backend
// operation; every method classifies failures into the unauthorized /
// api-error / no-response buckets before returning.
type Client struct {
	baseURL string
	client  HTTPDoer
	logger  *zap.Logger
}

// NewClient builds the API client on top of the provided HTTP client.
func NewClient(baseURL string, httpClient HTTPDoer, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		logger:  logger,
	}
}

// NewDefaultHTTPClient returns *http.Client with timeout.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, 0, len(segments)+1)
	escaped = append(escaped, "api")
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

// do executes a request and returns status plus raw body. Non-2xx statuses
// are already classified: 401 becomes ErrUnauthorized, everything else an
// *APIError carrying the server-supplied message when one was decodable.
func (c *Client) do(ctx context.Context, method, rawURL, token, contentType string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return 0, nil, err
	}
	if token != "" {
		req.Header.Set(authHeader, token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("observatory request failed", zap.String("url", rawURL), zap.Error(err))
		return 0, nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &TransportError{Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return resp.StatusCode, respBody, ErrUnauthorized
	}
	if resp.StatusCode >= 300 {
		c.logger.Warn("observatory returned non-success",
			zap.String("url", rawURL), zap.Int("status", resp.StatusCode))
		return resp.StatusCode, respBody, &APIError{Status: resp.StatusCode, Message: serverMessage(respBody)}
	}
	return resp.StatusCode, respBody, nil
}

func serverMessage(body []byte) string {
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Info
}

// Login posts credentials form-encoded and returns the opaque token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	_, body, err := c.do(ctx, http.MethodPost, c.endpoint("login"), "",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}

	var payload loginResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &APIError{Status: http.StatusOK, Message: "malformed login response"}
	}
	if payload.Token == "" {
		return "", &APIError{Status: http.StatusOK, Message: "login response missing token"}
	}
	return payload.Token, nil
}

// Logout invalidates the token server-side.
func (c *Client) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoToken
	}
	_, _, err := c.do(ctx, http.MethodPost, c.endpoint("logout"), token, "", nil)
	return err
}

// OperatorID resolves the operator id the given username belongs to.
func (c *Client) OperatorID(ctx context.Context, token, username string) (string, error) {
	if token == "" {
		return "", ErrNoToken
	}
	_, body, err := c.do(ctx, http.MethodGet, c.endpoint("operatorID", username), token, "", nil)
	if err != nil {
		return "", err
	}

	var payload operatorIDResponse
	if err := json.Unmarshal(body, &payload); err != nil || payload.OpID == "" {
		return "", &APIError{Status: http.StatusOK, Message: "malformed operator id response"}
	}
	return payload.OpID, nil
}

// PassSummary fetches toll stations with pass statistics for the operator
// and date range. Dates must already be normalized to YYYYMMDD. An empty
// station list is reported as ErrNoData, not as a failure.
func (c *Client) PassSummary(ctx context.Context, token, operatorID, from, to string) ([]TollStation, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	status, body, err := c.do(ctx, http.MethodGet,
		c.endpoint("operatorPassSummary", operatorID, from, to), token, "", nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, ErrNoData
	}

	var payload passSummaryResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &APIError{Status: status, Message: "malformed pass summary response"}
	}
	if len(payload.TollStations) == 0 {
		return nil, ErrNoData
	}
	return payload.TollStations, nil
}

// OwedBy lists debts the operator owes per counterparty for the date range.
// HTTP 204 means no debts and is reported as ErrNoData.
func (c *Client) OwedBy(ctx context.Context, token, operatorID, from, to string) ([]DebtEntry, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	status, body, err := c.do(ctx, http.MethodGet,
		c.endpoint("owedBy", operatorID, from, to), token, "", nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, ErrNoData
	}

	var payload owedByResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &APIError{Status: status, Message: "malformed debts response"}
	}
	return payload.TOpList, nil
}

// SettleDebts settles what the operator owes the counterparty in the date
// range. HTTP 204 means there was nothing to settle (ErrNoData).
func (c *Client) SettleDebts(ctx context.Context, token, operatorID, counterpartyID, from, to string) error {
	if token == "" {
		return ErrNoToken
	}
	status, _, err := c.do(ctx, http.MethodPost,
		c.endpoint("settleDebts", operatorID, counterpartyID, from, to), token, "", nil)
	if err != nil {
		return err
	}
	if status == http.StatusNoContent {
		return ErrNoData
	}
	return nil
}

// HealthCheck reads backend health counters. Interpreting a non-OK status
// is left to the caller; transport-wise the call succeeded.
func (c *Client) HealthCheck(ctx context.Context, token string) (Health, error) {
	if token == "" {
		return Health{}, ErrNoToken
	}
	_, body, err := c.do(ctx, http.MethodGet, c.endpoint("admin", "healthcheck"), token, "", nil)
	if err != nil {
		return Health{}, err
	}

	var payload Health
	if err := json.Unmarshal(body, &payload); err != nil || payload.Status == "" {
		return Health{}, &APIError{Status: http.StatusOK, Message: "malformed healthcheck response"}
	}
	return payload, nil
}

// ResetStations reinitializes station data.
func (c *Client) ResetStations(ctx context.Context, token string) error {
	return c.adminAction(ctx, token, c.endpoint("admin", "resetstations"), "", nil)
}

// ResetPasses clears all pass records.
func (c *Client) ResetPasses(ctx context.Context, token string) error {
	return c.adminAction(ctx, token, c.endpoint("admin", "resetpasses"), "", nil)
}

// AddPasses uploads a CSV of pass records as multipart form data.
func (c *Client) AddPasses(ctx context.Context, token, filename string, file io.Reader) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return c.adminAction(ctx, token, c.endpoint("admin", "addpasses"), writer.FormDataContentType(), &buf)
}

// adminAction runs a reset/upload style call whose success is decided by
// the payload status field, not HTTP status alone.
func (c *Client) adminAction(ctx context.Context, token, rawURL, contentType string, body io.Reader) error {
	if token == "" {
		return ErrNoToken
	}
	status, respBody, err := c.do(ctx, http.MethodPost, rawURL, token, contentType, body)
	if err != nil {
		return err
	}

	var payload actionResponse
	if err := json.Unmarshal(respBody, &payload); err != nil || payload.Status == "" {
		return &APIError{Status: status, Message: "unexpected response from the server"}
	}
	if payload.Status != "OK" {
		return &APIError{Status: status, Message: payload.Info}
	}
	return nil
}
