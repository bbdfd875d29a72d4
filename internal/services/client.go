package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pgbackups/internal/models"
	"github.com/desertthunder/pgbackups/internal/shared"
)

// ClientVersion is sent with every request; the service refuses clients it no longer supports.
const ClientVersion = "1"

const clientVersionHeader = "Heroku-Client-Version"

// JobClient creates and inspects remote transfers and backups.
type JobClient interface {
	// CreateTransfer starts a job copying fromURL to toURL. A nil error does not mean the service accepted it:
	// validation failures come back in [models.Transfer.Errors].
	CreateTransfer(ctx context.Context, fromURL, toURL string, opts models.TransferOptions) (*models.Transfer, error)

	// GetTransfer returns the current snapshot of one transfer.
	GetTransfer(ctx context.Context, id string) (*models.Transfer, error)

	// GetTransfers lists every transfer for the app.
	GetTransfers(ctx context.Context) ([]*models.Transfer, error)

	// GetBackup looks up a backup by name.
	GetBackup(ctx context.Context, name string) (*models.Transfer, error)

	// GetLatestBackup returns the most recent backup.
	GetLatestBackup(ctx context.Context) (*models.Transfer, error)

	// DeleteBackup removes a backup, reporting false when it does not exist.
	DeleteBackup(ctx context.Context, name string) (bool, error)
}

func transferForm(fromURL, toURL string, o models.TransferOptions) url.Values {
	v := url.Values{}
	v.Set("from_url", fromURL)
	v.Set("to_url", toURL)
	if o.FromName != "" {
		v.Set("from_name", o.FromName)
	}
	if o.ToName != "" {
		v.Set("to_name", o.ToName)
	}
	return v
}

// Client implements [JobClient] over the service's HTTP API.
type Client struct {
	baseURL    string
	user       string
	password   string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates a client for serviceURL, which carries the basic auth credentials in its userinfo.
func NewClient(serviceURL string, httpClient *http.Client, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(serviceURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid service URL: %v", shared.ErrInvalidConfig, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: service URL %q must include scheme and host", shared.ErrInvalidConfig, u.Redacted())
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	c := &Client{
		baseURL:    u.Scheme + "://" + u.Host,
		httpClient: httpClient,
		logger:     logger,
	}
	if u.User != nil {
		c.user = u.User.Username()
		c.password, _ = u.User.Password()
	}
	return c, nil
}

// BaseURL returns the service URL without credentials.
func (c *Client) BaseURL() string { return c.baseURL }

// CreateTransfer posts a new transfer as form parameters.
func (c *Client) CreateTransfer(ctx context.Context, fromURL, toURL string, opts models.TransferOptions) (*models.Transfer, error) {
	var t models.Transfer
	body := strings.NewReader(transferForm(fromURL, toURL, opts).Encode())
	if _, err := c.doRequest(ctx, http.MethodPost, "/client/transfers", body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTransfer fetches GET /client/transfers/{id}.
func (c *Client) GetTransfer(ctx context.Context, id string) (*models.Transfer, error) {
	var t models.Transfer
	if _, err := c.doRequest(ctx, http.MethodGet, "/client/transfers/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTransfers fetches GET /client/transfers.
func (c *Client) GetTransfers(ctx context.Context) ([]*models.Transfer, error) {
	var ts []*models.Transfer
	if _, err := c.doRequest(ctx, http.MethodGet, "/client/transfers", nil, &ts); err != nil {
		return nil, err
	}
	return ts, nil
}

// GetBackup fetches GET /client/backups/{name}.
func (c *Client) GetBackup(ctx context.Context, name string) (*models.Transfer, error) {
	var t models.Transfer
	if _, err := c.doRequest(ctx, http.MethodGet, "/client/backups/"+escapeName(name), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetLatestBackup fetches GET /client/latest_backup.
func (c *Client) GetLatestBackup(ctx context.Context) (*models.Transfer, error) {
	var t models.Transfer
	if _, err := c.doRequest(ctx, http.MethodGet, "/client/latest_backup", nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteBackup sends DELETE /client/backups/{name}.
func (c *Client) DeleteBackup(ctx context.Context, name string) (bool, error) {
	status, err := c.doRequest(ctx, http.MethodDelete, "/client/backups/"+escapeName(name), nil, nil)
	if status == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// escapeName escapes each segment of a backup name; names such as foo/bar keep their slash.
func escapeName(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

type errorResponse struct {
	Error string `json:"error"`
}

// doRequest performs the request and decodes a 2xx JSON body into result. The status code is returned whenever a
// response was received.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body io.Reader, result any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	if c.user != "" || c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}
	req.Header.Set(clientVersionHeader, ClientVersion)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	c.logger.Debug("request", "method", method, "endpoint", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %v", shared.ErrTransport, method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: failed to read response: %v", shared.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, statusError(method, endpoint, resp.StatusCode, data)
	}

	if result != nil && len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}
	return resp.StatusCode, nil
}

func statusError(method, endpoint string, status int, body []byte) error {
	var errResp errorResponse
	_ = json.Unmarshal(body, &errResp)

	switch {
	case status == http.StatusBadRequest && strings.Contains(errResp.Error, "not using current client version"):
		return fmt.Errorf("%w: %s", shared.ErrVersionMismatch, errResp.Error)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrBackupNotFound, endpoint)
	case errResp.Error != "":
		return fmt.Errorf("%w: %s %s (status %d): %s", shared.ErrAPIRequest, method, endpoint, status, errResp.Error)
	default:
		return fmt.Errorf("%w: %s %s: status %d", shared.ErrAPIRequest, method, endpoint, status)
	}
}
