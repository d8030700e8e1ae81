// Package infisical is a minimal client for the Infisical REST API
// covering the operations sync needs: universal-auth login, secret CRUD,
// folder CRUD, and secret-import CRUD. All calls are synchronous; any
// non-success response fails that one call.
package infisical

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

const (
	// httpClientTimeout is the timeout for the default HTTP client used
	// when no custom client is provided. This is the only timeout; a hung
	// call blocks the run until the transport gives up.
	httpClientTimeout = 30 * time.Second

	// maxAPIResponseBytes caps response body reads so a misbehaving
	// server cannot consume unbounded memory.
	maxAPIResponseBytes = 1024 * 1024

	// sharedSecretType is the secret type used for all writes. Personal
	// overrides are never created by sync.
	sharedSecretType = "shared"
)

// TokenStore persists the session token across runs. A nil TokenStore
// keeps the token in memory only.
type TokenStore interface {
	Token() string
	SetToken(token string) error
}

// Config holds the connection settings for a Client.
type Config struct {
	Server       string
	ClientID     string
	ClientSecret string
	ProjectID    string

	// HTTPClient overrides the default 30-second-timeout client.
	HTTPClient *http.Client

	// Tokens, when non-nil, caches the session token across process runs.
	Tokens TokenStore

	Logger *slog.Logger
}

// Client talks to the Infisical REST API. The session token is fetched
// lazily on the first call and cached for the process lifetime; a 401 on
// any call triggers exactly one re-login before the call is retried.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	projectID    string
	tokens       TokenStore
	token        string
	logger       *slog.Logger
}

// New creates a client. The server URL's trailing slash is stripped.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: httpClientTimeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient:   httpClient,
		baseURL:      strings.TrimRight(cfg.Server, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		projectID:    cfg.ProjectID,
		tokens:       cfg.Tokens,
		logger:       logger,
	}
}

// ProjectID returns the configured project identifier.
func (c *Client) ProjectID() string {
	return c.projectID
}

// sanitizeResponseBody truncates and sanitizes a response body for
// inclusion in error messages. Limits to 256 bytes and replaces
// non-printable characters to prevent log injection.
func sanitizeResponseBody(body []byte) string {
	const maxLen = 256
	if len(body) > maxLen {
		body = body[:maxLen]
	}

	var clean []byte

	for len(body) > 0 {
		r, size := utf8.DecodeRune(body)
		if r == utf8.RuneError && size <= 1 {
			clean = append(clean, '?')
			body = body[1:]

			continue
		}

		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			clean = append(clean, '?')
		} else {
			clean = append(clean, body[:size]...)
		}

		body = body[size:]
	}

	return string(clean)
}

// login exchanges the client credentials for a bearer token. A non-2xx
// response is fatal (ErrAuth).
func (c *Client) login(ctx context.Context) (string, error) {
	payload, err := json.Marshal(loginRequest{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
	})
	if err != nil {
		return "", fmt.Errorf("marshalling login request: %w", err)
	}

	endpoint := "/api/v1/auth/universal-auth/login"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating login request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: sending login request: %w", ErrAuth, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: reading login response: %w", ErrAuth, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d: %s", ErrAuth, resp.StatusCode, sanitizeResponseBody(body))
	}

	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return "", fmt.Errorf("%w: decoding login response: %w", ErrAuth, err)
	}

	if lr.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token in login response", ErrAuth)
	}

	return lr.AccessToken, nil
}

// ensureToken returns the session token, fetching it lazily. A token
// cached by a previous run is tried first.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	if c.token != "" {
		return c.token, nil
	}

	if c.tokens != nil {
		if cached := c.tokens.Token(); cached != "" {
			c.logger.Debug("using cached session token")
			c.token = cached

			return cached, nil
		}
	}

	return c.refreshToken(ctx)
}

// refreshToken logs in fresh and replaces the cached token.
func (c *Client) refreshToken(ctx context.Context) (string, error) {
	c.logger.Debug("logging in", slog.String("client_id", c.clientID))

	token, err := c.login(ctx)
	if err != nil {
		return "", err
	}

	c.token = token

	if c.tokens != nil {
		if err := c.tokens.SetToken(token); err != nil {
			c.logger.Warn("failed to persist session token", slog.String("error", err.Error()))
		}
	}

	return token, nil
}

// do sends an authenticated JSON request and decodes the response into
// result. On a 401 it re-logs-in once and retries the call once; a second
// rejection surfaces ErrAuth. 404 responses map to ErrNotFound so callers
// can suppress them on idempotent deletes.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body, result any) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	status, respBody, err := c.send(ctx, method, endpoint, query, body, token)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		// The cached token was rejected mid-run. Explicit refresh, one
		// retry, no loop.
		c.logger.Info("session token rejected, logging in again")

		token, err = c.refreshToken(ctx)
		if err != nil {
			return err
		}

		status, respBody, err = c.send(ctx, method, endpoint, query, body, token)
		if err != nil {
			return err
		}

		if status == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s %s rejected after re-login", ErrAuth, method, endpoint)
		}
	}

	if status == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, endpoint, ErrNotFound)
	}

	if status < 200 || status > 299 {
		return &APIError{
			Method:   method,
			Endpoint: endpoint,
			Status:   status,
			Message:  errorMessage(respBody),
		}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response from %s: %w", endpoint, err)
		}
	}

	return nil
}

// send performs one HTTP round trip and returns the status and body.
func (c *Client) send(ctx context.Context, method, endpoint string, query url.Values, body any, token string) (int, []byte, error) {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshalling request body: %w", err)
		}

		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("sending request to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("reading response from %s: %w", endpoint, err)
	}

	return resp.StatusCode, respBody, nil
}

// errorMessage extracts a human-readable message from an error body
// without committing to a response schema.
func errorMessage(body []byte) string {
	if msg := gjson.GetBytes(body, "message").Str; msg != "" {
		return msg
	}

	if msg := gjson.GetBytes(body, "error").Str; msg != "" {
		return msg
	}

	return sanitizeResponseBody(body)
}

// GetProject returns the project details, including its environments.
// Used as the connectivity and credential check at run start.
func (c *Client) GetProject(ctx context.Context) (*Project, error) {
	var resp workspaceResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/workspace/"+c.projectID, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching project: %w", err)
	}

	return &resp.Workspace, nil
}

// ListEnvironments returns the project's environments.
func (c *Client) ListEnvironments(ctx context.Context) ([]Environment, error) {
	project, err := c.GetProject(ctx)
	if err != nil {
		return nil, err
	}

	return project.Environments, nil
}

// CreateEnvironment creates an environment with the given slug.
func (c *Client) CreateEnvironment(ctx context.Context, name, slug string, position int) error {
	endpoint := "/api/v1/projects/" + c.projectID + "/environments"

	req := createEnvironmentRequest{Name: name, Slug: slug, Position: position}
	if err := c.do(ctx, http.MethodPost, endpoint, nil, req, nil); err != nil {
		return fmt.Errorf("creating environment %s: %w", slug, err)
	}

	return nil
}

// DeleteEnvironment deletes an environment by slug.
func (c *Client) DeleteEnvironment(ctx context.Context, slug string) error {
	endpoint := "/api/v1/projects/" + c.projectID + "/environments/" + slug
	if err := c.do(ctx, http.MethodDelete, endpoint, nil, nil, nil); err != nil {
		return fmt.Errorf("deleting environment %s: %w", slug, err)
	}

	return nil
}

// ListSecrets returns the secrets directly under (environment, path).
// When expand is true the store resolves reference expressions into
// their final literal values.
func (c *Client) ListSecrets(ctx context.Context, environment, path string, expand bool) ([]Secret, error) {
	query := url.Values{
		"workspaceId": {c.projectID},
		"environment": {environment},
		"secretPath":  {path},
	}
	if expand {
		query.Set("expandSecretReferences", "true")
	} else {
		query.Set("expandSecretReferences", "false")
	}

	var resp secretsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v3/secrets/raw", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("listing secrets at %s:%s: %w", environment, path, err)
	}

	return resp.Secrets, nil
}

// CreateSecret creates one secret at (environment, path).
func (c *Client) CreateSecret(ctx context.Context, environment, path, key, value string) error {
	req := writeSecretRequest{
		WorkspaceID: c.projectID,
		Environment: environment,
		SecretPath:  path,
		SecretValue: value,
		Type:        sharedSecretType,
	}

	if err := c.do(ctx, http.MethodPost, "/api/v3/secrets/raw/"+url.PathEscape(key), nil, req, nil); err != nil {
		return fmt.Errorf("creating secret %s at %s:%s: %w", key, environment, path, err)
	}

	return nil
}

// UpdateSecret overwrites one secret's value at (environment, path).
func (c *Client) UpdateSecret(ctx context.Context, environment, path, key, value string) error {
	req := writeSecretRequest{
		WorkspaceID: c.projectID,
		Environment: environment,
		SecretPath:  path,
		SecretValue: value,
		Type:        sharedSecretType,
	}

	if err := c.do(ctx, http.MethodPatch, "/api/v3/secrets/raw/"+url.PathEscape(key), nil, req, nil); err != nil {
		return fmt.Errorf("updating secret %s at %s:%s: %w", key, environment, path, err)
	}

	return nil
}

// DeleteSecret deletes one secret at (environment, path).
func (c *Client) DeleteSecret(ctx context.Context, environment, path, key string) error {
	req := deleteSecretRequest{
		WorkspaceID: c.projectID,
		Environment: environment,
		SecretPath:  path,
		Type:        sharedSecretType,
	}

	if err := c.do(ctx, http.MethodDelete, "/api/v3/secrets/raw/"+url.PathEscape(key), nil, req, nil); err != nil {
		return fmt.Errorf("deleting secret %s at %s:%s: %w", key, environment, path, err)
	}

	return nil
}

// ListFolders returns the child folders of (environment, path).
func (c *Client) ListFolders(ctx context.Context, environment, path string) ([]Folder, error) {
	query := url.Values{
		"workspaceId": {c.projectID},
		"environment": {environment},
		"path":        {path},
	}

	var resp foldersResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/folders", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("listing folders at %s:%s: %w", environment, path, err)
	}

	return resp.Folders, nil
}

// CreateFolder creates a named child folder under (environment, path).
func (c *Client) CreateFolder(ctx context.Context, environment, parentPath, name string) error {
	req := createFolderRequest{
		WorkspaceID: c.projectID,
		Environment: environment,
		Name:        name,
		Path:        parentPath,
	}

	if err := c.do(ctx, http.MethodPost, "/api/v1/folders", nil, req, nil); err != nil {
		return fmt.Errorf("creating folder %s under %s:%s: %w", name, environment, parentPath, err)
	}

	return nil
}

// DeleteFolder deletes a folder by its identifier. The parent path is
// required by the store to locate the folder.
func (c *Client) DeleteFolder(ctx context.Context, environment, folderID, parentPath string) error {
	req := deleteFolderRequest{
		WorkspaceID: c.projectID,
		Environment: environment,
		Directory:   parentPath,
	}

	if err := c.do(ctx, http.MethodDelete, "/api/v1/folders/"+url.PathEscape(folderID), nil, req, nil); err != nil {
		return fmt.Errorf("deleting folder %s under %s:%s: %w", folderID, environment, parentPath, err)
	}

	return nil
}

// ListImports returns the inheritance edges rooted at (environment, path).
func (c *Client) ListImports(ctx context.Context, environment, path string) ([]SecretImport, error) {
	query := url.Values{
		"workspaceId": {c.projectID},
		"environment": {environment},
		"path":        {path},
	}

	var resp importsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/secret-imports", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("listing imports at %s:%s: %w", environment, path, err)
	}

	imports := make([]SecretImport, 0, len(resp.SecretImports))
	for _, w := range resp.SecretImports {
		imports = append(imports, SecretImport{
			ID:          w.ID,
			Environment: w.ImportEnv.Slug,
			Path:        w.ImportPath,
		})
	}

	return imports, nil
}

// CreateImport creates an inheritance edge from (environment, path) to
// (sourceEnv, sourcePath).
func (c *Client) CreateImport(ctx context.Context, environment, path, sourceEnv, sourcePath string) error {
	req := createImportRequest{
		ProjectID:   c.projectID,
		Environment: environment,
		Path:        path,
		Import: importEnvTarget{
			Environment: sourceEnv,
			Path:        sourcePath,
		},
	}

	if err := c.do(ctx, http.MethodPost, "/api/v2/secret-imports", nil, req, nil); err != nil {
		return fmt.Errorf("creating import %s:%s <- %s:%s: %w", environment, path, sourceEnv, sourcePath, err)
	}

	return nil
}

// DeleteImport deletes one inheritance edge by identifier.
func (c *Client) DeleteImport(ctx context.Context, environment, path, importID string) error {
	query := url.Values{
		"workspaceId": {c.projectID},
		"environment": {environment},
		"path":        {path},
	}

	if err := c.do(ctx, http.MethodDelete, "/api/v1/secret-imports/"+url.PathEscape(importID), query, nil, nil); err != nil {
		return fmt.Errorf("deleting import %s at %s:%s: %w", importID, environment, path, err)
	}

	return nil
}
