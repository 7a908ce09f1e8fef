package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"golang.org/x/sync/errgroup"
)

// DefaultEndpoint is the form upload URL used when none is configured
const DefaultEndpoint = "http://up-z2.qiniu.com/"

// maxResponseBytes bounds how much of a reply body is read
const maxResponseBytes = 1 << 20

// TokenSource supplies the upload token sent with each request.
// *token.Signer satisfies it.
type TokenSource interface {
	Token() (string, error)
}

// Result describes a stored upload
type Result struct {
	Key      string `json:"key"`
	Hash     string `json:"hash,omitempty"`
	Resource string `json:"resource"`
}

// Client posts files to the upload service as multipart forms
type Client struct {
	tokens       TokenSource
	endpoint     string
	domain       string
	httpClient   *http.Client
	keys         KeyGenerator
	progressFunc ProgressFunc
	logger       *slog.Logger
}

// New creates an upload client that authorizes requests with tokens
func New(tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		tokens:     tokens,
		endpoint:   DefaultEndpoint,
		httpClient: http.DefaultClient,
		keys:       NewTimestampKeys(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Endpoint returns the upload service URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Upload sends one source to the upload service.
// No retry is attempted; transport failures and non-2xx replies are
// returned as *TransportError.
//
// Example:
//
//	res, err := client.Upload(ctx, upload.File("./avatar.png"))
//	// res.Resource: "cdn.example.com/169678901242"
func (c *Client) Upload(ctx context.Context, src Source) (*Result, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to get upload token: %w", err)
	}

	body, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", src.Name(), err)
	}
	defer body.Close()

	var content io.Reader = body
	if c.progressFunc != nil {
		content = &progressReader{
			reader:   body,
			name:     src.Name(),
			callback: c.progressFunc,
		}
	}

	key := c.keys.GenerateKey()
	c.logger.Debug("uploading file", "name", src.Name(), "key", key, "endpoint", c.endpoint)

	// Stream the form instead of buffering the whole file
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(form, key, tok, src.Name(), content))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, pr)
	if err != nil {
		pr.CloseWithError(err)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "post", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: "read response", StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Op:         "post",
			StatusCode: resp.StatusCode,
			Err:        errors.New(serviceMessage(data, resp.Status)),
		}
	}

	var reply struct {
		Key  string `json:"key"`
		Hash string `json:"hash"`
	}
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseFormat, err)
	}
	if reply.Key == "" {
		return nil, fmt.Errorf("%w: missing key field", ErrResponseFormat)
	}

	res := &Result{
		Key:      reply.Key,
		Hash:     reply.Hash,
		Resource: ResourcePath(c.domain, reply.Key),
	}
	c.logger.Info("uploaded file", "name", src.Name(), "key", res.Key, "resource", res.Resource)

	return res, nil
}

// UploadAll uploads sources with at most limit requests in flight (no limit
// when limit <= 0). Results are in input order. The first failure cancels
// the remaining uploads and is returned.
func (c *Client) UploadAll(ctx context.Context, sources []Source, limit int) ([]*Result, error) {
	results := make([]*Result, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			res, err := c.Upload(ctx, src)
			if err != nil {
				return fmt.Errorf("%s: %w", src.Name(), err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func writeForm(form *multipart.Writer, key, tok, name string, content io.Reader) error {
	if err := form.WriteField("key", key); err != nil {
		return err
	}
	if err := form.WriteField("token", tok); err != nil {
		return err
	}

	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	return form.Close()
}

// serviceMessage extracts the "error" field the service puts in failure replies
func serviceMessage(data []byte, status string) string {
	var reply struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &reply); err == nil && reply.Error != "" {
		return reply.Error
	}
	return status
}
