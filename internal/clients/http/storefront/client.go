package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"golang.org/x/time/rate"

	apierrors "github.com/Apurer/storefront-client/internal/shared/errors"
)

// DefaultBaseURL matches the development API the storefront ships against.
const DefaultBaseURL = "http://localhost:5000/api"

const maxBodyBytes = 8 << 20

// TokenSource supplies the bearer token attached to outgoing requests.
type TokenSource interface {
	Get(ctx context.Context) (string, bool, error)
}

// Client is the single HTTP gateway to the storefront API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTokenSource attaches a bearer token to every request when one is available.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) { c.tokens = tokens }
}

// WithRateLimit caps outgoing requests per second. Zero disables the limiter.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger used for response-shape warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// RequestOption configures a single call.
type RequestOption func(*requestOptions)

type requestOptions struct {
	idempotencyKey string
}

// WithIdempotencyKey sets the Idempotency-Key header for the request.
func WithIdempotencyKey(key string) RequestOption {
	return func(opts *requestOptions) {
		opts.idempotencyKey = strings.TrimSpace(key)
	}
}

// NewClient instantiates the gateway with sane defaults.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("storefront base URL is required")
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("storefront base URL must be http(s): %q", baseURL)
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BaseURL returns the configured endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body, err := c.do(ctx, "login", http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password})
	if err != nil {
		return LoginResult{}, err
	}
	result, err := decodeObject[LoginResult](body, "data")
	if err != nil {
		return LoginResult{}, err
	}
	result.Token = strings.TrimSpace(result.Token)
	if result.Token == "" {
		return LoginResult{}, fmt.Errorf("%w: login response carried no token", ErrDecode)
	}
	return result, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, input RegisterInput) error {
	_, err := c.do(ctx, "register", http.MethodPost, "/auth/register", input)
	return err
}

// ListProducts returns the catalog regardless of the envelope it was served in.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	body, err := c.do(ctx, "list products", http.MethodGet, "/products", nil)
	if err != nil {
		return nil, err
	}
	products := decodeListLogged[Product](ctx, c, "list products", body, productFields...)
	for i := range products {
		products[i] = products[i].Canonical()
	}
	return products, nil
}

// CreateProduct adds a product to the catalog.
func (c *Client) CreateProduct(ctx context.Context, input ProductInput) (Product, error) {
	if input.ProductName == "" {
		input.ProductName = input.Name
	}
	if input.Name == "" {
		input.Name = input.ProductName
	}
	body, err := c.do(ctx, "create product", http.MethodPost, "/products", input)
	if err != nil {
		return Product{}, err
	}
	return decodeObjectLogged[Product](ctx, c, "create product", body, "data", "product").Canonical(), nil
}

// ListOrders returns every transaction visible to the caller.
func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	body, err := c.do(ctx, "list orders", http.MethodGet, "/transactions", nil)
	if err != nil {
		return nil, err
	}
	return decodeListLogged[Order](ctx, c, "list orders", body, transactionFields...), nil
}

// OrderSummary returns the summary view of the caller's transactions.
func (c *Client) OrderSummary(ctx context.Context) ([]Order, error) {
	body, err := c.do(ctx, "order summary", http.MethodGet, "/transactions/summary", nil)
	if err != nil {
		return nil, err
	}
	return decodeListLogged[Order](ctx, c, "order summary", body, summaryFields...), nil
}

// CreateOrder submits a transaction on behalf of userID.
func (c *Client) CreateOrder(ctx context.Context, userID string, order CreateOrderBody, optFns ...RequestOption) (Order, error) {
	order.UserID = userID
	body, err := c.do(ctx, "create order", http.MethodPost, "/transactions", order, optFns...)
	if err != nil {
		return Order{}, err
	}
	return decodeObjectLogged[Order](ctx, c, "create order", body, "data", "transaction"), nil
}

// DeleteOrder removes a transaction by id.
func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("order id is required")
	}
	pathParam, err := runtime.StyleParamWithLocation("simple", false, "id", runtime.ParamLocationPath, id)
	if err != nil {
		return fmt.Errorf("encode order id: %w", err)
	}
	_, err = c.do(ctx, "delete order", http.MethodDelete, "/transactions/"+pathParam, nil)
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any, optFns ...RequestOption) ([]byte, error) {
	var opts requestOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if opts.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", opts.idempotencyKey)
	}
	if token, ok := c.bearer(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Op: op, Err: err}
		}
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Op: op, Status: res.StatusCode, Err: err}
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, &TransportError{Op: op, Status: res.StatusCode, Problem: apierrors.Decode(body, res.StatusCode)}
	}
	return body, nil
}

func (c *Client) bearer(ctx context.Context) (string, bool) {
	if c.tokens == nil {
		return "", false
	}
	token, ok, err := c.tokens.Get(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "credential store unavailable, sending unauthenticated request", slog.String("error", err.Error()))
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

func decodeListLogged[T any](ctx context.Context, c *Client, op string, body []byte, fields ...string) []T {
	items, shape, skipped := decodeList[T](body, fields...)
	if shape == ShapeUnknown {
		c.logger.WarnContext(ctx, "unrecognized list envelope, using empty list",
			slog.String("op", op), slog.Any("error", ErrDecode))
	}
	if skipped > 0 {
		c.logger.WarnContext(ctx, "skipped malformed list entries",
			slog.String("op", op), slog.Int("skipped", skipped))
	}
	return items
}

// decodeObjectLogged treats an undecodable 2xx body as an empty record: the
// status already confirmed the mutation.
func decodeObjectLogged[T any](ctx context.Context, c *Client, op string, body []byte, fields ...string) T {
	v, err := decodeObject[T](body, fields...)
	if err != nil {
		c.logger.WarnContext(ctx, "unrecognized response body", slog.String("op", op), slog.String("error", err.Error()))
	}
	return v
}
