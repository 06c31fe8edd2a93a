package storefront_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/storefront-client/internal/clients/http/storefront"
	"github.com/Apurer/storefront-client/internal/clients/http/storefront/storefronttest"
	apierrors "github.com/Apurer/storefront-client/internal/shared/errors"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) Get(context.Context) (string, bool, error) {
	return s.token, s.token != "", s.err
}

func newClient(t *testing.T, srv *storefronttest.Server, opts ...storefront.Option) *storefront.Client {
	t.Helper()
	client, err := storefront.NewClient(srv.URL, opts...)
	require.NoError(t, err)
	return client
}

func startServer(t *testing.T) *storefronttest.Server {
	t.Helper()
	srv := storefronttest.New()
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	_, err := storefront.NewClient("  ")
	require.Error(t, err)

	_, err = storefront.NewClient("ftp://example.com")
	require.Error(t, err)

	client, err := storefront.NewClient("http://localhost:5000/api/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/api", client.BaseURL())
}

func TestClient_AttachesBearerWhenTokenPresent(t *testing.T) {
	srv := startServer(t)
	client := newClient(t, srv, storefront.WithTokenSource(staticTokens{token: "abc.def.ghi"}))

	_, err := client.ListProducts(context.Background())
	require.NoError(t, err)

	reqs := srv.RequestsTo("GET /products")
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer abc.def.ghi", reqs[0].Authorization)
	assert.NotEmpty(t, reqs[0].RequestID)
}

func TestClient_SendsUnauthenticatedWithoutToken(t *testing.T) {
	srv := startServer(t)
	client := newClient(t, srv, storefront.WithTokenSource(staticTokens{}))

	_, err := client.ListProducts(context.Background())
	require.NoError(t, err)

	reqs := srv.RequestsTo("GET /products")
	require.Len(t, reqs, 1)
	assert.Empty(t, reqs[0].Authorization)
}

func TestClient_TokenSourceErrorFallsBackToUnauthenticated(t *testing.T) {
	srv := startServer(t)
	client := newClient(t, srv, storefront.WithTokenSource(staticTokens{err: errors.New("disk gone")}))

	_, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, srv.RequestsTo("GET /products")[0].Authorization)
}

func TestListProducts_NormalizesEveryEnvelope(t *testing.T) {
	srv := startServer(t)
	client := newClient(t, srv)
	record := `{"id":7,"code":"KOP-01","name":"Kopi Susu","description":"iced","price":15000,"quantity":12}`
	want := []storefront.Product{{
		ID:          "7",
		Code:        "KOP-01",
		Name:        "Kopi Susu",
		Description: "iced",
		Price:       decimal.NewFromInt(15000),
		Quantity:    12,
	}}

	for name, body := range map[string]string{
		"bare":     `[` + record + `]`,
		"products": `{"products":[` + record + `]}`,
		"data":     `{"data":[` + record + `]}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv.RespondRaw("GET /products", body)
			got, err := client.ListProducts(context.Background())
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, want[0].ID, got[0].ID)
			assert.Equal(t, want[0].Code, got[0].Code)
			assert.Equal(t, want[0].Name, got[0].Name)
			assert.True(t, want[0].Price.Equal(got[0].Price))
			assert.Equal(t, want[0].Quantity, got[0].Quantity)
		})
	}
}

func TestListProducts_UnknownShapeYieldsEmptyList(t *testing.T) {
	srv := startServer(t)
	client := newClient(t, srv)

	for _, body := range []string{`{"items":[{"id":1}]}`, `"oops"`, `not json`, `null`, `{"products":{"id":1}}`} {
		srv.RespondRaw("GET /products", body)
		got, err := client.ListProducts(context.Background())
		require.NoError(t, err, body)
		assert.NotNil(t, got, body)
		assert.Empty(t, got, body)
	}
}

func TestListProducts_SkipsMalformedEntries(t *testing.T) {
	srv := startServer(t)
	client := newClient(t, srv)
	srv.RespondRaw("GET /products", `[{"id":1,"name":"ok","price":10},{"id":2,"price":"abc"},42]`)

	got, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, storefront.ID("1"), got[0].ID)
}

func TestListProducts_FoldsLegacyFieldNames(t *testing.T) {
	srv := startServer(t)
	client := newClient(t, srv)
	srv.RespondRaw("GET /products", `[{"id":"a1","productCode":"LEG-9","productName":"Teh","price":"5000.50","quantity":3}]`)

	got, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "LEG-9", got[0].Code)
	assert.Equal(t, "Teh", got[0].Name)
	assert.Empty(t, got[0].ProductCode)
	assert.True(t, decimal.RequireFromString("5000.50").Equal(got[0].Price))
}

func TestListOrders_NormalizesTransactionsEnvelope(t *testing.T) {
	srv := startServer(t)
	client := newClient(t, srv, storefront.WithTokenSource(staticTokens{token: storefronttest.IssueToken(1, "a@b.c")}))
	srv.AddOrder(storefront.Order{ID: "9", UserID: "1", TotalAmount: decimal.NewFromInt(100)})

	for _, shape := range []storefronttest.ListShape{storefronttest.ShapeTransactions, storefronttest.ShapeData, storefronttest.ShapeBare} {
		srv.SetOrderShape(shape)
		got, err := client.ListOrders(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 1, string(shape))
		assert.Equal(t, storefront.ID("9"), got[0].ID)
	}
}

func TestClient_NonSuccessSurfacesTransportError(t *testing.T) {
	srv := startServer(t)
	client := newClient(t, srv)
	srv.Fail("GET /products", http.StatusServiceUnavailable)

	_, err := client.ListProducts(context.Background())
	require.Error(t, err)
	var te *storefront.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode())
	assert.Equal(t, "injected failure", te.Problem.Detail)
	assert.True(t, storefront.IsStatus(err, http.StatusServiceUnavailable))
}

func TestClient_ServerErrorCarriesInternalProblemType(t *testing.T) {
	srv := startServer(t)
	client := newClient(t, srv)
	srv.Fail("GET /products", http.StatusInternalServerError)

	_, err := client.ListProducts(context.Background())
	var te *storefront.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, apierrors.TypeInternal, te.Problem.Type)
	assert.Equal(t, "Internal Server Error", te.Problem.Title)
	assert.Equal(t, "injected failure", te.Problem.Detail)
}

func TestCreateOrder_InsufficientStockIsValidationProblem(t *testing.T) {
	srv := startServer(t)
	client := newClient(t, srv, storefront.WithTokenSource(staticTokens{token: storefronttest.IssueToken(42, "rina@example.com")}))
	srv.AddProduct(storefront.Product{ID: "1", Code: "KOP-01", Name: "Kopi", Price: decimal.NewFromInt(15000), Quantity: 2})

	_, err := client.CreateOrder(context.Background(), "42", storefront.CreateOrderBody{
		Product: []storefront.OrderItem{{ProductCode: "KOP-01", Quantity: 3}},
	})
	var te *storefront.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadRequest, te.StatusCode())
	assert.Equal(t, apierrors.TypeValidation, te.Problem.Type)
	assert.Equal(t, "insufficient stock for KOP-01", te.Problem.Detail)
	assert.Empty(t, srv.Orders())
}

func TestClient_NetworkFailureSurfacesTransportError(t *testing.T) {
	srv := storefronttest.New()
	client := newClient(t, srv)
	srv.Close()

	_, err := client.ListProducts(context.Background())
	var te *storefront.TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.Status)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestLogin_ReturnsToken(t *testing.T) {
	srv := startServer(t)
	srv.AddUser(storefronttest.User{ID: 42, Email: "rina@example.com", Password: "s3cret"})
	client := newClient(t, srv)

	result, err := client.Login(context.Background(), "rina@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	_, err = client.Login(context.Background(), "rina@example.com", "wrong")
	assert.True(t, storefront.IsUnauthorized(err))
}

func TestLogin_MissingTokenIsDecodeError(t *testing.T) {
	srv := startServer(t)
	client := newClient(t, srv)
	srv.RespondRaw("POST /auth/login", `{"message":"ok"}`)

	_, err := client.Login(context.Background(), "a@b.c", "x")
	require.ErrorIs(t, err, storefront.ErrDecode)
}

func TestCreateOrder_SendsBodyAndIdempotencyKey(t *testing.T) {
	srv := startServer(t)
	token := storefronttest.IssueToken(42, "rina@example.com")
	client := newClient(t, srv, storefront.WithTokenSource(staticTokens{token: token}))
	srv.AddProduct(storefront.Product{ID: "1", Code: "KOP-01", Name: "Kopi", Price: decimal.NewFromInt(15000), Quantity: 10})

	order, err := client.CreateOrder(context.Background(), "42", storefront.CreateOrderBody{
		Customer: "Rina",
		Product:  []storefront.OrderItem{{ProductCode: "KOP-01", Quantity: 3}},
	}, storefront.WithIdempotencyKey("key-1"))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(45000).Equal(order.TotalAmount))
	assert.Equal(t, storefront.ID("42"), order.UserID)

	reqs := srv.RequestsTo("POST /transactions")
	require.Len(t, reqs, 1)
	assert.Equal(t, "key-1", reqs[0].IdempotencyKey)
	assert.JSONEq(t, `{"userId":"42","customer":"Rina","product":[{"productCode":"KOP-01","quantity":3}]}`, reqs[0].Body)
}

func TestCreateProduct_UnwrapsDataEnvelope(t *testing.T) {
	srv := startServer(t)
	client := newClient(t, srv)

	created, err := client.CreateProduct(context.Background(), storefront.ProductInput{
		Name:     "Roti",
		Price:    storefront.PriceNumber(decimal.NewFromInt(8000)),
		Quantity: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "Roti", created.Name)
	assert.NotEmpty(t, created.ID)

	reqs := srv.RequestsTo("POST /products")
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"name":"Roti","productName":"Roti","description":"","price":8000,"quantity":4}`, reqs[0].Body)
}

func TestDeleteOrder(t *testing.T) {
	srv := startServer(t)
	client := newClient(t, srv, storefront.WithTokenSource(staticTokens{token: storefronttest.IssueToken(1, "a@b.c")}))
	srv.AddOrder(storefront.Order{ID: "301"})

	require.NoError(t, client.DeleteOrder(context.Background(), "301"))
	assert.Empty(t, srv.Orders())

	err := client.DeleteOrder(context.Background(), "301")
	assert.True(t, storefront.IsStatus(err, http.StatusNotFound))

	require.Error(t, client.DeleteOrder(context.Background(), " "))
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	srv := startServer(t)
	client := newClient(t, srv, storefront.WithRateLimit(0.001, 1))

	_, err := client.ListProducts(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.ListProducts(ctx)
	var te *storefront.TransportError
	require.ErrorAs(t, err, &te)
	assert.Len(t, srv.RequestsTo("GET /products"), 1)
}

func TestID_UnmarshalNumberOrString(t *testing.T) {
	var id storefront.ID
	require.NoError(t, id.UnmarshalJSON([]byte(`12`)))
	assert.Equal(t, storefront.ID("12"), id)
	require.NoError(t, id.UnmarshalJSON([]byte(`" x-1 "`)))
	assert.Equal(t, storefront.ID("x-1"), id)
	require.NoError(t, id.UnmarshalJSON([]byte(`null`)))
	assert.Equal(t, storefront.ID(""), id)
	require.Error(t, id.UnmarshalJSON([]byte(`{}`)))
}
