// Package storefronttest runs an in-process storefront API for tests.
package storefronttest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"github.com/Apurer/storefront-client/internal/clients/http/storefront"
	apierrors "github.com/Apurer/storefront-client/internal/shared/errors"
)

// Secret signs the tokens the fake API issues.
var Secret = []byte("storefronttest-secret")

// ListShape selects how list endpoints wrap their payload.
type ListShape string

const (
	ShapeBare         ListShape = "bare"
	ShapeProducts     ListShape = "products"
	ShapeData         ListShape = "data"
	ShapeTransactions ListShape = "transactions"
)

// User is an account known to the fake API.
type User struct {
	ID          int64
	Email       string
	Password    string
	PhoneNumber string
	Name        string
}

// Request records what the client sent.
type Request struct {
	Method         string
	Path           string
	Authorization  string
	IdempotencyKey string
	RequestID      string
	Body           string
}

// Server is a gin-backed fake of the storefront API.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	users        map[string]User
	products     []storefront.Product
	orders       []storefront.Order
	productShape ListShape
	orderShape   ListShape
	failures     map[string]int
	rawBodies    map[string]string
	requests     []Request
	nextUserID   int64
	nextOrderID  int64
}

// New starts the fake API. Close it with t.Cleanup(srv.Close).
func New() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		users:        map[string]User{},
		productShape: ShapeProducts,
		orderShape:   ShapeTransactions,
		failures:     map[string]int{},
		rawBodies:    map[string]string{},
		nextUserID:   100,
		nextOrderID:  300,
	}
	router := gin.New()
	router.Use(s.record, s.inject)
	router.POST("/auth/login", s.login)
	router.POST("/auth/register", s.register)
	router.GET("/products", s.listProducts)
	router.POST("/products", s.createProduct)
	authed := router.Group("/", s.requireBearer)
	authed.GET("/transactions", s.listOrders)
	authed.GET("/transactions/summary", s.summary)
	authed.POST("/transactions", s.createOrder)
	authed.DELETE("/transactions/:id", s.deleteOrder)
	s.Server = httptest.NewServer(router)
	return s
}

// AddUser registers an account directly.
func (s *Server) AddUser(u User) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		s.nextUserID++
		u.ID = s.nextUserID
	}
	s.users[u.Email] = u
	return u
}

// AddProduct appends a catalog entry.
func (s *Server) AddProduct(p storefront.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, p)
}

// SetProducts replaces the catalog.
func (s *Server) SetProducts(products ...storefront.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append([]storefront.Product(nil), products...)
}

// Products returns a copy of the catalog.
func (s *Server) Products() []storefront.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storefront.Product(nil), s.products...)
}

// AddOrder appends a persisted order.
func (s *Server) AddOrder(o storefront.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, o)
}

// Orders returns a copy of the persisted orders.
func (s *Server) Orders() []storefront.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storefront.Order(nil), s.orders...)
}

// SetProductShape selects the GET /products envelope.
func (s *Server) SetProductShape(shape ListShape) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.productShape = shape
}

// SetOrderShape selects the GET /transactions envelope.
func (s *Server) SetOrderShape(shape ListShape) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderShape = shape
}

// Fail makes route ("METHOD /path") answer with status until Reset.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = status
}

// RespondRaw makes route answer 200 with body verbatim until Reset.
func (s *Server) RespondRaw(route, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawBodies[route] = body
}

// Reset clears injected failures and raw bodies.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]int{}
	s.rawBodies = map[string]string{}
}

// Requests returns every recorded request.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo returns the recorded requests for route.
func (s *Server) RequestsTo(route string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method+" "+r.Path == route {
			out = append(out, r)
		}
	}
	return out
}

// IssueToken signs a token for userID the way the login endpoint does.
func IssueToken(userID int64, email string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"id":    userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(Secret)
	if err != nil {
		panic(fmt.Sprintf("sign token: %v", err))
	}
	return signed
}

func (s *Server) record(c *gin.Context) {
	raw, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(strings.NewReader(string(raw)))
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:         c.Request.Method,
		Path:           c.Request.URL.Path,
		Authorization:  c.GetHeader("Authorization"),
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
		RequestID:      c.GetHeader("X-Request-ID"),
		Body:           string(raw),
	})
	s.mu.Unlock()
	c.Next()
}

func (s *Server) inject(c *gin.Context) {
	route := c.Request.Method + " " + c.Request.URL.Path
	s.mu.Lock()
	status, failing := s.failures[route]
	raw, hasRaw := s.rawBodies[route]
	s.mu.Unlock()
	if failing && status == http.StatusInternalServerError {
		apierrors.InternalError(c, "injected failure")
		return
	}
	if failing {
		apierrors.Respond(c, apierrors.ProblemDetail{
			Title:  http.StatusText(status),
			Status: status,
			Detail: "injected failure",
		})
		return
	}
	if hasRaw {
		c.Data(http.StatusOK, "application/json", []byte(raw))
		c.Abort()
		return
	}
	c.Next()
}

func (s *Server) requireBearer(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		apierrors.Unauthorized(c, "missing bearer token")
		return
	}
	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return Secret, nil },
		jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		apierrors.Unauthorized(c, "invalid bearer token")
		return
	}
	c.Next()
}

func (s *Server) login(c *gin.Context) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	s.mu.Lock()
	user, ok := s.users[in.Email]
	s.mu.Unlock()
	if !ok || user.Password != in.Password {
		apierrors.Unauthorized(c, "invalid email or password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": IssueToken(user.ID, user.Email)})
}

func (s *Server) register(c *gin.Context) {
	var in storefront.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	s.mu.Lock()
	_, exists := s.users[in.Email]
	s.mu.Unlock()
	if exists {
		apierrors.BadRequest(c, "email already registered")
		return
	}
	s.AddUser(User{Email: in.Email, Password: in.Password, PhoneNumber: in.PhoneNumber, Name: in.Name})
	c.JSON(http.StatusCreated, gin.H{"message": "registered"})
}

func (s *Server) listProducts(c *gin.Context) {
	s.mu.Lock()
	products := append([]storefront.Product{}, s.products...)
	shape := s.productShape
	s.mu.Unlock()
	writeList(c, shape, products)
}

func (s *Server) createProduct(c *gin.Context) {
	var in storefront.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	name := in.Name
	if name == "" {
		name = in.ProductName
	}
	price, err := decimal.NewFromString(in.Price.String())
	if err != nil {
		apierrors.Validation(c, "price must be a number")
		return
	}
	s.mu.Lock()
	id := strconv.Itoa(len(s.products) + 1)
	p := storefront.Product{
		ID:          storefront.ID(id),
		Code:        "P-" + id,
		Name:        name,
		Description: in.Description,
		Price:       price,
		Quantity:    in.Quantity,
	}
	s.products = append(s.products, p)
	s.mu.Unlock()
	c.JSON(http.StatusCreated, gin.H{"data": p})
}

func (s *Server) listOrders(c *gin.Context) {
	s.mu.Lock()
	orders := append([]storefront.Order{}, s.orders...)
	shape := s.orderShape
	s.mu.Unlock()
	writeList(c, shape, orders)
}

func (s *Server) summary(c *gin.Context) {
	s.mu.Lock()
	orders := append([]storefront.Order{}, s.orders...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, orders)
}

func (s *Server) createOrder(c *gin.Context) {
	var in storefront.CreateOrderBody
	if err := c.ShouldBindJSON(&in); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	if len(in.Product) == 0 {
		apierrors.Validation(c, "at least one product is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order := storefront.Order{
		Customer: in.Customer,
		UserID:   storefront.ID(in.UserID),
		Date:     time.Now().UTC().Format(time.RFC3339),
	}
	total := decimal.Zero
	for _, item := range in.Product {
		idx := -1
		for i, p := range s.products {
			if p.Canonical().Code == item.ProductCode {
				idx = i
				break
			}
		}
		if idx < 0 {
			apierrors.NotFound(c, "product "+item.ProductCode+" not found")
			return
		}
		if item.Quantity < 1 || item.Quantity > s.products[idx].Quantity {
			apierrors.Validation(c, "insufficient stock for "+item.ProductCode)
			return
		}
		p := s.products[idx].Canonical()
		s.products[idx].Quantity -= item.Quantity
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		order.Products = append(order.Products, storefront.OrderLine{
			ProductCode: p.Code,
			ProductName: p.Name,
			Price:       p.Price,
			Quantity:    item.Quantity,
		})
	}
	s.nextOrderID++
	order.ID = storefront.ID(strconv.FormatInt(s.nextOrderID, 10))
	order.InvoiceNo = fmt.Sprintf("INV-%05d", s.nextOrderID)
	order.TotalAmount = total
	s.orders = append(s.orders, order)
	c.JSON(http.StatusCreated, gin.H{"data": order})
}

func (s *Server) deleteOrder(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.orders {
		if o.ID.String() == id {
			s.orders = append(s.orders[:i], s.orders[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	apierrors.NotFound(c, "transaction "+id+" not found")
}

func writeList[T any](c *gin.Context, shape ListShape, items []T) {
	switch shape {
	case ShapeBare:
		c.JSON(http.StatusOK, items)
	default:
		c.JSON(http.StatusOK, gin.H{string(shape): items})
	}
}
