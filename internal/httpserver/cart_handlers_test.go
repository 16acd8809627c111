package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	authmw "github.com/GongoraLeo/spherework-sub000/internal/middleware/auth"
	"github.com/GongoraLeo/spherework-sub000/internal/models"
	"github.com/GongoraLeo/spherework-sub000/internal/repo"
	"github.com/GongoraLeo/spherework-sub000/internal/service/cart"
	"github.com/GongoraLeo/spherework-sub000/internal/service/order"
)

type testEnv struct {
	T     *testing.T
	E     *echo.Echo
	DB    *gorm.DB
	Cart  *CartHTTP
	Order *OrderHTTP
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Author{}, &models.Publisher{}, &models.Book{},
		&models.Order{}, &models.OrderLine{},
	))

	r := &repo.GormRepo{DB: db}
	return &testEnv{
		T:     t,
		E:     echo.New(),
		DB:    db,
		Cart:  &CartHTTP{Svc: &cart.CartService{Repo: r}, Repo: r},
		Order: &OrderHTTP{Svc: &order.OrderService{Repo: r}},
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}, p *models.Principal) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	if p != nil {
		c.Set(authmw.ContextUserID, p.ID)
		c.Set(authmw.ContextRole, p.Role)
	}
	return rec, c
}

func (env *testEnv) seedBook(price float64) models.Book {
	env.T.Helper()
	book := models.Book{Title: "test book", Price: price, AuthorID: 1, PublisherID: 1}
	require.NoError(env.T, env.DB.Create(&book).Error)
	return book
}

var (
	user      = models.Principal{ID: 1, Role: models.RoleUser}
	adminUser = models.Principal{ID: 9, Role: models.RoleAdmin}
)

func TestAddItemHandler_FreezesCatalogPrice(t *testing.T) {
	env := newTestEnv(t)
	book := env.seedBook(12.5)

	payload := map[string]any{"book_id": book.ID, "quantity": 2}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", payload, &user)
	require.NoError(t, env.Cart.AddItem(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		OrderID uint   `json:"order_id"`
		Merged  bool   `json:"merged"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotZero(t, resp.OrderID)
	assert.False(t, resp.Merged)
	assert.Equal(t, "item added to cart", resp.Message)

	var line models.OrderLine
	require.NoError(t, env.DB.First(&line).Error)
	assert.Equal(t, 12.5, line.UnitPrice)
}

func TestAddItemHandler_SecondAddReportsMerge(t *testing.T) {
	env := newTestEnv(t)
	book := env.seedBook(10)

	payload := map[string]any{"book_id": book.ID, "quantity": 1}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", payload, &user)
	require.NoError(t, env.Cart.AddItem(c))

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", payload, &user)
	require.NoError(t, env.Cart.AddItem(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Merged  bool   `json:"merged"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Merged)
	assert.Equal(t, "item quantity updated", resp.Message)
}

func TestAddItemHandler_UnknownBook(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]any{"book_id": 4242, "quantity": 1}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", payload, &user)

	err := env.Cart.AddItem(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestAddItemHandler_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]any{"book_id": 1, "quantity": 1}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", payload, nil)

	err := env.Cart.AddItem(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestGetCartHandler(t *testing.T) {
	env := newTestEnv(t)
	book := env.seedBook(10)

	payload := map[string]any{"book_id": book.ID, "quantity": 3}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", payload, &user)
	require.NoError(t, env.Cart.AddItem(c))

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/cart", nil, &user)
	require.NoError(t, env.Cart.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var view cart.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Lines, 1)
	assert.Equal(t, uint(3), view.Lines[0].Quantity)
	assert.Equal(t, float64(30), view.Total)
}

func TestCheckoutHandler(t *testing.T) {
	env := newTestEnv(t)
	book := env.seedBook(20)

	payload := map[string]any{"book_id": book.ID, "quantity": 2}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", payload, &user)
	require.NoError(t, env.Cart.AddItem(c))

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/checkout", nil, &user)
	require.NoError(t, env.Order.Checkout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var receipt order.Receipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	assert.Equal(t, models.StatusCompleted, receipt.Order.Status)
	require.NotNil(t, receipt.Order.Total)
	assert.Equal(t, float64(40), *receipt.Order.Total)
	require.NotNil(t, receipt.Order.PlacedAt)
}

func TestCheckoutHandler_NoPendingOrder(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/checkout", nil, &user)
	err := env.Order.Checkout(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestAdminSetStatusHandler(t *testing.T) {
	env := newTestEnv(t)
	book := env.seedBook(10)

	payload := map[string]any{"book_id": book.ID, "quantity": 1}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", payload, &user)
	require.NoError(t, env.Cart.AddItem(c))

	var stored models.Order
	require.NoError(t, env.DB.First(&stored).Error)

	rec, c := env.doJSONRequest(http.MethodPatch, "/api/v1/admin/orders/1/status",
		map[string]any{"status": models.StatusShipped}, &adminUser)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.Order.AdminSetStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, env.DB.First(&stored, stored.ID).Error)
	assert.Equal(t, models.StatusShipped, stored.Status)
}

func TestAdminSetStatusHandler_ForbiddenForUser(t *testing.T) {
	env := newTestEnv(t)
	book := env.seedBook(10)

	payload := map[string]any{"book_id": book.ID, "quantity": 1}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", payload, &user)
	require.NoError(t, env.Cart.AddItem(c))

	_, c = env.doJSONRequest(http.MethodPatch, "/api/v1/admin/orders/1/status",
		map[string]any{"status": models.StatusShipped}, &user)
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := env.Order.AdminSetStatus(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, he.Code)
}

func TestReceiptHandler_PendingOrderConflict(t *testing.T) {
	env := newTestEnv(t)
	book := env.seedBook(10)

	payload := map[string]any{"book_id": book.ID, "quantity": 1}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", payload, &user)
	require.NoError(t, env.Cart.AddItem(c))

	_, c = env.doJSONRequest(http.MethodGet, "/api/v1/orders/1", nil, &user)
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := env.Order.ShowReceipt(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Code)
}
