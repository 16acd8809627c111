package order

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GongoraLeo/spherework-sub000/internal/models"
	"github.com/GongoraLeo/spherework-sub000/internal/repo"
	"github.com/GongoraLeo/spherework-sub000/internal/service/cart"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Author{}, &models.Publisher{}, &models.Book{},
		&models.Order{}, &models.OrderLine{},
	))
	return db
}

func newTestServices(t *testing.T) (*OrderService, *cart.CartService, *gorm.DB) {
	db := newTestDB(t)
	r := &repo.GormRepo{DB: db}
	return &OrderService{Repo: r}, &cart.CartService{Repo: r}, db
}

func seedBook(t *testing.T, db *gorm.DB, price float64) models.Book {
	t.Helper()
	book := models.Book{Title: "test book", Price: price, AuthorID: 1, PublisherID: 1}
	require.NoError(t, db.Create(&book).Error)
	return book
}

func fillCart(t *testing.T, c *cart.CartService, db *gorm.DB, p models.Principal) uint {
	t.Helper()
	cheap := seedBook(t, db, 10)
	dear := seedBook(t, db, 20)

	res, err := c.AddItem(context.Background(), p, cart.AddItemCommand{BookID: cheap.ID, Quantity: 2, UnitPrice: cheap.Price})
	require.NoError(t, err)
	_, err = c.AddItem(context.Background(), p, cart.AddItemCommand{BookID: dear.ID, Quantity: 1, UnitPrice: dear.Price})
	require.NoError(t, err)
	return res.OrderID
}

var (
	owner    = models.Principal{ID: 1, Role: models.RoleUser}
	stranger = models.Principal{ID: 2, Role: models.RoleUser}
	admin    = models.Principal{ID: 99, Role: models.RoleAdmin}
)

func TestCheckout_SealsPendingOrder(t *testing.T) {
	svc, cartSvc, db := newTestServices(t)
	ctx := context.Background()
	orderID := fillCart(t, cartSvc, db, owner)

	before := time.Now().UTC()
	receipt, err := svc.Checkout(ctx, owner)
	require.NoError(t, err)

	assert.Equal(t, orderID, receipt.Order.ID)
	assert.Equal(t, models.StatusCompleted, receipt.Order.Status)
	require.NotNil(t, receipt.Order.Total)
	assert.Equal(t, float64(40), *receipt.Order.Total)
	require.NotNil(t, receipt.Order.PlacedAt)
	assert.False(t, receipt.Order.PlacedAt.Before(before))
	require.Len(t, receipt.Lines, 2)

	// The three fields landed together in the store too.
	var stored models.Order
	require.NoError(t, db.First(&stored, orderID).Error)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	require.NotNil(t, stored.Total)
	assert.Equal(t, float64(40), *stored.Total)
	require.NotNil(t, stored.PlacedAt)

	// No pending order remains: the cart reads empty.
	view, err := cartSvc.ViewCart(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Zero(t, view.Total)
}

func TestCheckout_NoPendingOrder(t *testing.T) {
	svc, _, db := newTestServices(t)

	_, err := svc.Checkout(context.Background(), owner)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCheckout_EmptyCartRejected(t *testing.T) {
	svc, cartSvc, db := newTestServices(t)
	ctx := context.Background()
	book := seedBook(t, db, 10)

	res, err := cartSvc.AddItem(ctx, owner, cart.AddItemCommand{BookID: book.ID, Quantity: 1, UnitPrice: 10})
	require.NoError(t, err)

	var line models.OrderLine
	require.NoError(t, db.First(&line).Error)
	require.NoError(t, cartSvc.RemoveItem(ctx, owner, line.ID))

	_, err = svc.Checkout(ctx, owner)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	// Rollback left the order pending and unpriced, ready for a retry.
	var stored models.Order
	require.NoError(t, db.First(&stored, res.OrderID).Error)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Nil(t, stored.Total)
	assert.Nil(t, stored.PlacedAt)
}

func TestCheckout_UsesFrozenPrices(t *testing.T) {
	svc, cartSvc, db := newTestServices(t)
	ctx := context.Background()
	book := seedBook(t, db, 15)

	_, err := cartSvc.AddItem(ctx, owner, cart.AddItemCommand{BookID: book.ID, Quantity: 2, UnitPrice: book.Price})
	require.NoError(t, err)

	// Catalog price change after the add must not leak into the total.
	require.NoError(t, db.Model(&models.Book{}).Where("id = ?", book.ID).Update("price", 100).Error)

	receipt, err := svc.Checkout(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, receipt.Order.Total)
	assert.Equal(t, float64(30), *receipt.Order.Total)
}

func TestCheckout_NewCartAfterCheckout(t *testing.T) {
	svc, cartSvc, db := newTestServices(t)
	ctx := context.Background()
	orderID := fillCart(t, cartSvc, db, owner)

	_, err := svc.Checkout(ctx, owner)
	require.NoError(t, err)

	book := seedBook(t, db, 5)
	res, err := cartSvc.AddItem(ctx, owner, cart.AddItemCommand{BookID: book.ID, Quantity: 1, UnitPrice: 5})
	require.NoError(t, err)
	assert.NotEqual(t, orderID, res.OrderID)
}

func TestShowReceipt(t *testing.T) {
	svc, cartSvc, db := newTestServices(t)
	ctx := context.Background()
	orderID := fillCart(t, cartSvc, db, owner)

	// Still pending: no receipt, even for the owner.
	_, err := svc.ShowReceipt(ctx, owner, orderID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Checkout(ctx, owner)
	require.NoError(t, err)

	receipt, err := svc.ShowReceipt(ctx, owner, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, receipt.Order.Status)
	assert.Len(t, receipt.Lines, 2)

	_, err = svc.ShowReceipt(ctx, stranger, orderID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)

	// Administrators bypass the ownership check.
	_, err = svc.ShowReceipt(ctx, admin, orderID)
	require.NoError(t, err)
}

func TestShowReceipt_NotFound(t *testing.T) {
	svc, _, _ := newTestServices(t)

	_, err := svc.ShowReceipt(context.Background(), owner, 4242)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetStatus(t *testing.T) {
	svc, cartSvc, db := newTestServices(t)
	ctx := context.Background()
	orderID := fillCart(t, cartSvc, db, owner)

	// Admins may jump states directly, adjacency is not enforced.
	for _, status := range []string{
		models.StatusShipped, models.StatusProcessing, models.StatusDelivered, models.StatusCancelled,
	} {
		require.NoError(t, svc.SetStatus(ctx, admin, orderID, status))

		var stored models.Order
		require.NoError(t, db.First(&stored, orderID).Error)
		assert.Equal(t, status, stored.Status)
	}
}

func TestSetStatus_RejectsUnknownStatus(t *testing.T) {
	svc, cartSvc, db := newTestServices(t)
	ctx := context.Background()
	orderID := fillCart(t, cartSvc, db, owner)

	err := svc.SetStatus(ctx, admin, orderID, "refunded")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var stored models.Order
	require.NoError(t, db.First(&stored, orderID).Error)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestSetStatus_ForbiddenForNonAdmin(t *testing.T) {
	svc, cartSvc, db := newTestServices(t)
	ctx := context.Background()
	orderID := fillCart(t, cartSvc, db, owner)

	// Even the owner cannot reach the back-office transition.
	err := svc.SetStatus(ctx, owner, orderID, models.StatusShipped)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDelete_RemovesOrderAndLines(t *testing.T) {
	svc, cartSvc, db := newTestServices(t)
	ctx := context.Background()
	orderID := fillCart(t, cartSvc, db, owner)

	require.NoError(t, svc.Delete(ctx, admin, orderID))

	var orderCount, lineCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, db.Model(&models.OrderLine{}).Count(&lineCount).Error)
	assert.Zero(t, orderCount)
	assert.Zero(t, lineCount)
}

func TestDelete_ForbiddenForNonAdmin(t *testing.T) {
	svc, cartSvc, db := newTestServices(t)
	ctx := context.Background()
	orderID := fillCart(t, cartSvc, db, owner)

	err := svc.Delete(ctx, owner, orderID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestHistory_ExcludesPending(t *testing.T) {
	svc, cartSvc, db := newTestServices(t)
	ctx := context.Background()

	fillCart(t, cartSvc, db, owner)
	_, err := svc.Checkout(ctx, owner)
	require.NoError(t, err)

	// A fresh pending cart must not show up in the history.
	book := seedBook(t, db, 5)
	_, err = cartSvc.AddItem(ctx, owner, cart.AddItemCommand{BookID: book.ID, Quantity: 1, UnitPrice: 5})
	require.NoError(t, err)

	orders, err := svc.History(ctx, owner, 10, 0)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, models.StatusCompleted, orders[0].Status)

	// Another user sees nothing.
	orders, err = svc.History(ctx, stranger, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, orders)
}
