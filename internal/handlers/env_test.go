package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/znasser/storefront/internal/cart"
	"github.com/znasser/storefront/internal/catalog"
	"github.com/znasser/storefront/internal/checkout"
	"github.com/znasser/storefront/internal/models"
	"github.com/znasser/storefront/internal/order"
)

type testEnv struct {
	T        *testing.T
	E        *echo.Echo
	DB       *gorm.DB
	Storage  *cart.GormStorage
	Catalog  *catalog.Service
	Orders   *order.Service
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Product  *ProductHandler
	Order    *OrderHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.CartRecord{},
	))

	storage := &cart.GormStorage{DB: db}
	catalogSvc := &catalog.Service{Repo: &catalog.GormRepo{DB: db}}
	orderSvc := &order.Service{Repo: &order.GormRepo{DB: db}}

	return &testEnv{
		T:        t,
		E:        echo.New(),
		DB:       db,
		Storage:  storage,
		Catalog:  catalogSvc,
		Orders:   orderSvc,
		Cart:     &CartHandler{Storage: storage, Catalog: catalogSvc},
		Checkout: &CheckoutHandler{Storage: storage, Validator: checkout.NewValidator(), Orders: orderSvc},
		Product:  &ProductHandler{Svc: catalogSvc},
		Order:    &OrderHandler{Svc: orderSvc},
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func (env *testEnv) seedProduct() *models.Product {
	p, err := env.Catalog.CreateProduct(env.T.Context(), catalog.ProductInput{
		Name:        "Linen Shirt",
		Description: "Breathable summer shirt",
		Price:       10,
		Images:      []string{"shirt.jpg"},
		Colors:      []string{"Black", "White"},
		Sizes:       []string{"S", "M", "L"},
		Count:       25,
	})
	require.NoError(env.T, err)
	return p
}

func sessionCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == sessionCookie {
			return ck
		}
	}
	t.Fatal("no cart session cookie set")
	return nil
}
