package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/znasser/storefront/internal/cart"
)

func TestAddToCartAndGetCart(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct()

	load := map[string]any{
		"product_id": p.ID,
		"color":      "Black",
		"size":       "M",
		"quantity":   2,
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", load)
	require.NoError(t, env.Cart.AddToCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	ck := sessionCookieFrom(t, rec)

	rec, c = env.doJSONRequest(http.MethodGet, "/api/v1/cart", nil, ck)
	require.NoError(t, env.Cart.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var snap cart.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Len(t, snap.Items, 1)
	require.Equal(t, uint(2), snap.TotalItems)
	require.InDelta(t, 20.0, snap.TotalPrice, 1e-9)
}

func TestAddToCartValidation(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct()

	load := map[string]any{
		"product_id": p.ID,
		"color":      "",
		"size":       "M",
		"quantity":   1,
	}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", load)
	err := env.Cart.AddToCart(c)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestAddToCartUnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	load := map[string]any{
		"product_id": 999,
		"color":      "Black",
		"size":       "M",
		"quantity":   1,
	}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", load)
	err := env.Cart.AddToCart(c)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestCartIncrementDecrementRemove(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct()
	lineID := cart.LineID(p.ID, "Black", "M")

	load := map[string]any{
		"product_id": p.ID,
		"color":      "Black",
		"size":       "M",
		"quantity":   1,
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", load)
	require.NoError(t, env.Cart.AddToCart(c))
	ck := sessionCookieFrom(t, rec)

	path := "/api/v1/cart/" + url.PathEscape(lineID) + "/increment"
	rec, c = env.doJSONRequest(http.MethodPost, path, nil, ck)
	c.SetParamNames("lineID")
	c.SetParamValues(lineID)
	require.NoError(t, env.Cart.IncrementQuantity(c))

	var snap cart.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Equal(t, uint(2), snap.TotalItems)

	rec, c = env.doJSONRequest(http.MethodDelete, "/api/v1/cart/"+url.PathEscape(lineID), nil, ck)
	c.SetParamNames("lineID")
	c.SetParamValues(lineID)
	require.NoError(t, env.Cart.RemoveItem(c))

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Empty(t, snap.Items)
}
