package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/znasser/storefront/internal/cart"
	"github.com/znasser/storefront/internal/catalog"
	"github.com/znasser/storefront/internal/logging"
)

const (
	sessionCookie  = "cart_session"
	sessionMaxAge  = 30 * 24 * time.Hour
	cartEventTopic = "cart_events"
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event interface{}) error
}

type CartHandler struct {
	Storage  cart.Storage
	Catalog  *catalog.Service
	Producer EventPublisher
}

// session returns the cart session id from the request cookie, minting one
// on first touch. Each browser session owns exactly one cart.
func session(c echo.Context) string {
	if ck, err := c.Cookie(sessionCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	id := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
	})
	return id
}

func cartKey(sid string) string    { return "cart:" + sid }
func captchaKey(sid string) string { return "captcha:" + sid }

func (h *CartHandler) store(c echo.Context) (*cart.Store, string, error) {
	sid := session(c)
	s, err := cart.NewStore(c.Request().Context(), h.Storage, cartKey(sid))
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return s, sid, nil
}

func (h *CartHandler) publish(c echo.Context, key string, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, cartEventTopic, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "topic", cartEventTopic, "error", err)
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	s, _, err := h.store(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.Snapshot())
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	var req struct {
		ProductID uint   `json:"product_id"`
		Color     string `json:"color"`
		Size      string `json:"size"`
		Quantity  uint   `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ctx := c.Request().Context()
	product, err := h.Catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return httpError(err)
	}

	s, sid, err := h.store(c)
	if err != nil {
		return err
	}

	if err := s.AddItem(ctx, *product, req.Color, req.Size, req.Quantity); err != nil {
		if errors.Is(err, cart.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, sid, map[string]any{
		"type":      "cart_item_added",
		"session":   sid,
		"productID": req.ProductID,
		"quantity":  s.GetQuantity(req.ProductID, req.Color, req.Size),
	})
	return c.JSON(http.StatusOK, s.Snapshot())
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	s, sid, err := h.store(c)
	if err != nil {
		return err
	}

	lineID := c.Param("lineID")
	if err := s.RemoveItem(c.Request().Context(), lineID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, sid, map[string]any{
		"type":    "cart_item_removed",
		"session": sid,
		"lineID":  lineID,
	})
	return c.JSON(http.StatusOK, s.Snapshot())
}

func (h *CartHandler) IncrementQuantity(c echo.Context) error {
	s, _, err := h.store(c)
	if err != nil {
		return err
	}
	if err := s.IncrementQuantity(c.Request().Context(), c.Param("lineID")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, s.Snapshot())
}

func (h *CartHandler) DecrementQuantity(c echo.Context) error {
	s, _, err := h.store(c)
	if err != nil {
		return err
	}
	if err := s.DecrementQuantity(c.Request().Context(), c.Param("lineID")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, s.Snapshot())
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	s, sid, err := h.store(c)
	if err != nil {
		return err
	}
	if err := s.Clear(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, sid, map[string]any{
		"type":    "cart_cleared",
		"session": sid,
	})
	return c.JSON(http.StatusOK, s.Snapshot())
}
