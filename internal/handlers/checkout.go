package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/znasser/storefront/internal/cart"
	"github.com/znasser/storefront/internal/checkout"
	"github.com/znasser/storefront/internal/logging"
	"github.com/znasser/storefront/internal/order"
)

type CheckoutHandler struct {
	Storage   cart.Storage
	Validator *checkout.Validator
	Orders    *order.Service
}

// GetCaptcha issues a fresh challenge for the session, replacing any
// previous one wholesale.
func (h *CheckoutHandler) GetCaptcha(c echo.Context) error {
	sid := session(c)

	ch := checkout.NewChallenge()
	if err := h.saveChallenge(c, sid, ch); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"question": ch.Question()})
}

// Checkout runs the full submission flow: validate the customer fields,
// cart and captcha, create the order, then clear the cart and rotate the
// captcha. Validation failures return the structured result and leave the
// cart untouched; no order is created.
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout")

	var req struct {
		checkout.CustomerInfo
		CaptchaAnswer int `json:"captcha_answer"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	sid := session(c)
	s, err := cart.NewStore(ctx, h.Storage, cartKey(sid))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	snapshot := s.Snapshot()

	challenge, ok, err := h.loadChallenge(c, sid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return c.JSON(http.StatusBadRequest, checkout.Result{
			Valid: false,
			Errors: []checkout.FieldError{
				{Field: "captcha", Reason: "captcha expired, request a new one"},
			},
		})
	}

	res := h.Validator.Validate(req.CustomerInfo, snapshot.Items, req.CaptchaAnswer, challenge)
	if !res.Valid {
		l.Warn("checkout_error", "status", 400, "reason", "validation failed")
		return c.JSON(http.StatusBadRequest, res)
	}

	items := make([]order.CreateOrderItem, 0, len(snapshot.Items))
	for _, line := range snapshot.Items {
		items = append(items, order.CreateOrderItem{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Color:       line.Color,
			Size:        line.Size,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    float64(line.Quantity) * line.UnitPrice,
		})
	}

	created, err := h.Orders.CreateOrder(ctx, order.CreateOrderRequest{
		CustomerName: strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		City:         strings.TrimSpace(req.City),
		TotalPrice:   snapshot.TotalPrice,
		Items:        items,
	})
	if err != nil {
		l.Warn("checkout_error", "error", err)
		return httpError(err)
	}

	// The cart is cleared and the captcha rotated only after the order is
	// in. A failure here leaves a stale cart, not a lost order.
	if err := s.Clear(ctx); err != nil {
		l.Error("cart clear after checkout failed", "error", err)
	}
	if err := h.saveChallenge(c, sid, checkout.NewChallenge()); err != nil {
		l.Error("captcha rotate after checkout failed", "error", err)
	}

	l.Info("checkout_success", "orderID", created.ID, "number", created.Number)
	return c.JSON(http.StatusCreated, created)
}

func (h *CheckoutHandler) saveChallenge(c echo.Context, sid string, ch checkout.Challenge) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return err
	}
	return h.Storage.Set(c.Request().Context(), captchaKey(sid), string(data))
}

func (h *CheckoutHandler) loadChallenge(c echo.Context, sid string) (checkout.Challenge, bool, error) {
	var ch checkout.Challenge
	payload, ok, err := h.Storage.Get(c.Request().Context(), captchaKey(sid))
	if err != nil || !ok {
		return ch, false, err
	}
	if err := json.Unmarshal([]byte(payload), &ch); err != nil {
		return ch, false, err
	}
	return ch, true, nil
}
