package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/znasser/storefront/internal/handlers"
	"github.com/znasser/storefront/internal/middleware/admin"
)

type Deps struct {
	AdminToken      string
	ProductHandler  *handlers.ProductHandler
	CartHandler     *handlers.CartHandler
	CheckoutHandler *handlers.CheckoutHandler
	OrderHandler    *handlers.OrderHandler
	SearchHandler   *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:slug", d.ProductHandler.GetProductBySlug)

	if d.SearchHandler != nil && d.SearchHandler.ES != nil {
		v1.GET("/search", d.SearchHandler.Search)
	}

	cart := v1.Group("/cart")
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.DELETE("", d.CartHandler.ClearCart)
	cart.DELETE("/:lineID", d.CartHandler.RemoveItem)
	cart.POST("/:lineID/increment", d.CartHandler.IncrementQuantity)
	cart.POST("/:lineID/decrement", d.CartHandler.DecrementQuantity)

	v1.GET("/checkout/captcha", d.CheckoutHandler.GetCaptcha)
	v1.POST("/checkout", d.CheckoutHandler.Checkout)

	adm := v1.Group("/admin", admin.RequireToken(d.AdminToken))

	adm.POST("/products", d.ProductHandler.CreateProduct)
	adm.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	adm.DELETE("/products/:id", d.ProductHandler.DeleteProduct)

	adm.GET("/orders", d.OrderHandler.ListOrders)
	adm.GET("/orders/:id", d.OrderHandler.GetOrder)
	adm.DELETE("/orders/:id", d.OrderHandler.DeleteOrder)
	adm.PATCH("/orders/:id/status", d.OrderHandler.UpdateStatus)
	adm.PATCH("/orders/:id/shipping-fee", d.OrderHandler.UpdateShippingFee)
	adm.POST("/orders/:id/items", d.OrderHandler.AddItem)
	adm.PATCH("/orders/:id/items/:itemID", d.OrderHandler.UpdateItem)
	adm.DELETE("/orders/:id/items/:itemID", d.OrderHandler.DeleteItem)
}
