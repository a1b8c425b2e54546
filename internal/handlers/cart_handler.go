package handlers

import (
	"net/http"

	"github.com/freshroots/harvest-backend/internal/adapters/repository"
	"github.com/freshroots/harvest-backend/internal/middleware"
	"github.com/freshroots/harvest-backend/internal/models"
	"github.com/freshroots/harvest-backend/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartHandler struct {
	Repo        repository.CartRepository
	ProductRepo repository.ProductRepository
}

func NewCartHandler(repo repository.CartRepository, products repository.ProductRepository) *CartHandler {
	return &CartHandler{Repo: repo, ProductRepo: products}
}

// AddToCart snapshots the product's current title and price into the cart.
func (h *CartHandler) AddToCart(c *gin.Context) {
	uid, _ := middleware.Caller(c)

	var req struct {
		ProductID string  `json:"productId" binding:"required"`
		Quantity  float64 `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid product ID"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := h.ProductRepo.GetByID(ctx, productID)
	if err != nil || product.Status != models.ProductStatusActive {
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Product not found"))
		return
	}

	inCart := 0.0
	if cart, err := h.Repo.GetCart(ctx, uid); err == nil {
		for _, it := range cart.Items {
			if it.ProductID == req.ProductID {
				inCart = it.Quantity
			}
		}
	}
	if inCart+req.Quantity > product.Stock {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Requested quantity exceeds available stock"))
		return
	}

	item := models.CartItem{
		ProductID: req.ProductID,
		Title:     product.Title,
		Price:     product.Price,
		Quantity:  req.Quantity,
		Category:  product.Category,
		ImageURL:  product.ImageURL,
	}
	if product.ActualPrice > 0 {
		mrp := product.ActualPrice
		item.ActualPrice = &mrp
	}
	if err := h.Repo.AddToCart(ctx, uid, item); err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to add to cart"))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Item added to cart", nil))
}

func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	uid, _ := middleware.Caller(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Repo.RemoveFromCart(ctx, uid, c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to remove from cart"))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Item removed from cart", nil))
}

func (h *CartHandler) GetCart(c *gin.Context) {
	uid, _ := middleware.Caller(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	cart, err := h.Repo.GetCart(ctx, uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to fetch cart"))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Cart fetched successfully", gin.H{"cart": cart}))
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	uid, _ := middleware.Caller(c)
	productID, ok := objectIDParam(c, "product")
	if !ok {
		return
	}
	var req struct {
		Quantity float64 `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := h.ProductRepo.GetByID(ctx, productID)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Product not found"))
		return
	}
	if req.Quantity > product.Stock {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Requested quantity exceeds available stock"))
		return
	}
	if err := h.Repo.UpdateQuantity(ctx, uid, productID.Hex(), req.Quantity); err != nil {
		repoError(c, err, "Cart item")
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Cart updated", nil))
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	uid, _ := middleware.Caller(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Repo.ClearCart(ctx, uid); err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to clear cart"))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Cart cleared", nil))
}
