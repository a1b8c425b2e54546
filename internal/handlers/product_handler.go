package handlers

import (
	"net/http"
	"strconv"

	"github.com/freshroots/harvest-backend/internal/adapters/repository"
	"github.com/freshroots/harvest-backend/internal/models"
	"github.com/freshroots/harvest-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ProductHandler struct {
	Repo repository.ProductRepository
}

func NewProductHandler(repo repository.ProductRepository) *ProductHandler {
	return &ProductHandler{Repo: repo}
}

func pageParams(c *gin.Context) (limit, skip int64) {
	limit, _ = strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}

func (h *ProductHandler) FetchProductsPublic(c *gin.Context) {
	limit, skip := pageParams(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	products, total, err := h.Repo.List(ctx, repository.ProductQuery{
		Category:   c.Query("category"),
		Search:     c.Query("query"),
		ActiveOnly: true,
		Limit:      limit,
		Skip:       skip,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("failed to fetch products"))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("products fetched successfully", gin.H{
		"products": products,
		"total":    total,
	}))
}

func (h *ProductHandler) FetchProductPublicById(c *gin.Context) {
	id, ok := objectIDParam(c, "product")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		repoError(c, err, "Product")
		return
	}
	if product.Status != models.ProductStatusActive {
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Product not found"))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("product fetched successfully", gin.H{"product": product}))
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid json body"))
		return
	}
	if err := validate.Struct(product); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse(err.Error()))
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	created, err := h.Repo.Create(ctx, product)
	if err != nil {
		logrus.WithError(err).Error("Create product")
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create product"))
		return
	}
	c.JSON(http.StatusCreated, utils.SuccessResponse("Product created successfully", gin.H{"product": created}))
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := objectIDParam(c, "product")
	if !ok {
		return
	}
	var input models.UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("invalid json format"))
		return
	}
	if err := validate.Struct(&input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse(err.Error()))
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Repo.Update(ctx, id, input); err != nil {
		repoError(c, err, "Product")
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("product updated successfully", nil))
}
