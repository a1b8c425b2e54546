package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/freshroots/harvest-backend/internal/adapters/repository"
	"github.com/freshroots/harvest-backend/internal/core/invoicing"
	"github.com/freshroots/harvest-backend/internal/models"
	"github.com/freshroots/harvest-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const invoiceNumberAttempts = 5

type InvoiceHandler struct {
	Repo    repository.InvoiceRepository
	Orders  repository.OrderRepository
	Numbers *invoicing.Generator
}

func NewInvoiceHandler(repo repository.InvoiceRepository, orders repository.OrderRepository, numbers *invoicing.Generator) *InvoiceHandler {
	if numbers == nil {
		numbers = &invoicing.Generator{}
	}
	return &InvoiceHandler{Repo: repo, Orders: orders, Numbers: numbers}
}

func bindInvoiceInput(c *gin.Context) (models.InvoiceInput, bool) {
	var input models.InvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid json body"))
		return input, false
	}
	if err := validate.Struct(input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse(err.Error()))
		return input, false
	}
	return input, true
}

func applyInput(inv *models.Invoice, input models.InvoiceInput) {
	inv.CustomerName = input.CustomerName
	inv.CustomerPhone = input.CustomerPhone
	inv.Items = input.Items
	inv.TaxPercent = input.TaxPercent
	inv.Discount = input.Discount
	inv.DeliveryCharge = input.DeliveryCharge
	invoicing.RecomputeInvoice(inv)
}

// save stores inv under a fresh invoice number, drawing again when the
// number is already taken.
func (h *InvoiceHandler) save(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	var err error
	for i := 0; i < invoiceNumberAttempts; i++ {
		inv.InvoiceNumber = h.Numbers.Next()
		var saved models.Invoice
		saved, err = h.Repo.Create(ctx, inv)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, repository.ErrDuplicateInvoiceNumber) {
			return models.Invoice{}, err
		}
		logrus.WithField("invoiceNumber", inv.InvoiceNumber).Warn("Invoice number collision, retrying")
	}
	return models.Invoice{}, err
}

func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	input, ok := bindInvoiceInput(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var inv models.Invoice
	applyInput(&inv, input)
	saved, err := h.save(ctx, inv)
	if err != nil {
		logrus.WithError(err).Error("Create invoice")
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create invoice"))
		return
	}
	c.JSON(http.StatusCreated, utils.SuccessResponse("Invoice created successfully", gin.H{"invoice": saved}))
}

// PreviewInvoice returns the computed totals without storing anything.
func (h *InvoiceHandler) PreviewInvoice(c *gin.Context) {
	input, ok := bindInvoiceInput(c)
	if !ok {
		return
	}
	var inv models.Invoice
	applyInput(&inv, input)
	c.JSON(http.StatusOK, utils.SuccessResponse("Invoice preview", gin.H{"invoice": inv}))
}

// CreateFromOrder drafts an invoice from an order's cart and charges.
func (h *InvoiceHandler) CreateFromOrder(c *gin.Context) {
	orderID, ok := objectIDParam(c, "order")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		repoError(c, err, "Order")
		return
	}
	if order.NormalizedStatus() == models.StatusCancelled {
		c.JSON(http.StatusConflict, utils.ErrorResponse("Cannot invoice a cancelled order"))
		return
	}

	ref := order.ID
	inv := models.Invoice{
		OrderRef:       &ref,
		CustomerName:   order.AddressInfo.Name,
		CustomerPhone:  order.AddressInfo.PhoneNumber,
		Items:          invoicing.FromOrder(order),
		Discount:       order.DiscountAmount,
		DeliveryCharge: order.DeliveryFee,
	}
	invoicing.RecomputeInvoice(&inv)

	saved, err := h.save(ctx, inv)
	if err != nil {
		logrus.WithError(err).WithField("order", order.DisplayID()).Error("Create invoice from order")
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create invoice"))
		return
	}
	c.JSON(http.StatusCreated, utils.SuccessResponse("Invoice created successfully", gin.H{"invoice": saved}))
}

func (h *InvoiceHandler) GetInvoices(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	invoices, total, err := h.Repo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to fetch invoices"))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Invoices fetched successfully", gin.H{
		"invoices": invoices,
		"total":    total,
	}))
}

func (h *InvoiceHandler) GetInvoiceById(c *gin.Context) {
	id, ok := objectIDParam(c, "invoice")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	inv, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		repoError(c, err, "Invoice")
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Invoice fetched successfully", gin.H{"invoice": inv}))
}

// UpdateInvoice replaces the editable fields and recomputes every total.
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	id, ok := objectIDParam(c, "invoice")
	if !ok {
		return
	}
	input, ok := bindInvoiceInput(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	inv, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		repoError(c, err, "Invoice")
		return
	}
	applyInput(&inv, input)
	if err := h.Repo.Update(ctx, inv); err != nil {
		repoError(c, err, "Invoice")
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Invoice updated successfully", gin.H{"invoice": inv}))
}
