package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/localedeals/localedeals/internal/api/dto"
	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/logger"
	"github.com/localedeals/localedeals/internal/service"
	"github.com/localedeals/localedeals/internal/types"
	"github.com/localedeals/localedeals/internal/validator"
)

type ProductHandler struct {
	productService service.ProductService
	logger         *logger.Logger
}

func NewProductHandler(
	productService service.ProductService,
	logger *logger.Logger,
) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request body").
			Mark(ierr.ErrValidation))
		return
	}
	if err := validator.ValidateRequest(&req); err != nil {
		c.Error(err)
		return
	}

	userID := types.GetUserID(c.Request.Context())
	response, err := h.productService.CreateProduct(c.Request.Context(), userID, &req)
	if err != nil {
		h.logger.Errorw("failed to create product", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, response)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	userID := types.GetUserID(c.Request.Context())
	product, err := h.productService.GetProduct(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.ProductResponse{Product: product})
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	userID := types.GetUserID(c.Request.Context())
	products, err := h.productService.ListProducts(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorw("failed to list products", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request body").
			Mark(ierr.ErrValidation))
		return
	}
	if err := validator.ValidateRequest(&req); err != nil {
		c.Error(err)
		return
	}

	userID := types.GetUserID(c.Request.Context())
	if err := h.productService.UpdateProduct(c.Request.Context(), c.Param("id"), userID, &req); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.ActionResponse{Message: "Product updated"})
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	userID := types.GetUserID(c.Request.Context())
	if err := h.productService.DeleteProduct(c.Request.Context(), c.Param("id"), userID); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.ActionResponse{Message: "Product deleted"})
}

func (h *ProductHandler) GetCustomization(c *gin.Context) {
	userID := types.GetUserID(c.Request.Context())
	customization, err := h.productService.GetCustomization(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, customization)
}

func (h *ProductHandler) UpdateCustomization(c *gin.Context) {
	var req dto.UpdateCustomizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request body").
			Mark(ierr.ErrValidation))
		return
	}
	if err := validator.ValidateRequest(&req); err != nil {
		c.Error(err)
		return
	}

	userID := types.GetUserID(c.Request.Context())
	if err := h.productService.UpdateCustomization(c.Request.Context(), c.Param("id"), userID, &req); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.ActionResponse{Message: "Banner updated"})
}

func (h *ProductHandler) GetCountryDiscounts(c *gin.Context) {
	userID := types.GetUserID(c.Request.Context())
	groups, err := h.productService.GetCountryDiscounts(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *ProductHandler) UpdateCountryDiscounts(c *gin.Context) {
	var req dto.UpdateCountryDiscountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request body").
			Mark(ierr.ErrValidation))
		return
	}
	if err := validator.ValidateRequest(&req); err != nil {
		c.Error(err)
		return
	}

	userID := types.GetUserID(c.Request.Context())
	if err := h.productService.UpdateCountryDiscounts(c.Request.Context(), c.Param("id"), userID, &req); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.ActionResponse{Message: "Country discounts updated"})
}
