package echo

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	app "github.com/mohammadpnp/parts-import/internal/application/inventory"
	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

type inventoryItems interface {
	Get(ctx context.Context, articleNumber string, withDeleted bool) (domain.InventoryItem, error)
	Delete(ctx context.Context, articleNumber string) error
	Restore(ctx context.Context, articleNumber string) error
}

type InventoryHandler struct {
	items  inventoryItems
	logger *zap.Logger
}

func NewInventoryHandler(items inventoryItems, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{items: items, logger: logger}
}

func (h *InventoryHandler) GetItem(c echo.Context) error {
	withDeleted, _ := strconv.ParseBool(c.QueryParam("with_deleted"))

	item, err := h.items.Get(c.Request().Context(), c.Param("articleNumber"), withDeleted)
	if err != nil {
		return h.itemError(c, err, "failed to get inventory item")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: item})
}

func (h *InventoryHandler) DeleteItem(c echo.Context) error {
	if err := h.items.Delete(c.Request().Context(), c.Param("articleNumber")); err != nil {
		return h.itemError(c, err, "failed to delete inventory item")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *InventoryHandler) RestoreItem(c echo.Context) error {
	if err := h.items.Restore(c.Request().Context(), c.Param("articleNumber")); err != nil {
		return h.itemError(c, err, "failed to restore inventory item")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *InventoryHandler) itemError(c echo.Context, err error, message string) error {
	switch {
	case errors.Is(err, app.ErrInvalidArticleNo):
		return respondError(c, http.StatusBadRequest, "invalid_article_number", "article number must be 1 to 100 characters")
	case errors.Is(err, app.ErrInventoryNotFound):
		return respondError(c, http.StatusNotFound, "not_found", "inventory item not found")
	}
	h.logger.Error(message, zap.String("internal_article_number", c.Param("articleNumber")), zap.Error(err))
	return respondError(c, http.StatusInternalServerError, "internal_error", message)
}
