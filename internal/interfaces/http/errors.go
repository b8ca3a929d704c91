package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Comandas-api/internal/application/dto"
	"github.com/jhoicas/Comandas-api/internal/domain"
	"github.com/jhoicas/Comandas-api/pkg/logger"
)

// writeError traduce errores del dominio a respuestas HTTP. Los errores de almacenamiento no
// exponen la causa al cliente; se registran.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var (
		stockErr   *domain.InsufficientStockError
		unavailErr *domain.ProductUnavailableError
		lineErr    *domain.InvalidLineError
		orderNF    *domain.OrderNotFoundError
		productNF  *domain.ProductNotFoundError
		refNF      *domain.ReferenceNotFoundError
	)

	switch {
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: stockErr.Error(),
			Details: dto.StockConflictDetails{ProductID: stockErr.ProductID, Available: stockErr.Available, Requested: stockErr.Requested},
		})
	case errors.As(err, &unavailErr):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "PRODUCT_UNAVAILABLE",
			Message: unavailErr.Error(),
			Details: fiber.Map{"product_id": unavailErr.ProductID},
		})
	case errors.As(err, &lineErr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "INVALID_LINE",
			Message: lineErr.Error(),
			Details: fiber.Map{"index": lineErr.Index, "product_id": lineErr.ProductID, "reason": lineErr.Reason},
		})
	case errors.As(err, &orderNF):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "ORDER_NOT_FOUND", Message: "pedido no encontrado"})
	case errors.As(err, &productNF):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Code:    "PRODUCT_NOT_FOUND",
			Message: productNF.Error(),
			Details: fiber.Map{"product_id": productNF.ProductID},
		})
	case errors.As(err, &refNF):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Code:    "REFERENCE_NOT_FOUND",
			Message: refNF.Error(),
			Details: fiber.Map{"entity": refNF.Entity, "id": refNF.ID},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto con el estado actual"})
	case errors.Is(err, context.DeadlineExceeded):
		log.Error().Err(err).Str("path", c.Path()).Msg("operación excedió el tiempo límite")
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "TIMEOUT", Message: "la operación excedió el tiempo límite, no se aplicó ningún cambio"})
	}

	log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}
