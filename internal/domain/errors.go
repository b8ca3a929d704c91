package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrStorage           = errors.New("fallo de almacenamiento")
)

// ProductNotFoundError el producto referenciado por una línea no existe.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("producto %s no encontrado", e.ProductID)
}

func (e *ProductNotFoundError) Is(target error) bool { return target == ErrNotFound }

// OrderNotFoundError el pedido no existe (o fue cancelado).
type OrderNotFoundError struct {
	OrderID string
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("pedido %s no encontrado", e.OrderID)
}

func (e *OrderNotFoundError) Is(target error) bool { return target == ErrNotFound }

// ReferenceNotFoundError unidad, terminal o evento inexistente (o de otra unidad).
type ReferenceNotFoundError struct {
	Entity string // "unit" | "terminal" | "event"
	ID     string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("%s %s no encontrado", e.Entity, e.ID)
}

func (e *ReferenceNotFoundError) Is(target error) bool { return target == ErrNotFound }

// InsufficientStockError conserva cantidades para que el caller pueda reaccionar.
// Available incluye el stock devuelto por las líneas reemplazadas del mismo pedido.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s: disponible %d, solicitado %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// ProductUnavailableError el producto existe pero está marcado como no disponible para la venta.
type ProductUnavailableError struct {
	ProductID string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("producto %s no disponible para la venta", e.ProductID)
}

func (e *ProductUnavailableError) Is(target error) bool { return target == ErrConflict }

// InvalidLineError línea de pedido con cantidad o precio no válidos.
type InvalidLineError struct {
	Index     int
	ProductID string
	Reason    string
}

func (e *InvalidLineError) Error() string {
	if e.ProductID == "" {
		return fmt.Sprintf("línea %d inválida: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("línea %d (producto %s) inválida: %s", e.Index, e.ProductID, e.Reason)
}

func (e *InvalidLineError) Is(target error) bool { return target == ErrInvalidInput }

// StorageError fallo de transporte o de la capa transaccional. Nunca se reintenta en silencio.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError envuelve err salvo que ya sea un StorageError.
func NewStorageError(op string, err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// IsBusinessError distingue un rechazo de negocio (4xx) de un fallo de infraestructura.
func IsBusinessError(err error) bool {
	if err == nil || errors.Is(err, ErrStorage) {
		return false
	}
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrForbidden)
}
