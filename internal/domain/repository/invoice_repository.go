package repository

import (
	"context"
	"time"

	"github.com/jhoicas/invoice-assistant/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// InvoiceFilter criterios de consulta sobre facturas. Los campos vacíos no filtran.
// Lo construye únicamente el asistente a partir de períodos resueltos y parámetros del router.
type InvoiceFilter struct {
	From          *time.Time // fecha de emisión >= From (inclusive)
	To            *time.Time // fecha de emisión <= To (inclusive)
	InvoiceNumber string     // coincidencia exacta
	ClientName    string     // subcadena, sin distinguir mayúsculas
	Salesperson   string
	Status        string
	Currency      string
	MinAmount     *decimal.Decimal
	MaxAmount     *decimal.Decimal
	Branch        string
	ItemSKU       string // facturas con al menos una línea de ese SKU
	TopN          int    // sugerencia; la agrupación la hace el asistente
	OverdueOnly   bool   // sugerencia; el asistente vuelve a aplicar el predicado
	AsOf          time.Time
	WithDetails   bool // cargar también las líneas de detalle
}

// InvoiceQuery puerto de lectura de facturas que usa el asistente.
// Las implementaciones son read-only.
type InvoiceQuery interface {
	Query(ctx context.Context, filter InvoiceFilter) ([]*entity.Invoice, error)
}
