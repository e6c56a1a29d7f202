package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Estados de pago de una factura.
const (
	InvoiceStatusUnpaid  = "Unpaid"
	InvoiceStatusPartial = "Partial"
	InvoiceStatusPaid    = "Paid"
)

// Invoice representa la cabecera de una factura tal como la expone el módulo de facturación.
// El asistente la trata como solo lectura: nunca la modifica.
type Invoice struct {
	ID          string
	Number      string
	ClientName  string
	IssueDate   time.Time
	DueDate     *time.Time // nil si la factura no tiene vencimiento
	Status      string
	Currency    string // ISO 4217, ej. "EGP"
	TotalAmount decimal.Decimal
	PaidAmount  decimal.Decimal
	Salesperson string
	Branch      string
	Details     []*InvoiceDetail
}

// Balance saldo pendiente (TotalAmount - PaidAmount); puede ser negativo si hubo sobrepago.
func (i *Invoice) Balance() decimal.Decimal {
	return i.TotalAmount.Sub(i.PaidAmount)
}

// OpenBalance saldo pendiente acotado a cero.
func (i *Invoice) OpenBalance() decimal.Decimal {
	if b := i.Balance(); b.IsPositive() {
		return b
	}
	return decimal.Zero
}

// IsOverdue indica si la factura está vencida en el instante now:
// tiene vencimiento, el vencimiento ya pasó y no está pagada.
// Se calcula aquí y no se confía en ningún flag almacenado.
func (i *Invoice) IsOverdue(now time.Time) bool {
	if i.DueDate == nil || !i.DueDate.Before(now) {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(i.Status), InvoiceStatusPaid)
}

// DaysOverdue días completos transcurridos desde el vencimiento (floor). 0 si no hay vencimiento.
func (i *Invoice) DaysOverdue(now time.Time) int {
	if i.DueDate == nil {
		return 0
	}
	return int(now.Sub(*i.DueDate) / (24 * time.Hour))
}
