package entity

import "github.com/shopspring/decimal"

// InvoiceDetail representa una línea de detalle de una factura.
type InvoiceDetail struct {
	ID        string
	InvoiceID string
	ItemSKU   string
	ItemName  string
	Quantity  int
	UnitPrice decimal.Decimal
}

