package entity

import "strings"

// PaymentMethod medio de pago del pedido. La captura en la terminal es externa al motor.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCredit PaymentMethod = "credit"
	PaymentDebit  PaymentMethod = "debit"
	PaymentPix    PaymentMethod = "pix"
)

// ParsePaymentMethod normaliza el valor recibido; ok=false si no es uno de cash|credit|debit|pix.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch pm := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); pm {
	case PaymentCash, PaymentCredit, PaymentDebit, PaymentPix:
		return pm, true
	}
	return "", false
}
