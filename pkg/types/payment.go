package types

import (
	"time"

	"github.com/hanbitmall/hanbit-backend/pkg/enums"
)

// PaymentInfo is the verified payment sub-record embedded into an order.
// Every field is populated from the gateway's own record during
// reconciliation; client-supplied values only ever serve as fallbacks.
type PaymentInfo struct {
	Method        enums.PaymentMethod `json:"method"`
	Provider      string              `json:"provider,omitempty"`
	TransactionID string              `json:"transaction_id"`
	MerchantUID   string              `json:"merchant_uid"`
	PGTid         string              `json:"pg_tid,omitempty"`
	ReceiptURL    string              `json:"receipt_url,omitempty"`
	AmountPaid    int64               `json:"amount_paid"`
	Currency      enums.Currency      `json:"currency"`
	Status        enums.PaymentStatus `json:"status"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
}
