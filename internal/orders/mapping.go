package orders

import "github.com/hanbitmall/hanbit-backend/pkg/enums"

// mapGatewayPaymentStatus translates the gateway's status vocabulary into the
// internal enum. Unknown values fall back to the caller-supplied status when
// valid, otherwise pending; the record is never dropped.
func mapGatewayPaymentStatus(raw string, fallback enums.PaymentStatus) enums.PaymentStatus {
	switch raw {
	case "paid":
		return enums.PaymentStatusCaptured
	case "ready":
		return enums.PaymentStatusAuthorized
	case "cancelled":
		return enums.PaymentStatusRefunded
	case "failed":
		return enums.PaymentStatusFailed
	default:
		if fallback.IsValid() {
			return fallback
		}
		return enums.PaymentStatusPending
	}
}

// mapGatewayPayMethod translates the gateway's pay_method vocabulary into the
// internal enum, with the same fallback policy as the status mapping.
func mapGatewayPayMethod(raw string, fallback enums.PaymentMethod) enums.PaymentMethod {
	switch raw {
	case "card":
		return enums.PaymentMethodCard
	case "trans":
		return enums.PaymentMethodBankTransfer
	case "vbank":
		return enums.PaymentMethodVirtualAccount
	case "phone":
		return enums.PaymentMethodMobile
	default:
		if fallback.IsValid() {
			return fallback
		}
		return enums.PaymentMethodOther
	}
}

// deriveOrderStatus picks the initial order status from the verified payment
// status.
func deriveOrderStatus(status enums.PaymentStatus) enums.OrderStatus {
	switch status {
	case enums.PaymentStatusCaptured, enums.PaymentStatusAuthorized:
		return enums.OrderStatusPaid
	case enums.PaymentStatusFailed, enums.PaymentStatusRefunded:
		return enums.OrderStatusCancelled
	default:
		return enums.OrderStatusPending
	}
}
