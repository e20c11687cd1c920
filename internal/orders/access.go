package orders

import "github.com/hanbitmall/hanbit-backend/pkg/db/models"

// CanAccess reports whether the actor may read or mutate the order: admins
// always, everyone else only their own orders.
func CanAccess(order *models.Order, actor Actor) bool {
	if order == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return order.UserID == actor.ID
}
