package orders

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/hanbitmall/hanbit-backend/pkg/db/models"
	"github.com/hanbitmall/hanbit-backend/pkg/enums"
)

func TestCanAccess(t *testing.T) {
	ownerID := uuid.New()
	order := &models.Order{ID: uuid.New(), UserID: ownerID}

	owner := Actor{ID: ownerID, Type: enums.UserTypeCustomer}
	stranger := Actor{ID: uuid.New(), Type: enums.UserTypeCustomer}
	admin := Actor{ID: uuid.New(), Type: enums.UserTypeAdmin}

	assert.True(t, CanAccess(order, owner))
	assert.True(t, CanAccess(order, admin))
	assert.False(t, CanAccess(order, stranger))
	assert.False(t, CanAccess(nil, owner))
	assert.False(t, CanAccess(order, Actor{}))
}
