package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Elisee98/markethub-sub001/internal/models"
)

func TestTransitionTableExhaustive(t *testing.T) {
	all := []models.OrderStatus{
		models.OrderPending, models.OrderProcessing, models.OrderShipped,
		models.OrderDelivered, models.OrderCancelled,
	}

	legal := map[[2]models.OrderStatus]bool{
		{models.OrderPending, models.OrderProcessing}:  true,
		{models.OrderPending, models.OrderCancelled}:   true,
		{models.OrderProcessing, models.OrderShipped}:  true,
		{models.OrderProcessing, models.OrderCancelled}: true,
		{models.OrderShipped, models.OrderDelivered}:   true,
	}

	// toute paire hors table doit être refusée, toute paire de la table acceptée
	for _, from := range all {
		for _, to := range all {
			expected := legal[[2]models.OrderStatus{from, to}]
			assert.Equal(t, expected, CanTransition(from, to), "%s → %s", from, to)
		}
	}
}

func TestCancelNotReachableAfterShipment(t *testing.T) {
	assert.False(t, CanTransition(models.OrderShipped, models.OrderCancelled))
	assert.False(t, CanTransition(models.OrderDelivered, models.OrderCancelled))
}

func TestPaymentTransitions(t *testing.T) {
	assert.True(t, canPaymentTransition(models.PaymentEventPending, models.PaymentEventProcessing))
	assert.True(t, canPaymentTransition(models.PaymentEventPending, models.PaymentEventCompleted))
	assert.True(t, canPaymentTransition(models.PaymentEventProcessing, models.PaymentEventCompleted))
	assert.True(t, canPaymentTransition(models.PaymentEventProcessing, models.PaymentEventFailed))
	assert.True(t, canPaymentTransition(models.PaymentEventCompleted, models.PaymentEventRefunded))

	// un nouvel essai après échec repart de zéro
	assert.True(t, canPaymentTransition(models.PaymentEventFailed, models.PaymentEventProcessing))
	assert.True(t, canPaymentTransition(models.PaymentEventFailed, models.PaymentEventCompleted))

	assert.False(t, canPaymentTransition(models.PaymentEventCompleted, models.PaymentEventCompleted))
	assert.False(t, canPaymentTransition(models.PaymentEventCompleted, models.PaymentEventFailed))
	assert.False(t, canPaymentTransition(models.PaymentEventRefunded, models.PaymentEventCompleted))
	assert.False(t, canPaymentTransition(models.PaymentEventFailed, models.PaymentEventRefunded))
	assert.False(t, canPaymentTransition(models.PaymentEventPending, models.PaymentEventRefunded))
}
