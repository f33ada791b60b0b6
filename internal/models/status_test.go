package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []OrderStatus{
	OrderPending, OrderConfirmed, OrderProcessing,
	OrderShipped, OrderDelivered, OrderCancelled,
}

func TestOrderStatusTransitionTable(t *testing.T) {
	allowed := map[OrderStatus]map[OrderStatus]bool{
		OrderPending:    {OrderConfirmed: true, OrderCancelled: true},
		OrderConfirmed:  {OrderProcessing: true, OrderCancelled: true},
		OrderProcessing: {OrderShipped: true, OrderCancelled: true},
		OrderShipped:    {OrderDelivered: true},
		OrderDelivered:  {},
		OrderCancelled:  {},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := allowed[from][to]
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	terminal := map[OrderStatus]bool{
		OrderDelivered: true,
		OrderCancelled: true,
	}

	for _, status := range allStatuses {
		assert.Equal(t, terminal[status], status.IsTerminal(), "%s", status)
	}
}

func TestOrderStatusRestocksOnCancel(t *testing.T) {
	restocks := map[OrderStatus]bool{
		OrderPending:    true,
		OrderConfirmed:  true,
		OrderProcessing: true,
	}

	for _, status := range allStatuses {
		assert.Equal(t, restocks[status], status.RestocksOnCancel(), "%s", status)
	}
}

func TestParseOrderStatus(t *testing.T) {
	for _, status := range allStatuses {
		parsed, err := ParseOrderStatus(string(status))
		assert.NoError(t, err)
		assert.Equal(t, status, parsed)
	}

	for _, raw := range []string{"", "pending", "DONE", "SHIPPED "} {
		_, err := ParseOrderStatus(raw)
		assert.Error(t, err, "%q", raw)
	}
}

func TestParsePaymentStatus(t *testing.T) {
	for _, status := range []PaymentStatus{PaymentUnpaid, PaymentPaid, PaymentRefunded} {
		parsed, err := ParsePaymentStatus(string(status))
		assert.NoError(t, err)
		assert.Equal(t, status, parsed)
	}

	_, err := ParsePaymentStatus("paid")
	assert.Error(t, err)
}

func TestParseProductStatus(t *testing.T) {
	for _, status := range []ProductStatus{ProductDraft, ProductPublished, ProductArchived} {
		parsed, err := ParseProductStatus(string(status))
		assert.NoError(t, err)
		assert.Equal(t, status, parsed)
	}

	_, err := ParseProductStatus("LIVE")
	assert.Error(t, err)
}
