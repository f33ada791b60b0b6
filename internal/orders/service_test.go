package orders_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/dentamart/internal/models"
	"github.com/example/dentamart/internal/orders"
	"github.com/example/dentamart/internal/orders/ordertest"
)

const courierFee = 15.0

func newFixture(t *testing.T) (*orders.Service, *ordertest.MemStore, *models.User) {
	t.Helper()
	store := ordertest.NewMemStore()
	user := store.AddUser(models.User{
		FirstName: "Aziza",
		LastName:  "Karimova",
		Email:     "aziza@example.com",
		Phone:     "+998901234567",
		Role:      models.RoleUser,
		IsActive:  true,
	})
	return orders.NewService(store, courierFee, "UZS"), store, user
}

func seedProduct(store *ordertest.MemStore, name string, price float64, stock int) *models.Product {
	return store.AddProduct(models.Product{
		SKU:           strings.ToUpper(name) + "-001",
		Name:          name,
		Price:         price,
		StockQuantity: stock,
		Status:        models.ProductPublished,
		IsActive:      true,
	})
}

func courierInput(userID uuid.UUID, lines ...orders.CheckoutLine) orders.CheckoutInput {
	return orders.CheckoutInput{
		UserID:         userID,
		Lines:          lines,
		DeliveryMethod: orders.DeliveryCourier,
		Address: orders.CheckoutAddress{
			AddressLine: "12 Amir Temur Avenue",
			City:        "Tashkent",
		},
		PaymentMethod: "cash",
	}
}

func TestPlaceOrderComputesTotals(t *testing.T) {
	svc, store, user := newFixture(t)
	gloves := seedProduct(store, "nitrile-gloves", 100, 10)
	burs := seedProduct(store, "diamond-burs", 50, 4)

	order, err := svc.PlaceOrder(context.Background(), courierInput(user.ID,
		orders.CheckoutLine{ProductID: gloves.ID, Quantity: 2},
		orders.CheckoutLine{ProductID: burs.ID, Quantity: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentUnpaid, order.PaymentStatus)
	assert.Equal(t, 250.0, order.Subtotal)
	assert.Equal(t, courierFee, order.DeliveryFee)
	assert.Equal(t, order.Subtotal+order.DeliveryFee, order.TotalAmount)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "DM-"), "order number %q", order.OrderNumber)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "nitrile-gloves", order.Items[0].ProductName)
	assert.Equal(t, 100.0, order.Items[0].UnitPrice)
	assert.Equal(t, 200.0, order.Items[0].LineTotal)

	assert.Equal(t, 8, store.StockOf(gloves.ID))
	assert.Equal(t, 3, store.StockOf(burs.ID))

	assert.Equal(t, "Aziza Karimova", order.CustomerName)
	assert.Equal(t, "aziza@example.com", order.CustomerEmail)
}

func TestPlaceOrderMergesDuplicateLines(t *testing.T) {
	svc, store, user := newFixture(t)
	gloves := seedProduct(store, "nitrile-gloves", 100, 10)

	order, err := svc.PlaceOrder(context.Background(), courierInput(user.ID,
		orders.CheckoutLine{ProductID: gloves.ID, Quantity: 1},
		orders.CheckoutLine{ProductID: gloves.ID, Quantity: 2},
	))
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, 7, store.StockOf(gloves.ID))
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	svc, store, user := newFixture(t)
	gloves := seedProduct(store, "nitrile-gloves", 100, 3)

	_, err := svc.PlaceOrder(context.Background(), courierInput(user.ID,
		orders.CheckoutLine{ProductID: gloves.ID, Quantity: 4},
	))

	var stockErr *orders.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "nitrile-gloves", stockErr.ProductName)
	assert.Equal(t, 4, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)

	// Full rollback: no order, no stock change.
	assert.Equal(t, 3, store.StockOf(gloves.ID))
	assert.Equal(t, 0, store.OrderCount())
}

func TestPlaceOrderRejectsWholeOrderOnOneBadLine(t *testing.T) {
	svc, store, user := newFixture(t)
	gloves := seedProduct(store, "nitrile-gloves", 100, 10)
	burs := seedProduct(store, "diamond-burs", 50, 1)

	_, err := svc.PlaceOrder(context.Background(), courierInput(user.ID,
		orders.CheckoutLine{ProductID: gloves.ID, Quantity: 2},
		orders.CheckoutLine{ProductID: burs.ID, Quantity: 5},
	))

	var stockErr *orders.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 10, store.StockOf(gloves.ID))
	assert.Equal(t, 1, store.StockOf(burs.ID))
	assert.Equal(t, 0, store.OrderCount())
}

func TestPlaceOrderSequentialDepletion(t *testing.T) {
	svc, store, user := newFixture(t)
	gloves := seedProduct(store, "nitrile-gloves", 100, 3)

	_, err := svc.PlaceOrder(context.Background(), courierInput(user.ID,
		orders.CheckoutLine{ProductID: gloves.ID, Quantity: 2},
	))
	require.NoError(t, err)
	assert.Equal(t, 1, store.StockOf(gloves.ID))

	_, err = svc.PlaceOrder(context.Background(), courierInput(user.ID,
		orders.CheckoutLine{ProductID: gloves.ID, Quantity: 2},
	))
	var stockErr *orders.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, store.StockOf(gloves.ID))
}

func TestPlaceOrderValidation(t *testing.T) {
	svc, store, user := newFixture(t)
	gloves := seedProduct(store, "nitrile-gloves", 100, 10)

	tests := []struct {
		name    string
		input   orders.CheckoutInput
		wantErr error
	}{
		{
			name:    "empty cart",
			input:   courierInput(user.ID),
			wantErr: orders.ErrEmptyCart,
		},
		{
			name: "unknown product",
			input: courierInput(user.ID,
				orders.CheckoutLine{ProductID: uuid.New(), Quantity: 1}),
			wantErr: orders.ErrProductNotFound,
		},
		{
			name: "unknown user",
			input: courierInput(uuid.New(),
				orders.CheckoutLine{ProductID: gloves.ID, Quantity: 1}),
			wantErr: orders.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPlaceOrderInvalidQuantity(t *testing.T) {
	svc, store, user := newFixture(t)
	gloves := seedProduct(store, "nitrile-gloves", 100, 10)

	for _, qty := range []int{0, -2} {
		_, err := svc.PlaceOrder(context.Background(), courierInput(user.ID,
			orders.CheckoutLine{ProductID: gloves.ID, Quantity: qty},
		))
		var quantityErr *orders.InvalidQuantityError
		require.ErrorAs(t, err, &quantityErr, "quantity %d", qty)
		assert.Equal(t, qty, quantityErr.Quantity)
	}
	assert.Equal(t, 10, store.StockOf(gloves.ID))
}

func TestPlaceOrderRejectsUnsellableProducts(t *testing.T) {
	svc, store, user := newFixture(t)

	draft := store.AddProduct(models.Product{
		SKU: "DRAFT-001", Name: "draft item", Price: 10,
		StockQuantity: 5, Status: models.ProductDraft, IsActive: true,
	})
	inactive := store.AddProduct(models.Product{
		SKU: "OFF-001", Name: "inactive item", Price: 10,
		StockQuantity: 5, Status: models.ProductPublished, IsActive: false,
	})

	for _, product := range []*models.Product{draft, inactive} {
		_, err := svc.PlaceOrder(context.Background(), courierInput(user.ID,
			orders.CheckoutLine{ProductID: product.ID, Quantity: 1},
		))
		var unavailableErr *orders.ProductUnavailableError
		require.ErrorAs(t, err, &unavailableErr, "product %s", product.Name)
		assert.Equal(t, 5, store.StockOf(product.ID))
	}
}

func TestPlaceOrderDeliveryResolution(t *testing.T) {
	svc, store, user := newFixture(t)
	gloves := seedProduct(store, "nitrile-gloves", 100, 10)
	line := orders.CheckoutLine{ProductID: gloves.ID, Quantity: 1}

	t.Run("unknown method", func(t *testing.T) {
		input := courierInput(user.ID, line)
		input.DeliveryMethod = "drone"
		_, err := svc.PlaceOrder(context.Background(), input)
		assert.ErrorIs(t, err, orders.ErrUnknownDeliveryMethod)
	})

	t.Run("pickup without branch", func(t *testing.T) {
		input := orders.CheckoutInput{
			UserID:         user.ID,
			Lines:          []orders.CheckoutLine{line},
			DeliveryMethod: orders.DeliveryPickup,
		}
		_, err := svc.PlaceOrder(context.Background(), input)
		assert.ErrorIs(t, err, orders.ErrPickupBranchNotFound)
	})

	t.Run("pickup is free", func(t *testing.T) {
		branch := store.AddBranch(models.PickupBranch{Name: "Chilanzar", IsActive: true})
		input := orders.CheckoutInput{
			UserID:         user.ID,
			Lines:          []orders.CheckoutLine{line},
			DeliveryMethod: orders.DeliveryPickup,
			PickupBranchID: &branch.ID,
		}
		order, err := svc.PlaceOrder(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, 0.0, order.DeliveryFee)
		assert.Equal(t, order.Subtotal, order.TotalAmount)
		require.NotNil(t, order.PickupBranchID)
		assert.Equal(t, branch.ID, *order.PickupBranchID)
	})

	t.Run("saved address", func(t *testing.T) {
		saved := store.AddAddress(models.UserAddress{
			UserID:      user.ID,
			AddressLine: "44 Navoi Street",
			City:        "Samarkand",
			District:    "Registan",
		})
		input := courierInput(user.ID, line)
		input.AddressID = &saved.ID
		order, err := svc.PlaceOrder(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, "44 Navoi Street", order.DeliveryAddressLine)
		assert.Equal(t, "Samarkand", order.DeliveryCity)
	})

	t.Run("foreign address rejected", func(t *testing.T) {
		other := store.AddUser(models.User{Email: "other@example.com", FirstName: "O"})
		saved := store.AddAddress(models.UserAddress{
			UserID:      other.ID,
			AddressLine: "1 Main",
			City:        "Bukhara",
		})
		input := courierInput(user.ID, line)
		input.AddressID = &saved.ID
		_, err := svc.PlaceOrder(context.Background(), input)
		assert.ErrorIs(t, err, orders.ErrAddressNotFound)
	})
}

func placeTestOrder(t *testing.T, svc *orders.Service, user *models.User, product *models.Product, qty int) *models.Order {
	t.Helper()
	order, err := svc.PlaceOrder(context.Background(), courierInput(user.ID,
		orders.CheckoutLine{ProductID: product.ID, Quantity: qty},
	))
	require.NoError(t, err)
	return order
}

func TestTransitionHappyPath(t *testing.T) {
	svc, store, user := newFixture(t)
	gloves := seedProduct(store, "nitrile-gloves", 100, 10)
	order := placeTestOrder(t, svc, user, gloves, 1)

	for _, target := range []models.OrderStatus{
		models.OrderConfirmed,
		models.OrderProcessing,
		models.OrderShipped,
		models.OrderDelivered,
	} {
		updated, err := svc.Transition(context.Background(), order.ID, target)
		require.NoError(t, err, "transition to %s", target)
		assert.Equal(t, target, updated.Status)
	}

	// Delivery never touches stock.
	assert.Equal(t, 9, store.StockOf(gloves.ID))
}

func TestTransitionRejectsInvalidEdges(t *testing.T) {
	tests := []struct {
		from models.OrderStatus
		to   models.OrderStatus
	}{
		{models.OrderPending, models.OrderProcessing},
		{models.OrderPending, models.OrderShipped},
		{models.OrderPending, models.OrderDelivered},
		{models.OrderConfirmed, models.OrderShipped},
		{models.OrderConfirmed, models.OrderPending},
		{models.OrderProcessing, models.OrderDelivered},
		{models.OrderShipped, models.OrderCancelled},
		{models.OrderShipped, models.OrderPending},
		{models.OrderDelivered, models.OrderCancelled},
		{models.OrderDelivered, models.OrderPending},
		{models.OrderCancelled, models.OrderPending},
		{models.OrderCancelled, models.OrderConfirmed},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			svc, store, user := newFixture(t)
			gloves := seedProduct(store, "nitrile-gloves", 100, 10)
			order := placeTestOrder(t, svc, user, gloves, 1)
			advanceTo(t, svc, order.ID, tt.from)

			_, err := svc.Transition(context.Background(), order.ID, tt.to)
			var transitionErr *orders.InvalidTransitionError
			require.ErrorAs(t, err, &transitionErr)
			assert.Equal(t, tt.from, transitionErr.From)
			assert.Equal(t, tt.to, transitionErr.To)
		})
	}
}

// advanceTo walks an order through valid edges until it reaches target.
func advanceTo(t *testing.T, svc *orders.Service, orderID uuid.UUID, target models.OrderStatus) {
	t.Helper()
	path := map[models.OrderStatus][]models.OrderStatus{
		models.OrderPending:    {},
		models.OrderConfirmed:  {models.OrderConfirmed},
		models.OrderProcessing: {models.OrderConfirmed, models.OrderProcessing},
		models.OrderShipped:    {models.OrderConfirmed, models.OrderProcessing, models.OrderShipped},
		models.OrderDelivered:  {models.OrderConfirmed, models.OrderProcessing, models.OrderShipped, models.OrderDelivered},
		models.OrderCancelled:  {models.OrderCancelled},
	}
	for _, step := range path[target] {
		_, err := svc.Transition(context.Background(), orderID, step)
		require.NoError(t, err, "advancing to %s via %s", target, step)
	}
}

func TestCancelRestoresStockBeforeShipment(t *testing.T) {
	for _, from := range []models.OrderStatus{
		models.OrderPending,
		models.OrderConfirmed,
		models.OrderProcessing,
	} {
		t.Run(string(from), func(t *testing.T) {
			svc, store, user := newFixture(t)
			gloves := seedProduct(store, "nitrile-gloves", 100, 5)
			order := placeTestOrder(t, svc, user, gloves, 2)
			require.Equal(t, 3, store.StockOf(gloves.ID))
			advanceTo(t, svc, order.ID, from)

			updated, err := svc.Transition(context.Background(), order.ID, models.OrderCancelled)
			require.NoError(t, err)
			assert.Equal(t, models.OrderCancelled, updated.Status)

			// Round trip: stock is back where it started.
			assert.Equal(t, 5, store.StockOf(gloves.ID))
		})
	}
}

func TestCancelAfterShipmentIsImpossible(t *testing.T) {
	svc, store, user := newFixture(t)
	gloves := seedProduct(store, "nitrile-gloves", 100, 5)
	order := placeTestOrder(t, svc, user, gloves, 2)
	advanceTo(t, svc, order.ID, models.OrderShipped)

	_, err := svc.Transition(context.Background(), order.ID, models.OrderCancelled)
	var transitionErr *orders.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, 3, store.StockOf(gloves.ID))
}

func TestTransitionUnknownOrder(t *testing.T) {
	svc, _, _ := newFixture(t)
	_, err := svc.Transition(context.Background(), uuid.New(), models.OrderConfirmed)
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func TestMarkPayment(t *testing.T) {
	svc, store, user := newFixture(t)
	gloves := seedProduct(store, "nitrile-gloves", 100, 5)
	order := placeTestOrder(t, svc, user, gloves, 1)

	updated, err := svc.MarkPayment(context.Background(), order.ID, models.PaymentPaid, "/uploads/proof.jpg")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)
	assert.Equal(t, "/uploads/proof.jpg", updated.PaymentProofURL)

	_, err = svc.MarkPayment(context.Background(), order.ID, models.PaymentUnpaid, "")
	var paymentErr *orders.InvalidPaymentChangeError
	require.ErrorAs(t, err, &paymentErr)

	updated, err = svc.MarkPayment(context.Background(), order.ID, models.PaymentRefunded, "")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, updated.PaymentStatus)
}

func TestMarkPaymentRefundRequiresPaid(t *testing.T) {
	svc, store, user := newFixture(t)
	gloves := seedProduct(store, "nitrile-gloves", 100, 5)
	order := placeTestOrder(t, svc, user, gloves, 1)

	_, err := svc.MarkPayment(context.Background(), order.ID, models.PaymentRefunded, "")
	var paymentErr *orders.InvalidPaymentChangeError
	require.ErrorAs(t, err, &paymentErr)
	assert.Equal(t, models.PaymentUnpaid, paymentErr.From)
}

func TestSnapshot(t *testing.T) {
	svc, store, user := newFixture(t)
	gloves := seedProduct(store, "nitrile-gloves", 100, 10)
	seedProduct(store, "diamond-burs", 50, 3)
	seedProduct(store, "impression-trays", 20, 0)

	first := placeTestOrder(t, svc, user, gloves, 1)
	second := placeTestOrder(t, svc, user, gloves, 2)
	_, err := svc.Transition(context.Background(), second.ID, models.OrderCancelled)
	require.NoError(t, err)

	snapshot, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), snapshot.TotalOrders)
	assert.Equal(t, int64(1), snapshot.OrdersByStatus[models.OrderPending])
	assert.Equal(t, int64(1), snapshot.OrdersByStatus[models.OrderCancelled])

	// Revenue excludes the cancelled order.
	assert.Equal(t, first.TotalAmount, snapshot.TotalRevenue)

	require.Len(t, snapshot.LowStock, 1)
	assert.Equal(t, "diamond-burs", snapshot.LowStock[0].Name)
	require.Len(t, snapshot.OutOfStock, 1)
	assert.Equal(t, "impression-trays", snapshot.OutOfStock[0].Name)
}

func TestConcurrentCheckoutNeverOversells(t *testing.T) {
	svc, store, user := newFixture(t)
	const stock = 5
	gloves := seedProduct(store, "nitrile-gloves", 100, stock)

	const attempts = 20
	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(context.Background(), courierInput(user.ID,
				orders.CheckoutLine{ProductID: gloves.ID, Quantity: 1},
			))
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	var succeeded, conflicted int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var stockErr *orders.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		conflicted++
	}

	assert.Equal(t, stock, succeeded)
	assert.Equal(t, attempts-stock, conflicted)
	assert.Equal(t, 0, store.StockOf(gloves.ID))
	assert.Equal(t, stock, store.OrderCount())
}

func TestConcurrentLastUnit(t *testing.T) {
	svc, store, user := newFixture(t)
	gloves := seedProduct(store, "nitrile-gloves", 100, 1)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(context.Background(), courierInput(user.ID,
				orders.CheckoutLine{ProductID: gloves.ID, Quantity: 1},
			))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded int
	for err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, store.StockOf(gloves.ID))
}

func TestConcurrentCancelRestocksOnce(t *testing.T) {
	svc, store, user := newFixture(t)
	const stock = 5
	gloves := seedProduct(store, "nitrile-gloves", 100, stock)
	order := placeTestOrder(t, svc, user, gloves, 2)
	require.Equal(t, stock-2, store.StockOf(gloves.ID))

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transition(context.Background(), order.ID, models.OrderCancelled)
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	var succeeded, rejected int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var transErr *orders.InvalidTransitionError
		require.ErrorAs(t, err, &transErr)
		assert.Equal(t, models.OrderCancelled, transErr.From)
		rejected++
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, rejected)
	assert.Equal(t, stock, store.StockOf(gloves.ID))
}

func TestTotalsStableAcrossTransitions(t *testing.T) {
	svc, store, user := newFixture(t)
	gloves := seedProduct(store, "nitrile-gloves", 100, 10)
	order := placeTestOrder(t, svc, user, gloves, 2)

	for _, target := range []models.OrderStatus{
		models.OrderConfirmed,
		models.OrderProcessing,
		models.OrderShipped,
		models.OrderDelivered,
	} {
		updated, err := svc.Transition(context.Background(), order.ID, target)
		require.NoError(t, err)
		assert.Equal(t, updated.Subtotal+updated.DeliveryFee, updated.TotalAmount)
		assert.Equal(t, order.TotalAmount, updated.TotalAmount)
	}
}
