package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/dentamart/internal/orders"
)

// mapOrderError translates lifecycle errors into HTTP responses. Anything it
// does not recognize bubbles up as an internal error without leaking detail.
func mapOrderError(err error) error {
	if err == nil {
		return nil
	}

	var (
		insufficientStock *orders.InsufficientStockError
		invalidQuantity   *orders.InvalidQuantityError
		unavailable       *orders.ProductUnavailableError
		invalidTransition *orders.InvalidTransitionError
		invalidPayment    *orders.InvalidPaymentChangeError
	)

	switch {
	case errors.As(err, &insufficientStock):
		return fiber.NewError(fiber.StatusConflict, insufficientStock.Error())
	case errors.As(err, &invalidTransition):
		return fiber.NewError(fiber.StatusConflict, invalidTransition.Error())
	case errors.As(err, &invalidPayment):
		return fiber.NewError(fiber.StatusConflict, invalidPayment.Error())
	case errors.As(err, &invalidQuantity):
		return fiber.NewError(fiber.StatusBadRequest, invalidQuantity.Error())
	case errors.As(err, &unavailable):
		return fiber.NewError(fiber.StatusConflict, unavailable.Error())
	case errors.Is(err, orders.ErrEmptyCart),
		errors.Is(err, orders.ErrUnknownDeliveryMethod):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, orders.ErrProductNotFound),
		errors.Is(err, orders.ErrUserNotFound),
		errors.Is(err, orders.ErrAddressNotFound),
		errors.Is(err, orders.ErrPickupBranchNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return err
}
