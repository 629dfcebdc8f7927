package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"marketplace-service/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

func respondOK(c echo.Context, code int, data interface{}) error {
	return c.JSON(code, echo.Map{"success": true, "data": data})
}

func respondMessage(c echo.Context, code int, message string) error {
	return c.JSON(code, echo.Map{"success": false, "message": message})
}

// respondError maps service errors onto the HTTP surface: validation errors
// carry field detail at 422, business rule violations surface their message
// at 400, ownership and existence failures are both 404, and anything else
// is logged and hidden behind a generic 500.
func respondError(c echo.Context, err error) error {
	var validationErr *entity.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  validationErr.Fields,
		})
	}

	switch {
	case errors.Is(err, entity.ErrEmptyCart),
		errors.Is(err, entity.ErrInvalidCoupon),
		errors.Is(err, entity.ErrCouponExpired),
		errors.Is(err, entity.ErrUsageLimitReached),
		errors.Is(err, entity.ErrDuplicateSellerCoupon),
		errors.Is(err, entity.ErrCouponNotApplicable),
		errors.Is(err, entity.ErrMinimumOrderNotMet),
		errors.Is(err, entity.ErrInsufficientStock),
		errors.Is(err, entity.ErrPaymentNotSucceeded),
		errors.Is(err, entity.ErrDuplicatePayment),
		errors.Is(err, entity.ErrProductNotFound):
		return respondMessage(c, http.StatusBadRequest, err.Error())

	case errors.Is(err, entity.ErrCouponCodeTaken):
		return respondMessage(c, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, entity.ErrOrderNotFound),
		errors.Is(err, entity.ErrCouponNotFound),
		errors.Is(err, entity.ErrCartItemNotFound):
		return respondMessage(c, http.StatusNotFound, err.Error())

	case errors.Is(err, entity.ErrPaymentVerification):
		return respondMessage(c, http.StatusInternalServerError, "Failed to verify payment")
	}

	logger.Error().Err(err).Str("path", c.Path()).Msg("internal error")
	return respondMessage(c, http.StatusInternalServerError, "An unexpected error occurred")
}
