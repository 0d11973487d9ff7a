package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"foodorder/internal/domain/pricing"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 金額計算のエラーは入力不正（400）として返す
func pricingError(err error) error {
	switch {
	case errors.Is(err, pricing.ErrNegativeUnitPrice),
		errors.Is(err, pricing.ErrNegativeQuantity),
		errors.Is(err, pricing.ErrNegativeDeliveryFee),
		errors.Is(err, pricing.ErrOverflow):
		return NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return NewHTTPError(http.StatusInternalServerError, "pricing error")
	}
}
