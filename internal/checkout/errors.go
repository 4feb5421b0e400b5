package checkout

import "errors"

var (
	ErrUnauthenticated = errors.New("missing user id")
	ErrInvalidRequest  = errors.New("missing order details")
	ErrNoValidItems    = errors.New("no valid items in order")
	ErrProductNotFound = errors.New("product not found")
)
