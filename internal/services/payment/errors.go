package payment

import "errors"

var (
	ErrInvoiceNotFound    = errors.New("invoice not found")
	ErrInvalidAmount      = errors.New("invalid invoice amount")
	ErrMissingCredentials = errors.New("missing gateway credentials")
	ErrAlreadyPaid        = errors.New("invoice already paid")
	ErrGatewayTimeout     = errors.New("gateway timeout")
	ErrGatewayError       = errors.New("gateway error")
)
