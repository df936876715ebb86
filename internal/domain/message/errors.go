package message

import "errors"

var (
	ErrContentRequired = errors.New("message content is required")
	ErrContentTooLong  = errors.New("message content exceeds 500 characters")
)
