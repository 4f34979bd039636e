package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflicting concurrent update")
	ErrInvalidOrder = errors.New("invalid order parameters")
	ErrWSDisconnect = errors.New("websocket disconnected")
)
