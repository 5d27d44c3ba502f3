package room

import "holdemsim-server/pkg/engine"

// rejections surfaced to clients as validation failures
var (
	errGameAlreadyStarted = engine.ValidationError("game has already started")
	errInvalidBuyIn       = engine.ValidationError("buy-in must be greater than zero")
)
