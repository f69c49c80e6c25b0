package model

import "errors"

// Error taxonomy shared by the registry, transport and scheduler.
var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidInterval   = errors.New("invalid interval")
	ErrNotSubscribed     = errors.New("not subscribed")
	ErrTransientDelivery = errors.New("transient delivery failure")
	ErrPermanentDelivery = errors.New("permanent delivery failure")
	ErrStoreWrite        = errors.New("store write failure")
)
