package models

import "errors"

var (
	// ErrNoData indicates the vendor returned an empty result set for the
	// requested symbol/date.
	ErrNoData = errors.New("no data available")

	// ErrNotInSubscription indicates the vendor rejected a flat-file
	// download because the plan does not include it.
	ErrNotInSubscription = errors.New("flat files not included in subscription")

	ErrInvalidRequestType = errors.New("invalid request type")
)
