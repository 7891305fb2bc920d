// Package client is the state-management layer for the estate API.
//
// It mirrors what a browser front end keeps in its stores: an
// authenticated-session store and a listing-collection store, each owning a
// snapshot of state and mutating it only through named operations. Every
// operation follows the same three-phase pattern — start (loading set,
// previous error cleared), then success or failure (loading cleared,
// payload applied or error recorded). Failures never propagate as panics
// or stray goroutine errors: each operation funnels its outcome into the
// owning store's Err field and also returns it to the caller.
//
// ARCHITECTURE:
//
//	UI / caller → Store operation → Client adapter → REST API
//	                   ↓ events
//	            serialized reducer loop → snapshot → subscribers
//
// State transitions are pure reductions dispatched through a single
// serialized event queue per store, so any number of goroutines can invoke
// operations while snapshots stay consistent. Concurrent fetches of the
// same resource are fenced with monotonically increasing tokens: a
// response that settles after a newer fetch has started is discarded
// instead of clobbering fresher data.
package client
