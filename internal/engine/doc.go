// Package engine implements the storefront state container.
//
// The engine is the heart of the client: it holds the composite state,
// folds commands through a root reducer, runs effects, and notifies
// subscribers of committed transitions.
//
// ARCHITECTURE:
//
// Commands and Effects:
// Dispatch accepts a tagged union. A Command is a plain record whose Type
// is the wire tag reducers switch on. An Effect is an effectful operation
// interpreted by the store: it receives dispatch and getState capabilities
// and may dispatch further commands and effects, synchronously or after
// blocking on I/O.
//
// Change Detection:
// Reducers return (next, changed). changed=false means "not handled" and
// suppresses notification; Combine returns the incoming State untouched
// when no slice changed.
//
// Notification Flow:
//  1. A command is reduced under the store mutex
//  2. On change, the state is committed and a pass is enqueued (FIFO)
//  3. The active drainer dequeues passes one at a time
//  4. Each pass snapshots the subscriber list and calls every subscriber
//
// Nested dispatches from subscribers commit immediately but queue their
// pass behind the running one, so passes never interleave.
//
// CRITICAL PATTERNS:
//
// Deterministic Evaluation:
// Slices are reduced in declaration order. Subscription ids and state
// versions come from atomic counters on the Store, never wall-clock time.
//
// No Errors Across the Boundary:
// Dispatch never returns an error. Failures are recorded in state by the
// reducers and effects that produce them.
package engine
