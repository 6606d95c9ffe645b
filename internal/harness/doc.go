// Package harness replays scripted storefront sessions.
//
// A scenario runs against a fresh store whose credential store is in
// memory and whose backend is the sandbox, served in-process. Every
// command that reaches the root reducer is traced, and the final state is
// snapshotted as canonical JSON for golden comparison.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	storage:
//	  authToken: "header.payload.signature"
//	flow:
//	  - dispatch: CART_ADD
//	    args: { good: { _id: good-sencha, price: 120 }, count: 2 }
//	    expect: { changed: true }
//	  - effect: login
//	    args: { login: demo, password: demo }
//	    expect: { status: FULFILLED }
//	assertions:
//	  - type: trace_order
//	    actions: [PROMISE, AUTH_LOGIN]
//	  - type: final_state
//	    slice: cart
//	    key: good-sencha
//	    expect: { count: 2 }
//
// Flow steps either dispatch a command by wire tag, with args as its
// fields, or run a named shop effect: register, login, root_categories,
// category, good, orders, checkout. AUTH_LOGIN accepts claims instead of a
// token; the harness signs them with TokenSecret.
//
// # Assertion Types
//
//   - trace_contains: a command with matching fields was dispatched
//   - trace_order: commands were dispatched in the given relative order
//   - trace_count: a command was dispatched exactly N times
//   - final_state: a slice, or one entry of it, matches (subset semantics)
//   - storage: the credential store holds (or lacks) a key
//   - notify_count: subscribers were notified exactly N times
//
// # Deterministic Testing
//
// The sandbox uses sequential ids ("id-1", "id-2", ...), a fixed clock,
// and a fixed signing secret, so traces and snapshots are identical across
// runs.
package harness
