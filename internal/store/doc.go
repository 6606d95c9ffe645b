// Package store provides durable string key-value storage for credentials.
//
// The client keeps exactly one long-lived secret, the auth token, under the
// key "authToken". Store persists it in SQLite so a login survives process
// restarts; Memory is the in-process equivalent for tests and one-shot runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - One open connection: writes are serialized
//
// Every write bumps a logical seq counter. Keys lists entries ordered by
// seq ASC, key ASC COLLATE BINARY, never by timestamps.
package store
