// Package ir provides the value model shared by the storefront packages.
//
// This package contains type definitions and serialization only. All other
// internal packages may import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Value is a sealed union; opaque records (token claims, GraphQL
//     variables, scenario payloads) are carried as Object
//   - Integral numbers decode to Int, never float64, so ids and counts
//     round-trip exactly
//   - MarshalCanonical is the only serialization used for snapshots
package ir
