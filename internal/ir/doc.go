// Package ir provides the host-facing value model for summa.
//
// This package contains the value domain, method and heap identities, and
// canonical serialization. All other internal packages import ir; ir
// imports nothing internal.
//
// Key design constraints:
//   - Value is a closed tagged variant; every type switch over it is exhaustive
//   - A void return is a nil Value, never Null
//   - Values serialize in their kind:literal text form, so reports stay
//     deterministic even for floating point values
//   - All JSON tags use snake_case except the report contract documents
package ir
