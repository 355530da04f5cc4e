// Package ir provides the foundational types for modelfilter.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps ir the bottom layer
// with no circular dependencies.
//
// Key design constraints:
//   - NO float types anywhere - use int64 for numbers (deterministic encoding)
//   - FilterDescriptor and ModelSpec never carry request values
//   - All JSON tags use snake_case
//   - Every error returned across package boundaries is an *Error with a Code
package ir
