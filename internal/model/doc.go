// Package model provides the forum's core data types.
//
// This package contains type definitions and pure encoding helpers only.
// All other internal packages import model; model imports nothing internal.
//
// Key design constraints:
//   - GroupID and Commitment are 256-bit unsigned integers, keyed as 32-byte big-endian
//   - PostID and SubPostID start at 1; SubPostID 0 marks a main post in composite keys
//   - A Post with Timestamp 0 does not exist
//   - Event payloads are canonical JSON with no floats and no nulls
package model
