// Package badger provides the badger-backed forum store.
//
// Keys are a one-byte prefix code followed by fixed-width components, so
// prefix iteration yields group and event order directly. Values are msgpack
// records compressed with snappy.
package badger
