// Package storage defines the transactional persistence contract of the forum.
//
// The host supplies durable key-indexed storage with all-or-nothing semantics
// per call. Every public engine operation runs inside exactly one Update (or
// View) closure; if the closure returns an error, no write it performed is
// visible afterwards.
//
// # Schema
//
// State is addressed by flat composite keys:
//
//   - ledger                                  singleton (oracle, admin, group counter)
//   - group_names[group]                      name
//   - group_list[index]                       group id, in creation order
//   - group_post_counters[group]              last assigned post id
//   - posts[group, post, sub]                 post record (sub = 0 for main posts)
//   - vote_flags[voter, group, post, sub]     true while a vote is outstanding
//   - events[seq]                             notification log, gapless from 1
//
// Backends live in sub-packages: sqlite (default) and badger.
package storage
