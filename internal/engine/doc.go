// Package engine implements the Ombu forum state machine.
//
// A Forum owns the ledger (admin, oracle address, group and post counters),
// the content store (posts and the single sub-post slot under each post),
// the vote ledger (per-voter flags and tallies) and admin gating. Proofs and
// group membership are delegated to an oracle.Oracle.
//
// EXECUTION MODEL:
//
// Every mutating call holds the forum mutex from start to finish, so calls are
// applied one at a time in arrival order. Within a call:
//  1. Initialization and admin checks read the ledger.
//  2. The oracle is consulted (proof validation, membership, group creation).
//  3. All local writes and event appends run in one storage transaction.
//  4. After commit, the call's events are published to subscribers.
//
// A call that fails at any step leaves storage untouched and publishes
// nothing. When the oracle implements oracle.Checkpointer its side effects
// (a consumed nullifier, a created group) are rolled back too, whether the
// call was rejected after validation or its storage transaction failed.
//
// VOTES:
//
// Deleting a vote decrements the counter named by the caller, not the one the
// original vote incremented. A voter who upvoted can delete with
// isUpvote=false and lower the downvote count instead. Tallies use checked
// arithmetic and fail with VOTE_COUNT_UNDERFLOW or VOTE_COUNT_OVERFLOW rather
// than wrapping. Deleting a vote emits no event.
package engine
