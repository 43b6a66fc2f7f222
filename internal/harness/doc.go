// Package harness runs forum scenarios written in YAML against the engine.
//
// # Scenario Format
//
//	name: vote_once
//	description: "A voter cannot vote twice on the same post"
//	clock: { start: 1700000000, step: 1 }
//	setup:
//	  - op: init
//	  - op: add_member
//	    args: { group: "1", commitment: "1" }
//	steps:
//	  - op: create_main_post
//	    args: { group: "1", content: "hello" }
//	    expect:
//	      result: { post_id: 1 }
//	  - op: vote_on_post
//	    sender: alice
//	    args: { group: "1", post: 1, up: true, commitment: "1" }
//	  - op: vote_on_post
//	    sender: alice
//	    args: { group: "1", post: 1, up: true, commitment: "1" }
//	    expect:
//	      error: ALREADY_VOTED
//	assertions:
//	  - type: event_order
//	    events: [PostCreated, VoteCast]
//	  - type: post_state
//	    group: "1"
//	    post: 1
//	    expect: { upvotes: 1 }
//
// Setup steps must succeed. A step without expect must succeed; expect.error
// names the ForumError code the step must fail with.
//
// # Accounts
//
// Senders are hex addresses or one of the named accounts admin, alice, bob,
// carol and dave. The default sender is the scenario admin, which defaults
// to the admin account.
//
// # Assertion Types
//
//   - event_count: number of persisted events, optionally of one type
//   - event_order: event types appear in this order
//   - event_contains: an event of a type whose payload has the given fields
//   - post_state: fields of a post or sub-post record
//   - vote_flag: whether a voter has an outstanding vote
//   - counter: the group counter or a group's post counter
//
// # Deterministic Testing
//
// Every run uses a fresh store, a fresh local oracle, a step clock and
// sequential call ids, so the same scenario always produces the same event
// log and can be compared against a golden file.
package harness
