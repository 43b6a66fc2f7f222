// Package metrics records forum activity.
package metrics

import "time"

const (
	LabelOp        = "op"
	LabelCode      = "code"
	LabelKind      = "kind"
	LabelDirection = "direction"

	KindPost    = "post"
	KindSubPost = "sub_post"

	DirectionUp   = "up"
	DirectionDown = "down"
)

// ForumMetrics is implemented by collectors the engine reports to.
type ForumMetrics interface {
	// CallCompleted records a successful public call and its duration.
	CallCompleted(op string, duration time.Duration)
	// CallRejected records a call that failed with the given error code.
	CallRejected(op string, code string)
	PostCreated(kind string)
	VoteCast(kind string, upvote bool)
	VoteDeleted(kind string, upvote bool)
	GroupCreated()
}

// Direction returns the label value for a vote direction.
func Direction(upvote bool) string {
	if upvote {
		return DirectionUp
	}
	return DirectionDown
}
