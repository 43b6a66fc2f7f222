package metrics

import "time"

type NoopCollector struct{}

var _ ForumMetrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

func (nc *NoopCollector) CallCompleted(op string, duration time.Duration) {}
func (nc *NoopCollector) CallRejected(op string, code string)             {}
func (nc *NoopCollector) PostCreated(kind string)                         {}
func (nc *NoopCollector) VoteCast(kind string, upvote bool)               {}
func (nc *NoopCollector) VoteDeleted(kind string, upvote bool)            {}
func (nc *NoopCollector) GroupCreated()                                   {}
