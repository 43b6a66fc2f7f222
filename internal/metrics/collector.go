package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const subsystemForum = "forum"

// ForumCollector reports ForumMetrics to prometheus.
type ForumCollector struct {
	calls    *prometheus.HistogramVec
	rejected *prometheus.CounterVec
	posts    *prometheus.CounterVec
	votes    *prometheus.CounterVec
	deleted  *prometheus.CounterVec
	groups   prometheus.Counter
}

var _ ForumMetrics = (*ForumCollector)(nil)

// NewForumCollector registers the forum metrics with reg.
func NewForumCollector(namespace string, reg prometheus.Registerer) *ForumCollector {
	factory := promauto.With(reg)

	return &ForumCollector{
		calls: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:      "call_duration_seconds",
			Namespace: namespace,
			Subsystem: subsystemForum,
			Help:      "duration of successful forum calls",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{LabelOp}),

		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "calls_rejected_total",
			Namespace: namespace,
			Subsystem: subsystemForum,
			Help:      "the number of forum calls that failed, by error code",
		}, []string{LabelOp, LabelCode}),

		posts: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "posts_created_total",
			Namespace: namespace,
			Subsystem: subsystemForum,
			Help:      "the number of posts and sub-posts created",
		}, []string{LabelKind}),

		votes: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "votes_cast_total",
			Namespace: namespace,
			Subsystem: subsystemForum,
			Help:      "the number of votes cast",
		}, []string{LabelKind, LabelDirection}),

		deleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "votes_deleted_total",
			Namespace: namespace,
			Subsystem: subsystemForum,
			Help:      "the number of votes deleted, by the direction the caller named",
		}, []string{LabelKind, LabelDirection}),

		groups: factory.NewCounter(prometheus.CounterOpts{
			Name:      "groups_created_total",
			Namespace: namespace,
			Subsystem: subsystemForum,
			Help:      "the number of groups created, including the bootstrap group",
		}),
	}
}

func (fc *ForumCollector) CallCompleted(op string, duration time.Duration) {
	fc.calls.With(prometheus.Labels{LabelOp: op}).Observe(duration.Seconds())
}

func (fc *ForumCollector) CallRejected(op string, code string) {
	fc.rejected.With(prometheus.Labels{LabelOp: op, LabelCode: code}).Inc()
}

func (fc *ForumCollector) PostCreated(kind string) {
	fc.posts.With(prometheus.Labels{LabelKind: kind}).Inc()
}

func (fc *ForumCollector) VoteCast(kind string, upvote bool) {
	fc.votes.With(prometheus.Labels{LabelKind: kind, LabelDirection: Direction(upvote)}).Inc()
}

func (fc *ForumCollector) VoteDeleted(kind string, upvote bool) {
	fc.deleted.With(prometheus.Labels{LabelKind: kind, LabelDirection: Direction(upvote)}).Inc()
}

func (fc *ForumCollector) GroupCreated() {
	fc.groups.Inc()
}
