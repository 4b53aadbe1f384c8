package domain

import "time"

// DiscussionEntry is one line of the group discussion: either a statement
// by a speaker or a decision on the current topic. Seq numbers a session's
// entries from 1 in recording order.
type DiscussionEntry struct {
	Seq         int       `json:"seq,omitempty"`
	Phase       Phase     `json:"phase"`
	Topic       string    `json:"topic"`
	SpeakerID   string    `json:"agent_id,omitempty"`
	SpeakerName string    `json:"agent_name,omitempty"`
	Preference  int       `json:"preference,omitempty"`
	Statement   string    `json:"statement,omitempty"`
	Decision    int       `json:"decision,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// IsStatement reports whether the entry carries speech rather than a decision.
func (e DiscussionEntry) IsStatement() bool {
	return e.SpeakerID != "" && e.Statement != ""
}

// IsDecision reports whether the entry records a finalized option.
func (e DiscussionEntry) IsDecision() bool {
	return e.Decision != 0
}
