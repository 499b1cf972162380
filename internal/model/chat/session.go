package chat

import "time"

// State 会话当前所处的状态。
type State string

const (
	StateIdle          State = "idle"
	StateAwaitingReply State = "awaiting-reply"
)

// Session captures one interactive conversation: an append-only turn list.
type Session struct {
	ID        string    `json:"id"`
	State     State     `json:"state"`
	Turns     []Turn    `json:"turns"`
	CreatedAt time.Time `json:"createdAt"`
}

// Len returns the number of turns recorded so far.
func (s Session) Len() int {
	return len(s.Turns)
}

// Last returns the most recent turn, if any.
func (s Session) Last() (Turn, bool) {
	if len(s.Turns) == 0 {
		return Turn{}, false
	}
	return s.Turns[len(s.Turns)-1], true
}

// Clone returns a copy whose turn slice does not alias the receiver's.
func (s Session) Clone() Session {
	out := s
	out.Turns = append(make([]Turn, 0, len(s.Turns)+2), s.Turns...)
	return out
}
