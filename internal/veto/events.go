package veto

// Target identifies where an outbound Message should be delivered.
type Target string

const (
	// TargetConn delivers to a single connection (Message.ConnID).
	TargetConn Target = "conn"
	// TargetRoom delivers to every member and observer of the lobby.
	TargetRoom Target = "room"
	// TargetObs delivers to the dedicated obs_views meta-room pinned to
	// this lobby by the admin.
	TargetObs Target = "obs"
)

// Event is the wire shape for every outbound primitive in §6.
type Event struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Message pairs an Event with its delivery target.
type Message struct {
	Target Target
	ConnID string // set when Target == TargetConn
	Event  Event
}

// outbox accumulates the messages produced by a single controller step.
type outbox struct {
	lobbyID  string
	messages []Message
}

func (o *outbox) toRoom(evType string, payload map[string]interface{}) {
	o.messages = append(o.messages, Message{Target: TargetRoom, Event: Event{Type: evType, Payload: payload}})
}

func (o *outbox) toObs(evType string, payload map[string]interface{}) {
	o.messages = append(o.messages, Message{Target: TargetObs, Event: Event{Type: evType, Payload: payload}})
}

func (o *outbox) toConn(connID, evType string, payload map[string]interface{}) {
	o.messages = append(o.messages, Message{Target: TargetConn, ConnID: connID, Event: Event{Type: evType, Payload: payload}})
}

// emitCapabilities sends canWorkUpdated (carrying the full record) followed
// by the specific legacy-shaped booleans, satisfying §4.4's ordering
// guarantee: canWorkUpdated before any specific capability for the same
// connection.
func (o *outbox) emitCapabilities(connID string, caps Capabilities) {
	o.toConn(connID, "canWorkUpdated", map[string]interface{}{
		"canBan":          caps.CanBan,
		"canPick":         caps.CanPick,
		"canModeBan":      caps.CanModeBan,
		"canModePick":     caps.CanModePick,
		"canReportWinner": caps.CanReportWinner,
	})
	if caps.CanBan {
		o.toConn(connID, "canBan", nil)
	}
	if caps.CanPick {
		o.toConn(connID, "canPick", nil)
	}
	if caps.CanModeBan {
		o.toConn(connID, "canModeBan", nil)
	}
	if caps.CanModePick {
		o.toConn(connID, "canModePick", nil)
	}
	if caps.CanReportWinner {
		o.toConn(connID, "canReportWinner", nil)
	}
}

// stateMessage broadcasts a localized, human-readable gameStateUpdated event.
func (o *outbox) stateMessage(msg string) {
	o.toRoom("gameStateUpdated", map[string]interface{}{"message": msg})
}
