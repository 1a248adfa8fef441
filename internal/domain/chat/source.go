package chat

// Inbound is a message delivered from outside the session for thread ChatID.
type Inbound struct {
	ChatID  string
	Message Message
}

// Source pushes inbound messages. OnMessage starts delivery to handler and
// returns a function that stops it; no handler call happens after stop
// returns.
type Source interface {
	OnMessage(handler func(Inbound)) (stop func())
}
