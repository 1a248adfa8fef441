package session

import (
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"seswa/internal/config"
	"seswa/internal/domain/chat"
)

// SourceOptions selects how inbound chat messages reach a session.
type SourceOptions struct {
	Mode                 string
	WebSocketURL         string
	SimulatorInterval    time.Duration
	SimulatorProbability float64
	Logger               *zap.Logger
}

// SourcesFor returns a Deps.Sources factory for opts.Mode. Mode none, or an
// unknown mode, attaches nothing.
func SourcesFor(opts SourceOptions) func(*chat.Machine) []chat.Source {
	switch opts.Mode {
	case config.InboundSimulated:
		return func(m *chat.Machine) []chat.Source {
			return []chat.Source{chat.NewSimulator(m, chat.SimulatorConfig{
				Interval:    opts.SimulatorInterval,
				Probability: opts.SimulatorProbability,
				Logger:      opts.Logger,
			})}
		}
	case config.InboundWebSocket:
		return func(m *chat.Machine) []chat.Source {
			return []chat.Source{chat.NewWebSocketSource(chat.WebSocketConfig{
				URL:    withUser(opts.WebSocketURL, m.Owner().ID),
				Header: http.Header{"X-User-ID": []string{m.Owner().ID}},
				Logger: opts.Logger,
			})}
		}
	default:
		return nil
	}
}

func withUser(raw, userID string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("user_id", userID)
	u.RawQuery = q.Encode()
	return u.String()
}
