package chat

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"seswa/internal/domain"
	"seswa/internal/pkg/logger"
)

const (
	DefaultSimulatorInterval    = 30 * time.Second
	DefaultSimulatorProbability = 0.3
)

var cannedReplies = []string{
	"Thanks for your message! I'll get back to you soon.",
	"That's a great question. Let me think about it.",
	"Are you coming to the next SESWA event?",
	"I've shared some resources that might help.",
	"Let's schedule a call this week.",
}

// ThreadLister is the read side of a chat machine.
type ThreadLister interface {
	Owner() domain.User
	Chats() []Thread
}

type SimulatorConfig struct {
	Interval    time.Duration
	Probability float64
	Rand        *rand.Rand
	Logger      *zap.Logger
	Now         func() time.Time
}

// Simulator stands in for a real transport: every Interval it delivers, with
// probability Probability, a canned reply into a random existing thread.
type Simulator struct {
	threads ThreadLister
	cfg     SimulatorConfig
	log     *zap.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSimulator(threads ThreadLister, cfg SimulatorConfig) *Simulator {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSimulatorInterval
	}
	if cfg.Probability < 0 || cfg.Probability > 1 {
		cfg.Probability = DefaultSimulatorProbability
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	rnd := cfg.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{
		threads: threads,
		cfg:     cfg,
		log:     logger.OrNop(cfg.Logger).With(zap.String("source", "simulator")),
		rnd:     rnd,
	}
}

// OnMessage runs the delivery timer until stop is called.
func (s *Simulator) OnMessage(handler func(Inbound)) (stop func()) {
	quit := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				select {
				case <-quit:
					return
				default:
				}
				s.Tick(handler)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(quit)
			<-done
		})
	}
}

// Tick performs one timer round. It reports whether a message was delivered.
func (s *Simulator) Tick(handler func(Inbound)) bool {
	chats := s.threads.Chats()
	if len(chats) == 0 {
		return false
	}

	s.mu.Lock()
	if s.rnd.Float64() >= s.cfg.Probability {
		s.mu.Unlock()
		return false
	}
	t := chats[s.rnd.Intn(len(chats))]
	sender := s.pickSender(t)
	content := cannedReplies[s.rnd.Intn(len(cannedReplies))]
	s.mu.Unlock()

	handler(Inbound{
		ChatID: t.ID,
		Message: Message{
			SenderID:   sender,
			SenderName: DisplayName(sender),
			Content:    content,
			Type:       MessageText,
			Timestamp:  s.cfg.Now().UTC(),
		},
	})
	s.log.Debug("simulated message delivered", zap.String("chat_id", t.ID), zap.String("sender_id", sender))
	return true
}

// pickSender chooses a participant other than the owner, or the system
// sender when the owner is alone in the thread. Caller holds s.mu.
func (s *Simulator) pickSender(t Thread) string {
	ownerID := s.threads.Owner().ID
	others := make([]string, 0, len(t.Participants))
	for _, p := range t.Participants {
		if p != ownerID {
			others = append(others, p)
		}
	}
	if len(others) == 0 {
		return SystemSender
	}
	return others[s.rnd.Intn(len(others))]
}
