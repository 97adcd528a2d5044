package settlement

import (
	"sync"
	"time"

	"github.com/madflojo/tasks"
	"go.uber.org/zap"
)

const countdownTaskID = "settlement-countdown"

// Countdown fans a process-wide clock tick out to every registered session
type Countdown struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *zap.Logger
}

// NewCountdown creates an empty hub
func NewCountdown(logger *zap.Logger) *Countdown {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Countdown{
		sessions: make(map[string]*Session),
		logger:   logger.With(zap.String("component", "countdown")),
	}
}

// Add registers a session; it is dropped once settled or closed
func (c *Countdown) Add(s *Session) {
	c.mu.Lock()
	c.sessions[s.ID()] = s
	c.mu.Unlock()

	go func() {
		select {
		case <-s.Done():
		case <-s.ctx.Done():
		}
		c.remove(s)
	}()
}

// remove unregisters s unless another session took its id
func (c *Countdown) remove(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessions[s.ID()] == s {
		delete(c.sessions, s.ID())
	}
}

// Remove unregisters a session
func (c *Countdown) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
}

// Len returns the number of registered sessions
func (c *Countdown) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// Tick delivers each session its seconds remaining at now
func (c *Countdown) Tick(now time.Time) {
	c.mu.RLock()
	sessions := make([]*Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		sessions = append(sessions, s)
	}
	c.mu.RUnlock()

	for _, s := range sessions {
		s.Tick(s.Swap().SecondsRemaining(now))
	}
}

// Schedule runs Tick on the scheduler every interval
func (c *Countdown) Schedule(scheduler *tasks.Scheduler, interval time.Duration) error {
	return scheduler.AddWithID(countdownTaskID, &tasks.Task{
		Interval: interval,
		TaskFunc: func() error {
			c.Tick(time.Now())
			return nil
		},
		ErrFunc: func(err error) {
			c.logger.Error("countdown tick failed", zap.Error(err))
		},
	})
}

// Unschedule stops the periodic tick
func (c *Countdown) Unschedule(scheduler *tasks.Scheduler) {
	scheduler.Del(countdownTaskID)
}
