package service

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// ControllerFactory builds the controller for a new session.
type ControllerFactory func(chatID int64) *Controller

// Sessions keeps one Controller per chat for the lifetime of the process.
type Sessions struct {
	mutex       *sync.Mutex
	controllers map[int64]*Controller
	factory     ControllerFactory
}

func NewSessions(factory ControllerFactory) *Sessions {
	return &Sessions{
		mutex:       &sync.Mutex{},
		controllers: make(map[int64]*Controller),
		factory:     factory,
	}
}

func (s *Sessions) Get(chatID int64) *Controller {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	c, ok := s.controllers[chatID]
	if !ok {
		log.Debug().Int64("chatId", chatID).Msg("starting session")
		c = s.factory(chatID)
		s.controllers[chatID] = c
	}

	return c
}

// Close detaches every controller and waits for outstanding work.
func (s *Sessions) Close() {
	s.mutex.Lock()
	controllers := make([]*Controller, 0, len(s.controllers))
	for _, c := range s.controllers {
		controllers = append(controllers, c)
	}
	s.mutex.Unlock()

	for _, c := range controllers {
		c.Close()
	}
	for _, c := range controllers {
		c.Wait()
	}
}
