package render

import "log/slog"

type undoAction struct {
	name string
	fn   func()
}

// teardownStack records one undo action per acquired resource and releases
// them in exact reverse order.
type teardownStack struct {
	actions []undoAction
	logger  *slog.Logger
}

func (s *teardownStack) push(name string, fn func()) {
	s.actions = append(s.actions, undoAction{name: name, fn: fn})
}

func (s *teardownStack) len() int {
	return len(s.actions)
}

// unwind runs every recorded action, newest first, and empties the stack.
func (s *teardownStack) unwind() {
	for i := len(s.actions) - 1; i >= 0; i-- {
		action := s.actions[i]
		if s.logger != nil {
			s.logger.Debug("destroy", "resource", action.name)
		}
		action.fn()
	}
	s.actions = nil
}
