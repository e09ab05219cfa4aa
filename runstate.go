package main

import "sync"

// RunState carries the process-wide fatal flag. The flag is set at most
// once; later attempts keep the first message. Admission points poll it
// before starting a subject and before dispatching or consuming a
// question task.
type RunState struct {
	mu      sync.Mutex
	fatal   bool
	message string
}

// TrySetFatal marks the run fatal and reports whether this call was the
// one that set it.
func (s *RunState) TrySetFatal(msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fatal {
		return false
	}
	s.fatal = true
	s.message = msg
	return true
}

func (s *RunState) Fatal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fatal
}

func (s *RunState) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}
