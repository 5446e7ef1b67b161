package application

import (
	"bytes"
	"io"
	"sync"
)

// stderrBuffer collects a process's error stream and runs onFirstWrite once,
// when the first non-empty chunk arrives.
type stderrBuffer struct {
	mu           sync.Mutex
	buf          bytes.Buffer
	wrote        bool
	onFirstWrite func()
}

func (s *stderrBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	first := !s.wrote && len(p) > 0
	if len(p) > 0 {
		s.wrote = true
	}
	n, err := s.buf.Write(p)
	cb := s.onFirstWrite
	s.mu.Unlock()

	if first && cb != nil {
		cb()
	}
	return n, err
}

func (s *stderrBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// syncWriter serializes writes from concurrent fix processes.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
