package meshrun

import (
	"context"
	"io"
	"reflect"
	"sync"

	"google.golang.org/grpc/metadata"
)

// fakeClientStream is a minimal grpc.ClientStream double: messages queued
// in recv are handed out in order by RecvMsg, and every SendMsg call is
// recorded for assertions. It backs the meshpb fakes used to drive
// EventStore (and through it CommandProvider) and SubmitClient without a
// live broker.
type fakeClientStream struct {
	mu      sync.Mutex
	recv    []any
	recvIdx int
	recvErr error
	sent    []any
}

func newFakeClientStream(recv ...any) *fakeClientStream {
	return &fakeClientStream{recv: recv}
}

func (s *fakeClientStream) Header() (metadata.MD, error) { return nil, nil }
func (s *fakeClientStream) Trailer() metadata.MD          { return nil }
func (s *fakeClientStream) CloseSend() error              { return nil }
func (s *fakeClientStream) Context() context.Context      { return context.Background() }

func (s *fakeClientStream) SendMsg(m any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, m)
	return nil
}

func (s *fakeClientStream) RecvMsg(m any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recvIdx >= len(s.recv) {
		if s.recvErr != nil {
			return s.recvErr
		}
		return io.EOF
	}
	v := s.recv[s.recvIdx]
	s.recvIdx++
	reflect.ValueOf(m).Elem().Set(reflect.ValueOf(v).Elem())
	return nil
}

func (s *fakeClientStream) sentMessages() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]any, len(s.sent))
	copy(out, s.sent)
	return out
}
