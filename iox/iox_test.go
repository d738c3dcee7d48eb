package iox

import (
	"errors"
	"io"
	"testing"
)

type spyCloser struct{ closed bool }

func (s *spyCloser) Close() error { s.closed = true; return errors.New("ignored") }

func TestDiscardClose(t *testing.T) {
	s := &spyCloser{}
	DiscardClose(s)
	if !s.closed {
		t.Fatal("Close was not called")
	}
}

func TestCloseAll(t *testing.T) {
	a, b := &spyCloser{}, &spyCloser{}
	var nilCloser io.Closer
	CloseAll(a, nilCloser, b)
	if !a.closed || !b.closed {
		t.Fatalf("closed = %v/%v, want both", a.closed, b.closed)
	}
}

func TestCloseFunc(t *testing.T) {
	s := &spyCloser{}
	fn := CloseFunc(s)
	if s.closed {
		t.Fatal("Close called before invoking returned func")
	}
	fn()
	if !s.closed {
		t.Fatal("Close was not called")
	}
}
