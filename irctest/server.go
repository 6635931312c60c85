// Package irctest provides a mock server transport for exercising a Client without a real
// network connection.
package irctest

import (
	"bufio"
	"io"
	"log"
	"strings"
	"sync"
)

// NewServer creates a new mock IRC server that implements io.ReadWriteCloser, suitable as
// the return value of a Client.DialFn in tests. Don't forget to Close it.
func NewServer() *Server {
	s := &Server{lines: make(chan string, 16)}
	s.sendReader, s.sendWriter = io.Pipe()
	s.recvReader, s.recvWriter = io.Pipe()
	go s.scan()
	return s
}

// Server is a mock IRC server: WriteString feeds lines to the client, and Lines reports
// what the client sent back.
type Server struct {
	closeOnce sync.Once
	lines     chan string

	recvReader *io.PipeReader
	recvWriter *io.PipeWriter

	sendReader *io.PipeReader
	sendWriter *io.PipeWriter
}

// Read is how the client reads lines from the server.
func (s *Server) Read(p []byte) (int, error) {
	return s.sendReader.Read(p)
}

// Write is how the client sends messages to the server.
func (s *Server) Write(p []byte) (int, error) {
	return s.recvWriter.Write(p)
}

func (s *Server) Close() error {
	_ = s.recvWriter.Close()
	_ = s.sendWriter.Close()
	s.closeOnce.Do(func() { close(s.lines) })
	return nil
}

// WriteString sends a raw line to the client, appending a trailing CRLF if missing.
func (s *Server) WriteString(str string) {
	if !strings.HasSuffix(str, "\r\n") {
		str += "\r\n"
	}
	if _, err := s.sendWriter.Write([]byte(str)); err != nil {
		log.Println("mock server write error:", err)
	}
}

// Lines returns the channel of raw lines (CRLF stripped) the client has sent to this
// mock server, in order.
func (s *Server) Lines() <-chan string {
	return s.lines
}

func (s *Server) scan() {
	scanner := bufio.NewScanner(s.recvReader)
	for scanner.Scan() {
		s.lines <- scanner.Text()
	}
}
