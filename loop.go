// Copyright (c) 2024 Jerzy Dąbrowski
// Based on original work by Thomas Jager, 2009. All rights reserved.
//
// This project is a fork of the original go-ircevent library created by Thomas Jager.
// Redistribution and use in source and binary forms, with or without modification, are permitted provided
// that the following conditions are met:
//
//    - Redistributions of source code must retain the above copyright notice, this list of conditions,
//      and the following disclaimer.
//    - Redistributions in binary form must reproduce the above copyright notice, this list of conditions,
//      and the following disclaimer in the documentation and/or other materials provided with the distribution.
//    - Neither the name of the original authors nor the names of its contributors may be used to endorse
//      or promote products derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED "AS IS" WITHOUT WARRANTY OF ANY KIND, EXPRESS OR IMPLIED, INCLUDING BUT NOT
// LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE, AND NONINFRINGEMENT.
// IN NO EVENT SHALL THE COPYRIGHT HOLDERS OR CONTRIBUTORS BE LIABLE FOR ANY CLAIM, DAMAGES, OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT, OR OTHERWISE, ARISING FROM, OUT OF, OR IN CONNECTION WITH THE SOFTWARE
// OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package irc

import (
	"errors"
	"io"
	"net"
	"sync"
)

// replyQueue is the sole synchronisation primitive between callback
// producers and the writer goroutine: one mutex, one condition variable,
// one slice. The queue drains FIFO (from the head), not LIFO as a stack
// pop would, so replies go out in the order callbacks produced them.
type replyQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*Message
	closed bool
}

func newReplyQueue() *replyQueue {
	q := &replyQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends a reply and wakes the writer. The Message is expected to
// already be an owned copy (see Message.clone), since it may be called
// from a detached worker goroutine and is read later by the writer
// goroutine.
func (q *replyQueue) push(m *Message) {
	q.mu.Lock()
	q.items = append(q.items, m)
	q.mu.Unlock()
	q.cond.Signal()
}

// pop blocks until a reply is available or the queue is closed, then
// removes and returns the oldest reply (FIFO).
func (q *replyQueue) pop() (*Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	m := q.items[0]
	q.items = q.items[1:]
	return m, true
}

func (q *replyQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// LoopOptions configures Session.Loop.
type LoopOptions struct {
	// OnMessage is invoked for every typed inbound Message. It may return
	// a reply Message to enqueue, or nil to send nothing.
	OnMessage func(*Message) *Message

	// ShouldSpawn decides, per dispatched message, whether OnMessage runs
	// inline on the reader (false) or on a freshly spawned, detached
	// goroutine (true). A nil ShouldSpawn always runs inline.
	ShouldSpawn func(*Message) bool
}

// Loop spawns the writer on a goroutine, then runs the reader on the
// caller's goroutine until the transport signals EOF or a read error.
// When the reader returns, Loop closes the reply queue and waits for the
// writer to drain what is queued and exit; the writer is not detached.
// It returns the read error if there was one, otherwise the first write
// error the writer recorded.
func (s *Session) Loop(opts LoopOptions) error {
	s.mu.Lock()
	conn := s.socket
	s.mu.Unlock()
	if conn == nil {
		return wrapErr(ErrConnection, errors.New("not connected"))
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runWriter()
	}()

	readErr := s.runReader(conn, opts)

	s.queue.close()
	wg.Wait()

	if readErr != nil {
		return readErr
	}
	return s.writeErr()
}

// runReader is the reader half: frame a line, hand it to handleMessage,
// dispatch any typed result per opts, and repeat until EOF.
func (s *Session) runReader(conn net.Conn, opts LoopOptions) error {
	reader := newLineReader(conn, s.cfg.Encoding)

	for {
		line, err := reader.readLine()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return wrapErr(ErrNetworkRead, err)
		}

		s.handleMessage(line, func(msg *Message) {
			s.dispatch(msg, opts)
		})
	}
}

// dispatch runs OnMessage either inline or on a detached goroutine per
// ShouldSpawn, copying the Message into owned storage before it crosses
// the goroutine boundary, and enqueues any reply for the writer to drain.
func (s *Session) dispatch(msg *Message, opts LoopOptions) {
	if opts.OnMessage == nil {
		return
	}

	spawn := opts.ShouldSpawn != nil && opts.ShouldSpawn(msg)
	if !spawn {
		if reply := opts.OnMessage(msg); reply != nil {
			s.queue.push(reply.clone())
		}
		return
	}

	owned := msg.clone()
	go func() {
		if reply := opts.OnMessage(owned); reply != nil {
			s.queue.push(reply.clone())
		}
	}()
}

// runWriter blocks on the reply queue's condition variable and, for each
// reply, calls the Session emitter matching its variant. A write failure
// terminates the writer: the session is write-dead from then on, and the
// error is recorded for Loop to surface.
func (s *Session) runWriter() {
	for {
		msg, ok := s.queue.pop()
		if !ok {
			return
		}
		if err := s.emit(msg); err != nil {
			s.recordWriteErr(err)
			return
		}
	}
}

func (s *Session) recordWriteErr(err error) {
	s.mu.Lock()
	if s.writeErrVal == nil {
		s.writeErrVal = err
	}
	s.mu.Unlock()
}

func (s *Session) writeErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeErrVal
}

// emit dispatches one reply Message to the matching Session emitter,
// returning whatever error the emitter's write produced.
func (s *Session) emit(msg *Message) error {
	switch {
	case msg.Join != nil:
		return s.Join(msg.Join.Channels)
	case msg.Nick != nil:
		if msg.Nick.Hopcount != nil {
			return s.Nick(msg.Nick.Nickname, *msg.Nick.Hopcount)
		}
		return s.Nick(msg.Nick.Nickname)
	case msg.Notice != nil:
		return s.Notice(msg.Notice.Targets, msg.Notice.Text)
	case msg.Part != nil:
		reason := ""
		if msg.Part.Reason != nil {
			reason = *msg.Part.Reason
		}
		return s.Part(msg.Part.Channels, reason)
	case msg.Privmsg != nil:
		return s.Privmsg(msg.Privmsg.Targets, msg.Privmsg.Text)
	case msg.Quit != nil:
		reason := ""
		if msg.Quit.Reason != nil {
			reason = *msg.Quit.Reason
		}
		return s.Quit(reason)
	case msg.Topic != nil:
		text := ""
		if msg.Topic.Text != nil {
			text = *msg.Topic.Text
		}
		return s.Topic(msg.Topic.Channel, text)
	}
	return nil
}
