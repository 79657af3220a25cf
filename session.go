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

/*
Package irc provides an event-based IRC client library. It parses the
RFC 1459/2812 wire protocol into a typed Message union, drives the
connection/registration handshake, and runs a reader/writer event loop that
dispatches inbound messages to host-supplied callbacks.
*/
package irc

import (
	"bufio"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/encoding"
)

const defaultPort = 6667

// SessionConfig is immutable once a Session has been constructed from it.
type SessionConfig struct {
	User     string
	Nick     string
	RealName string
	Server   string
	Port     int // defaults to 6667 when zero
	UseTLS   bool
	Channels []string

	TLSConfig   *tls.Config
	ProxyConfig *ProxyConfig
	Encoding    encoding.Encoding // defaults to encoding.Nop

	Timeout time.Duration // timeout for a direct (non-proxy) dial; defaults to 1 minute

	Debug bool
	Log   *log.Logger
}

// Validate checks the fields a Session cannot operate without: Connect
// would otherwise dial a blank address or register with an empty nick.
func (c *SessionConfig) Validate() error {
	if c.Server == "" {
		return errors.New("irc: empty server")
	}
	if c.Nick == "" {
		return errors.New("irc: empty nick")
	}
	if c.User == "" {
		return errors.New("irc: empty user")
	}
	return nil
}

// Session owns one IRC connection: the transport, the registration
// handshake, and the reply queue the event loop drains.
type Session struct {
	cfg SessionConfig

	mu          sync.Mutex
	socket      net.Conn
	nickcurrent string
	registered  bool
	writeErrVal error

	queue *replyQueue

	log *log.Logger
}

func (s *Session) dialTimeout() time.Duration {
	if s.cfg.Timeout > 0 {
		return s.cfg.Timeout
	}
	return time.Minute
}

// NewSession constructs a Session from cfg. It does not connect.
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Encoding == nil {
		cfg.Encoding = encoding.Nop
	}
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Session{
		cfg:         cfg,
		nickcurrent: cfg.Nick,
		queue:       newReplyQueue(),
		log:         cfg.Log,
	}, nil
}

// Connect resolves SessionConfig.Server/Port, dials (optionally through a
// configured proxy), and performs the TLS handshake if UseTLS is set.
func (s *Session) Connect() error {
	addr := net.JoinHostPort(s.cfg.Server, strconv.Itoa(s.cfg.Port))

	dialer, err := buildDialer("", s, s.cfg.ProxyConfig)
	if err != nil {
		return wrapErr(ErrConnection, err)
	}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return wrapErr(ErrConnection, err)
	}

	if s.cfg.UseTLS {
		secured, err := wrapTLS(conn, s.cfg.Server, s.cfg.TLSConfig)
		if err != nil {
			conn.Close()
			return wrapErr(ErrTLSHandshake, err)
		}
		conn = secured
	}

	s.mu.Lock()
	s.socket = conn
	s.mu.Unlock()

	s.log.Printf("connected to %s", addr)
	return nil
}

// Disconnect closes the transport. It is idempotent and safe to call on a
// Session that never connected.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	conn := s.socket
	s.socket = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Register sends the NICK/USER pair that begins the IRC handshake. It does
// not wait for RPL_WELCOME; the session considers registration requested
// once the write succeeds.
func (s *Session) Register() error {
	realName := s.cfg.RealName
	if realName == "" {
		realName = s.cfg.User
	}
	payload := fmt.Sprintf("NICK %s\r\nUSER %s * * :%s\r\n", s.cfg.Nick, s.cfg.User, realName)
	return s.writeRaw(payload)
}

// Registered reports whether RPL_WELCOME (001) has been observed.
func (s *Session) Registered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registered
}

// CurrentNick returns the nickname the server has most recently confirmed
// or that the collision-retry logic is currently trying.
func (s *Session) CurrentNick() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nickcurrent
}

func (s *Session) writeRaw(payload string) error {
	s.mu.Lock()
	conn := s.socket
	s.mu.Unlock()
	if conn == nil {
		return wrapErr(ErrNetworkWrite, errors.New("not connected"))
	}

	w := s.cfg.Encoding.NewEncoder().Writer(conn)
	_, err := fmt.Fprint(w, payload)
	if err != nil {
		return wrapErr(ErrNetworkWrite, err)
	}
	if s.cfg.Debug {
		s.log.Printf("--> %s", strings.TrimRight(payload, "\r\n"))
	}
	return nil
}

func (s *Session) sendLine(line string) error {
	return s.writeRaw(line + "\r\n")
}

// Nick requests a nickname change, with an optional hopcount parameter
// (vestigial per RFC 2812, preserved only for wire compatibility).
func (s *Session) Nick(name string, hopcount ...uint8) error {
	if len(hopcount) > 0 {
		return s.sendLine(fmt.Sprintf("NICK %s %d", name, hopcount[0]))
	}
	return s.sendLine(fmt.Sprintf("NICK %s", name))
}

// Join joins a comma-separated list of channels.
func (s *Session) Join(channels string) error {
	return s.sendLine(fmt.Sprintf("JOIN %s", channels))
}

// Part leaves a comma-separated list of channels with an optional reason.
func (s *Session) Part(channels string, reason string) error {
	return s.sendLine(fmt.Sprintf("PART %s :%s", channels, reason))
}

// Privmsg sends a message to a comma-separated list of targets.
func (s *Session) Privmsg(targets, text string) error {
	return s.sendLine(fmt.Sprintf("PRIVMSG %s :%s", targets, text))
}

// Notice sends a notice to a comma-separated list of targets.
func (s *Session) Notice(targets, text string) error {
	return s.sendLine(fmt.Sprintf("NOTICE %s :%s", targets, text))
}

// Quit disconnects with an optional reason.
func (s *Session) Quit(reason string) error {
	return s.sendLine(fmt.Sprintf("QUIT :%s", reason))
}

// Topic queries (empty text) or sets the topic of channel.
func (s *Session) Topic(channel string, text string) error {
	if text == "" {
		return s.sendLine(fmt.Sprintf("TOPIC %s", channel))
	}
	return s.sendLine(fmt.Sprintf("TOPIC %s :%s", channel, text))
}

// pong answers a PING with the same identifier.
func (s *Session) pong(id string) error {
	return s.sendLine(fmt.Sprintf("PONG :%s", id))
}

// modifyNick derives a fallback nickname after a collision: nicknames of up
// to 8 characters get an underscore appended, longer ones get an underscore
// prepended.
func modifyNick(current string) string {
	if len(current) > 8 {
		return "_" + current
	}
	return current + "_"
}

// handleMessage is the inbound dispatch entry point: PING auto-reply,
// auto-join on RPL_ENDOFMOTD, registration bookkeeping, and typed-message
// dispatch to the host callback.
func (s *Session) handleMessage(line string, dispatch func(*Message)) {
	trimmed := strings.TrimRight(line, "\r\n")
	if len(trimmed) < 4 {
		return
	}

	if strings.HasPrefix(trimmed, "PING") {
		if i := strings.IndexByte(trimmed, ':'); i >= 0 {
			s.pong(trimmed[i+1:])
		}
		return
	}

	pm, err := parseLine(trimmed)
	if err != nil {
		return
	}

	s.bookkeep(pm)

	if pm.command == CmdRplEndOfMotd {
		for _, ch := range s.cfg.Channels {
			s.Join(ch)
		}
		return
	}

	msg, ok := liftMessage(pm)
	if !ok || dispatch == nil {
		return
	}
	dispatch(msg)
}

// bookkeep updates Session-internal registration/nickname state from
// numerics that never surface as typed Messages.
func (s *Session) bookkeep(pm protoMessage) {
	switch pm.command {
	case CmdRplWelcome:
		it := pm.params
		if nick, ok := it.next(); ok {
			s.mu.Lock()
			s.nickcurrent = nick
			s.registered = true
			s.mu.Unlock()
		}
	case CmdErrNickInUse, CmdErrNickCollision, CmdErrUnavailResrc:
		s.mu.Lock()
		if s.nickcurrent == "" {
			s.nickcurrent = s.cfg.Nick
		}
		s.nickcurrent = modifyNick(s.nickcurrent)
		next := s.nickcurrent
		s.mu.Unlock()
		s.Nick(next)
	case CmdNick:
		it := pm.params
		newNick, _ := it.next()
		s.mu.Lock()
		if pm.prefix.Nick == s.nickcurrent && newNick != "" {
			s.nickcurrent = newNick
		}
		s.mu.Unlock()
	}
}

// lineReader frames inbound bytes on '\n', bounding each line at the
// RFC 1459 512-byte limit: longer lines are a read failure, not a
// silently-truncated line.
type lineReader struct {
	br *bufio.Reader
}

func newLineReader(r net.Conn, enc encoding.Encoding) *lineReader {
	decoded := enc.NewDecoder().Reader(r)
	return &lineReader{br: bufio.NewReaderSize(decoded, maxLineLength)}
}

func (lr *lineReader) readLine() (string, error) {
	line, err := lr.br.ReadString('\n')
	if err != nil {
		return "", err
	}
	if len(line) > maxLineLength {
		return "", fmt.Errorf("irc: line exceeds %d bytes", maxLineLength)
	}
	return line, nil
}
