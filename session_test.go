package irc

import (
	"bufio"
	"net"
	"testing"
	"time"

	"golang.org/x/text/encoding"
)

// pipeSession wires a Session's socket to one end of a net.Pipe and
// returns a bufio.Reader on the other end so a test can assert on exactly
// what the session wrote.
func pipeSession(t *testing.T, cfg SessionConfig) (*Session, *bufio.Reader) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})

	if cfg.Encoding == nil {
		cfg.Encoding = encoding.Nop
	}
	s, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	s.socket = client
	return s, bufio.NewReader(server)
}

func readLineWithTimeout(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := r.ReadString('\n')
		ch <- result{line, err}
	}()
	select {
	case res := <-ch:
		if res.err != nil {
			t.Fatalf("read: %v", res.err)
		}
		return res.line
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for write")
		return ""
	}
}

func TestRegisterWritesExactBytes(t *testing.T) {
	s, r := pipeSession(t, SessionConfig{
		Server: "irc.example.org", Nick: "bob", User: "bobuser", RealName: "Bob Real",
	})

	done := make(chan error, 1)
	go func() { done <- s.Register() }()

	got := readLineWithTimeout(t, r) + readLineWithTimeout(t, r)
	want := "NICK bob\r\nUSER bobuser * * :Bob Real\r\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if err := <-done; err != nil {
		t.Fatalf("Register: %v", err)
	}
}

func TestHandleMessagePingTriggersPong(t *testing.T) {
	s, r := pipeSession(t, SessionConfig{Server: "irc.example.org", Nick: "bob", User: "bobuser"})

	called := false
	go s.handleMessage("PING :ABC123", func(*Message) { called = true })

	got := readLineWithTimeout(t, r)
	if got != "PONG :ABC123\r\n" {
		t.Fatalf("got %q, want PONG :ABC123\\r\\n", got)
	}
	if called {
		t.Fatal("PING must not reach the dispatch callback")
	}
}

func TestHandleMessageEndOfMotdJoinsConfiguredChannels(t *testing.T) {
	s, r := pipeSession(t, SessionConfig{
		Server: "irc.example.org", Nick: "bob", User: "bobuser",
		Channels: []string{"#a", "#b"},
	})

	go s.handleMessage(":srv 376 nick :End of MOTD", func(*Message) {
		t.Error("376 must not reach the dispatch callback")
	})

	if got := readLineWithTimeout(t, r); got != "JOIN #a\r\n" {
		t.Fatalf("got %q, want JOIN #a\\r\\n", got)
	}
	if got := readLineWithTimeout(t, r); got != "JOIN #b\r\n" {
		t.Fatalf("got %q, want JOIN #b\\r\\n", got)
	}
}

func TestHandleMessagePrivmsgDispatches(t *testing.T) {
	s, _ := pipeSession(t, SessionConfig{Server: "irc.example.org", Nick: "bob", User: "bobuser"})

	var got *Message
	ch := make(chan struct{})
	go func() {
		s.handleMessage(":nick!user@host PRIVMSG #chan :hello world!", func(m *Message) {
			got = m
			close(ch)
		})
	}()
	<-ch

	if got == nil || got.Privmsg == nil {
		t.Fatalf("expected a PRIVMSG dispatch, got %+v", got)
	}
	if got.Privmsg.Targets != "#chan" || got.Privmsg.Text != "hello world!" {
		t.Errorf("got %+v", got.Privmsg)
	}
	if got.Prefix.Nick != "nick" {
		t.Errorf("got prefix %+v", got.Prefix)
	}
}

func TestHandleMessageTooShortIsIgnored(t *testing.T) {
	s, _ := pipeSession(t, SessionConfig{Server: "irc.example.org", Nick: "bob", User: "bobuser"})
	called := false
	s.handleMessage("ab", func(*Message) { called = true })
	if called {
		t.Fatal("a too-short line must be ignored, not dispatched")
	}
}

func TestSessionValidateRejectsEmptyFields(t *testing.T) {
	cfg := SessionConfig{Nick: "bob", User: "bobuser"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for missing Server")
	}
}

func TestNickCollisionRetriesWithSuffix(t *testing.T) {
	s, r := pipeSession(t, SessionConfig{Server: "irc.example.org", Nick: "bob", User: "bobuser"})

	go s.handleMessage(":srv 433 * bob :Nickname is already in use", func(*Message) {})

	got := readLineWithTimeout(t, r)
	if got != "NICK bob_\r\n" {
		t.Fatalf("got %q, want NICK bob_\\r\\n", got)
	}
}
