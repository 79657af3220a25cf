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

// CommandTag is the closed set of IRC commands and numerics this package
// recognises. Any mnemonic or numeric outside this set fails to parse.
type CommandTag int

const (
	CmdUnknown CommandTag = iota

	CmdAway
	CmdInvite
	CmdIson
	CmdJoin
	CmdMode
	CmdMotd
	CmdNick
	CmdNotice
	CmdPart
	CmdPing
	CmdPong
	CmdPrivmsg
	CmdQuit
	CmdTopic
	CmdWho
	CmdWhois
	CmdWhowas

	CmdRplWelcome       // 001
	CmdRplYourHost      // 002
	CmdRplCreated       // 003
	CmdRplMyInfo        // 004
	CmdRplISupport      // 005
	CmdRplLUserClient   // 251
	CmdRplEndOfWho      // 315
	CmdRplNoTopic       // 331
	CmdRplTopic         // 332
	CmdRplWhoReply      // 352
	CmdRplNamReply      // 353
	CmdRplWhoSpcRpl     // 354
	CmdRplEndOfNames    // 366
	CmdRplEndOfMotd     // 376
	CmdErrNoSuchNick    // 401
	CmdErrNoSuchChannel // 403
	CmdRplNoMotd        // 422
	CmdErrNoNickGiven   // 431
	CmdErrErroneusNick  // 432
	CmdErrNickInUse     // 433
	CmdErrNickCollision // 436
	CmdErrUnavailResrc  // 437
	CmdErrChanOPrivs    // 482
)

// commandTable maps the wire token (mnemonic or three-digit numeric) to its
// tag. Built once; looked up case-sensitively since mnemonics always arrive
// upper-cased on the wire and numerics are digits.
var commandTable = map[string]CommandTag{
	"AWAY":    CmdAway,
	"INVITE":  CmdInvite,
	"ISON":    CmdIson,
	"JOIN":    CmdJoin,
	"MODE":    CmdMode,
	"MOTD":    CmdMotd,
	"NICK":    CmdNick,
	"NOTICE":  CmdNotice,
	"PART":    CmdPart,
	"PING":    CmdPing,
	"PONG":    CmdPong,
	"PRIVMSG": CmdPrivmsg,
	"QUIT":    CmdQuit,
	"TOPIC":   CmdTopic,
	"WHO":     CmdWho,
	"WHOIS":   CmdWhois,
	"WHOWAS":  CmdWhowas,

	"001": CmdRplWelcome,
	"002": CmdRplYourHost,
	"003": CmdRplCreated,
	"004": CmdRplMyInfo,
	"005": CmdRplISupport,
	"251": CmdRplLUserClient,
	"315": CmdRplEndOfWho,
	"331": CmdRplNoTopic,
	"332": CmdRplTopic,
	"352": CmdRplWhoReply,
	"353": CmdRplNamReply,
	"354": CmdRplWhoSpcRpl,
	"366": CmdRplEndOfNames,
	"376": CmdRplEndOfMotd,
	"401": CmdErrNoSuchNick,
	"403": CmdErrNoSuchChannel,
	"422": CmdRplNoMotd,
	"431": CmdErrNoNickGiven,
	"432": CmdErrErroneusNick,
	"433": CmdErrNickInUse,
	"436": CmdErrNickCollision,
	"437": CmdErrUnavailResrc,
	"482": CmdErrChanOPrivs,
}

// lookupCommand resolves a wire token to its tag. ok is false for any
// mnemonic or numeric outside the closed taxonomy.
func lookupCommand(token string) (CommandTag, bool) {
	tag, ok := commandTable[token]
	return tag, ok
}

// Prefix is the decomposed origin of a message: nick[!user][@host].
// A zero-value Prefix (all fields empty) represents "absent".
type Prefix struct {
	Nick string
	User string
	Host string
}

// Present reports whether any field of the prefix was set.
func (p Prefix) Present() bool {
	return p.Nick != "" || p.User != "" || p.Host != ""
}

// paramIterator is a lazy, restartable cursor over the parameter segment of
// one IRC line. It borrows slices of the caller-owned segment string and
// allocates nothing; re-initialising it over the same segment reproduces
// the exact same sequence of fields.
type paramIterator struct {
	segment string
	pos     int
	done    bool
}

// newParamIterator builds an iterator over segment, the portion of a line
// following the command token. An empty segment yields no fields.
func newParamIterator(segment string) paramIterator {
	return paramIterator{segment: segment, done: segment == ""}
}

// next returns the next field and true, or ("", false) once exhausted.
//
// A field starting with ':' consumes the remainder of the segment
// (including any further spaces) as a single trailing field. Trailing
// whitespace with nothing after it yields no further field rather than an
// empty one.
func (it *paramIterator) next() (string, bool) {
	if it.done || it.pos >= len(it.segment) {
		it.done = true
		return "", false
	}

	if it.segment[it.pos] == ':' {
		field := it.segment[it.pos+1:]
		it.pos = len(it.segment)
		it.done = true
		return field, true
	}

	start := it.pos
	end := start
	for end < len(it.segment) && it.segment[end] != ' ' {
		end++
	}
	field := it.segment[start:end]

	if end >= len(it.segment) {
		it.pos = end
		it.done = true
		return field, true
	}

	it.pos = end + 1
	if it.pos >= len(it.segment) {
		// trailing space with nothing after it: no further field
		it.done = true
	}
	return field, true
}

// decomposePrefix splits a raw prefix token (the text after the leading ':'
// and before the first whitespace) into its nick/user/host fields. It
// returns the zero Prefix for any malformed or whitespace-containing token.
func decomposePrefix(raw string) Prefix {
	if raw == "" {
		return Prefix{}
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] == ' ' || raw[i] == '\t' {
			return Prefix{}
		}
	}

	bang := indexByte(raw, '!')
	at := indexByte(raw, '@')

	if bang >= 0 && at >= 0 && bang >= at {
		return Prefix{}
	}

	switch {
	case bang < 0 && at < 0:
		return Prefix{Nick: raw}
	case bang >= 0 && at < 0:
		return Prefix{Nick: raw[:bang], User: raw[bang+1:]}
	case bang < 0 && at >= 0:
		return Prefix{Nick: raw[:at], Host: raw[at+1:]}
	default:
		return Prefix{Nick: raw[:bang], User: raw[bang+1 : at], Host: raw[at+1:]}
	}
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// protoMessage is the low-level result of parsing one wire line: an
// optional prefix, a command tag, and an iterator over the raw parameter
// segment. It borrows from the line it was parsed from and must not
// outlive it.
type protoMessage struct {
	prefix  Prefix
	command CommandTag
	params  paramIterator
}

// Message is the typed, discriminated union a host callback receives.
// Exactly one of the embedded payload pointers is non-nil, matching the
// variant named by Command.
type Message struct {
	Prefix  Prefix
	Command CommandTag

	Join    *JoinMessage
	Nick    *NickMessage
	Notice  *NoticeMessage
	Part    *PartMessage
	Privmsg *PrivmsgMessage
	Quit    *QuitMessage
	Topic   *TopicMessage
	Reply   *ReplyMessage
}

type JoinMessage struct {
	Channels string
}

type NickMessage struct {
	Nickname string
	Hopcount *uint8
}

type NoticeMessage struct {
	Targets string
	Text    string
}

type PartMessage struct {
	Channels string
	Reason   *string
}

type PrivmsgMessage struct {
	Targets string
	Text    string
}

type QuitMessage struct {
	Reason *string
}

type TopicMessage struct {
	Channel string
	Text    *string
}

// ReplyMessage carries the numeric-reply variants that share the
// {nick, channel-or-target, text} shape: RPL_NOTOPIC, RPL_TOPIC,
// ERR_CHANOPRIVSNEEDED, ERR_NOSUCHCHANNEL, ERR_ERRONEUSNICKNAME and
// ERR_NOSUCHNICK. Target holds the channel for the topic/chanop variants
// and the supplied/new nick for the nickname variants.
type ReplyMessage struct {
	Nick   string
	Target string
	Text   string
}

// clone returns a copy of m with its own payload struct and its own copies
// of any pointer fields, so the copy shares no mutable state with m (string
// fields are immutable and are shared as is). Dispatch calls this before
// handing a Message to a detached worker goroutine.
func (m *Message) clone() *Message {
	if m == nil {
		return nil
	}
	out := *m
	switch {
	case m.Join != nil:
		j := *m.Join
		out.Join = &j
	case m.Nick != nil:
		n := *m.Nick
		if n.Hopcount != nil {
			h := *n.Hopcount
			n.Hopcount = &h
		}
		out.Nick = &n
	case m.Notice != nil:
		n := *m.Notice
		out.Notice = &n
	case m.Part != nil:
		p := *m.Part
		if p.Reason != nil {
			r := *p.Reason
			p.Reason = &r
		}
		out.Part = &p
	case m.Privmsg != nil:
		p := *m.Privmsg
		out.Privmsg = &p
	case m.Quit != nil:
		q := *m.Quit
		if q.Reason != nil {
			r := *q.Reason
			q.Reason = &r
		}
		out.Quit = &q
	case m.Topic != nil:
		t := *m.Topic
		if t.Text != nil {
			x := *t.Text
			t.Text = &x
		}
		out.Topic = &t
	case m.Reply != nil:
		r := *m.Reply
		out.Reply = &r
	}
	return &out
}
