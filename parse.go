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
	"strconv"
	"strings"
)

// ErrMalformedLine is returned by parseLine for any line that cannot be
// lifted to a protoMessage: too short, an unrecognised command, or a
// truncated prefix/command token. Callers (handleMessage) drop it silently
// per the propagation policy; it is exported only so tests can assert on
// it directly.
var ErrMalformedLine = errors.New("irc: malformed line")

// maxLineLength is the RFC 1459 wire limit, including the CRLF terminator.
const maxLineLength = 512

// parseLine turns one already-framed wire line (no trailing '\n'; a
// trailing '\r' is tolerated) into a protoMessage. It is non-allocating:
// every field of the result borrows from line.
func parseLine(line string) (protoMessage, error) {
	line = strings.Trim(line, " \t\r\n")
	if len(line) < 3 {
		return protoMessage{}, ErrMalformedLine
	}

	var prefix Prefix
	rest := line
	if line[0] == ':' {
		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			return protoMessage{}, ErrMalformedLine
		}
		prefix = decomposePrefix(line[1:sp])
		rest = strings.TrimLeft(line[sp+1:], " ")
	}

	var cmdToken, paramSegment string
	if sp := strings.IndexByte(rest, ' '); sp >= 0 {
		cmdToken = rest[:sp]
		paramSegment = strings.TrimLeft(rest[sp+1:], " ")
	} else {
		cmdToken = rest
	}

	tag, ok := lookupCommand(strings.ToUpper(cmdToken))
	if !ok {
		return protoMessage{}, ErrMalformedLine
	}

	return protoMessage{
		prefix:  prefix,
		command: tag,
		params:  newParamIterator(paramSegment),
	}, nil
}

// liftMessage projects a protoMessage into the typed Message union.
// Commands outside the typed set (every numeric other than the six
// ReplyMessage variants, plus AWAY/INVITE/ISON/MODE/MOTD/PING/PONG/WHO/
// WHOIS/WHOWAS) yield (nil, false): the session has already observed them
// for PING/MOTD purposes by the time liftMessage runs.
func liftMessage(pm protoMessage) (*Message, bool) {
	base := Message{Prefix: pm.prefix, Command: pm.command}
	it := pm.params

	switch pm.command {
	case CmdJoin:
		channels, _ := it.next()
		base.Join = &JoinMessage{Channels: channels}
		return &base, true

	case CmdNick:
		nickname, _ := it.next()
		var hop *uint8
		if field, ok := it.next(); ok {
			if n, err := strconv.ParseUint(field, 10, 8); err == nil {
				h := uint8(n)
				hop = &h
			}
		}
		base.Nick = &NickMessage{Nickname: nickname, Hopcount: hop}
		return &base, true

	case CmdNotice:
		targets, _ := it.next()
		text, _ := it.next()
		base.Notice = &NoticeMessage{Targets: targets, Text: text}
		return &base, true

	case CmdPart:
		channels, _ := it.next()
		var reason *string
		if field, ok := it.next(); ok {
			reason = &field
		}
		base.Part = &PartMessage{Channels: channels, Reason: reason}
		return &base, true

	case CmdPrivmsg:
		targets, _ := it.next()
		text, _ := it.next()
		base.Privmsg = &PrivmsgMessage{Targets: targets, Text: text}
		return &base, true

	case CmdQuit:
		var reason *string
		if field, ok := it.next(); ok {
			reason = &field
		}
		base.Quit = &QuitMessage{Reason: reason}
		return &base, true

	case CmdTopic:
		channel, _ := it.next()
		var text *string
		if field, ok := it.next(); ok {
			text = &field
		}
		base.Topic = &TopicMessage{Channel: channel, Text: text}
		return &base, true

	case CmdRplNoTopic, CmdRplTopic, CmdErrChanOPrivs, CmdErrNoSuchChannel:
		nick, _ := it.next()
		target, _ := it.next()
		text, _ := it.next()
		base.Reply = &ReplyMessage{Nick: nick, Target: target, Text: text}
		return &base, true

	case CmdErrErroneusNick, CmdErrNoSuchNick:
		nick, _ := it.next()
		target, _ := it.next()
		text, _ := it.next()
		base.Reply = &ReplyMessage{Nick: nick, Target: target, Text: text}
		return &base, true

	default:
		return nil, false
	}
}
