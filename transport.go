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
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
	"h12.io/socks"
)

// ProxyConfig describes an optional SOCKS/HTTP proxy the session should
// dial the server through.
type ProxyConfig struct {
	Type     string // "socks4", "socks5", or "http"
	Address  string
	Username string
	Password string
}

// socks4Dialer adapts h12.io/socks's dial-function style to proxy.Dialer.
type socks4Dialer struct {
	dialFunc func(string, string) (net.Conn, error)
}

func (d *socks4Dialer) Dial(network, addr string) (net.Conn, error) {
	return d.dialFunc(network, addr)
}

// buildDialer picks the net.Dialer or proxy.Dialer to use for the
// upcoming connection, honoring cfg.ProxyConfig when set.
func buildDialer(localIP string, timeout timeoutProvider, proxyCfg *ProxyConfig) (proxy.Dialer, error) {
	if proxyCfg == nil {
		var localAddr net.Addr
		if localIP != "" {
			localAddr = &net.TCPAddr{IP: net.ParseIP(localIP), Port: 0}
		}
		return &net.Dialer{LocalAddr: localAddr, Timeout: timeout.dialTimeout()}, nil
	}

	switch proxyCfg.Type {
	case "socks4":
		dialFunc := socks.Dial(fmt.Sprintf("socks4://%s:%s@%s", proxyCfg.Username, proxyCfg.Password, proxyCfg.Address))
		return &socks4Dialer{dialFunc: dialFunc}, nil
	case "socks5":
		auth := &proxy.Auth{User: proxyCfg.Username, Password: proxyCfg.Password}
		return proxy.SOCKS5("tcp", proxyCfg.Address, auth, proxy.Direct)
	case "http":
		proxyURL, err := url.Parse(fmt.Sprintf("http://%s:%s@%s", proxyCfg.Username, proxyCfg.Password, proxyCfg.Address))
		if err != nil {
			return nil, err
		}
		return proxy.FromURL(proxyURL, proxy.Direct)
	default:
		return nil, fmt.Errorf("unsupported proxy type: %s", proxyCfg.Type)
	}
}

// timeoutProvider is the sliver of Session state buildDialer needs, kept
// as an interface so transport code does not import the session type.
type timeoutProvider interface {
	dialTimeout() time.Duration
}

// certBundle loads the OS trust store. It is a direct crypto/x509 call
// rather than a wrapped type because nothing in it needs to vary across
// hosts.
func certBundle() (*x509.CertPool, error) {
	return x509.SystemCertPool()
}

// wrapTLS performs the TLS handshake over an already-dialed connection,
// using the system trust store unless cfg supplies its own RootCAs.
func wrapTLS(conn net.Conn, serverName string, cfg *tls.Config) (net.Conn, error) {
	var tlsCfg *tls.Config
	if cfg != nil {
		cloned := cfg.Clone()
		tlsCfg = cloned
	} else {
		tlsCfg = &tls.Config{}
	}
	if tlsCfg.RootCAs == nil {
		if pool, err := certBundle(); err == nil {
			tlsCfg.RootCAs = pool
		}
	}
	if tlsCfg.ServerName == "" {
		tlsCfg.ServerName = serverName
	}
	client := tls.Client(conn, tlsCfg)
	if err := client.Handshake(); err != nil {
		return nil, err
	}
	return client, nil
}
