// Package auth builds the auth token the client presents in INIT (spec
// §6's auth map: scheme/principal/credentials) and redacts credentials
// before they reach a log line.
package auth

import (
	"fmt"

	"github.com/orneryd/boltwire/pkg/packstream"
)

// Scheme names the Bolt auth scheme. Basic is the only one this repo
// builds a constructor for; "none" is exposed for servers with auth
// disabled.
type Scheme string

const (
	SchemeBasic Scheme = "basic"
	SchemeNone  Scheme = "none"
)

// Token is the auth map packed into INIT's second field.
type Token struct {
	Scheme      Scheme
	Principal   string
	Credentials string
}

// Basic builds a basic-auth Token from a username and password.
func Basic(principal, credentials string) Token {
	return Token{Scheme: SchemeBasic, Principal: principal, Credentials: credentials}
}

// None builds a Token for servers running without authentication.
func None() Token {
	return Token{Scheme: SchemeNone}
}

// Map renders the Token into the packstream.Value map INIT expects.
func (t Token) Map() map[string]packstream.Value {
	m := map[string]packstream.Value{"scheme": packstream.Str(string(t.Scheme))}
	if t.Scheme == SchemeNone {
		return m
	}
	m["principal"] = packstream.Str(t.Principal)
	m["credentials"] = packstream.Str(t.Credentials)
	return m
}

// String redacts credentials, for logging: "basic principal=neo4j credentials=***".
func (t Token) String() string {
	if t.Scheme == SchemeNone {
		return "none"
	}
	return fmt.Sprintf("%s principal=%s credentials=***", t.Scheme, t.Principal)
}
