// Package guard decides, for every navigation, whether to wait for the
// session, redirect or render.
package guard

import (
	"fmt"
	"net/url"

	"autoshop/internal/domain"
	"autoshop/internal/errors"
	"autoshop/internal/policy"
	"autoshop/internal/route"
	"autoshop/internal/session"
)

type Kind int

const (
	KindLoading Kind = iota
	KindRedirect
	KindRender
)

func (k Kind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindRedirect:
		return "redirect"
	case KindRender:
		return "render"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for _, candidate := range []Kind{KindLoading, KindRedirect, KindRender} {
		if candidate.String() == string(text) {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown outcome kind %q", text)
}

// Outcome is the result of one guard evaluation. Target and From are set for
// redirects, Route and Params for renders. User is the user the decision was
// made for. Denied carries the authorization failure behind a role redirect.
type Outcome struct {
	Kind   Kind                             `json:"kind"`
	Target string                           `json:"target,omitempty"`
	From   string                           `json:"from,omitempty"`
	Route  route.Route                      `json:"-"`
	Params route.Params                     `json:"params,omitempty"`
	User   *domain.User                     `json:"-"`
	Denied *errors.AuthorizationDeniedError `json:"-"`
}

func Loading() Outcome {
	return Outcome{Kind: KindLoading}
}

func Redirect(target, from string) Outcome {
	return Outcome{Kind: KindRedirect, Target: target, From: from}
}

func Render(r route.Route, params route.Params) Outcome {
	return Outcome{Kind: KindRender, Route: r, Params: params}
}

// Location is the URL a redirect outcome points at, carrying the originally
// requested path when there is one.
func (o Outcome) Location() string {
	if o.From == "" {
		return o.Target
	}
	return o.Target + "?from=" + url.QueryEscape(o.From)
}

// Decide evaluates a navigation to path, already matched to r, against a
// session snapshot. It never blocks.
func Decide(r route.Route, params route.Params, path string, snap session.Snapshot) Outcome {
	if !snap.Restored {
		return Loading()
	}
	if !r.RequiresAuth {
		out := Render(r, params)
		out.User = snap.User
		return out
	}
	if !snap.Authenticated() {
		return Redirect(route.LoginPath, path)
	}
	if !policy.CanRender(snap.User, r.AllowedRoles) {
		out := Redirect(route.HomePath, "")
		out.Denied = errors.NewAuthorizationDeniedError(path)
		return out
	}
	out := Render(r, params)
	out.User = snap.User
	return out
}
