package router

import "github.com/iudanet/gamelib/internal/client/auth"

// Access - требование маршрута к состоянию авторизации
type Access int

const (
	// AccessPublic - маршрут доступен всем
	AccessPublic Access = iota
	// AccessAuthenticated - маршрут требует сессии
	AccessAuthenticated
	// AccessGuest - маршрут только для неавторизованных (login, register)
	AccessGuest
)

// String возвращает название требования
func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessAuthenticated:
		return "authenticated"
	case AccessGuest:
		return "guest"
	default:
		return "unknown"
	}
}

// State - состояние решения guard
type State int

const (
	StatePending State = iota
	StateAllowed
	StateRedirected
)

// String возвращает название состояния
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAllowed:
		return "allowed"
	case StateRedirected:
		return "redirected"
	default:
		return "unknown"
	}
}

// Redirects - куда отправлять при отказе
type Redirects struct {
	Login   string // для AccessAuthenticated без токена
	Landing string // для AccessGuest с токеном
}

// Decision - результат проверки одного маршрута
type Decision struct {
	Path    string
	Target  string // куда перенаправить, если State == StateRedirected
	State   State
	Replace bool // перенаправление заменяет запись в истории
}

// Evaluate решает, можно ли открыть route при данном состоянии авторизации.
// Чистая функция: без I/O и без обращения к серверу.
func Evaluate(route Route, snap auth.Snapshot, redirects Redirects) Decision {
	d := Decision{Path: route.Path, State: StateAllowed}

	switch route.Access {
	case AccessAuthenticated:
		if snap.Token == "" {
			d.State = StateRedirected
			d.Target = redirects.Login
		}
	case AccessGuest:
		if snap.Token != "" {
			d.State = StateRedirected
			d.Target = redirects.Landing
			d.Replace = true
		}
	}

	return d
}
