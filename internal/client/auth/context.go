package auth

import "github.com/iudanet/gamelib/pkg/api"

// Context - представление состояния авторизации только для чтения.
// Своей копии состояния не хранит, все читается из TokenStore.
type Context struct {
	store *TokenStore
}

// NewContext создает контекст поверх store
func NewContext(store *TokenStore) *Context {
	return &Context{store: store}
}

// Token возвращает текущий токен
func (c *Context) Token() string {
	return c.store.Token()
}

// User возвращает текущего пользователя или nil
func (c *Context) User() *api.UserSummary {
	return c.store.User()
}

// Snapshot возвращает копию текущего состояния
func (c *Context) Snapshot() Snapshot {
	return c.store.Snapshot()
}

// IsAuthenticated сообщает, есть ли токен
func (c *Context) IsAuthenticated() bool {
	return c.store.Token() != ""
}

// OnChange подписывает fn на изменения состояния.
// fn может сама вызывать мутации store, например выход при смене пользователя.
func (c *Context) OnChange(fn func(Snapshot)) (unsubscribe func()) {
	return c.store.Subscribe(fn)
}
