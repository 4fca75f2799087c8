package router

import (
	"context"

	"github.com/iudanet/gamelib/internal/client/storage"
)

// memorySessionStorage - storage.SessionStorage в памяти
type memorySessionStorage struct {
	token []byte
	user  []byte
}

func (m *memorySessionStorage) SaveSession(_ context.Context, token, user []byte) error {
	m.token, m.user = token, user
	return nil
}

func (m *memorySessionStorage) LoadSession(context.Context) (*storage.SessionRecord, error) {
	return &storage.SessionRecord{Token: m.token, User: m.user}, nil
}

func (m *memorySessionStorage) ClearSession(context.Context) error {
	m.token, m.user = nil, nil
	return nil
}
