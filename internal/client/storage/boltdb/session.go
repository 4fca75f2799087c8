package boltdb

import (
	"bytes"
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/gamelib/internal/client/storage"
)

// SaveSession записывает token и user в одной транзакции:
// после сбоя на диске остаются либо обе записи, либо прежнее состояние
func (s *Storage) SaveSession(ctx context.Context, token, user []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(b *bbolt.Bucket) error {
		if err := b.Put(keyToken, token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		if err := b.Put(keyUser, user); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		return nil
	})
}

// LoadSession returns copies of the stored entries
func (s *Storage) LoadSession(ctx context.Context) (*storage.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record := &storage.SessionRecord{}

	err := s.view(func(b *bbolt.Bucket) error {
		// значения из bbolt действительны только внутри транзакции
		if v := b.Get(keyToken); v != nil {
			record.Token = bytes.Clone(v)
		}
		if v := b.Get(keyUser); v != nil {
			record.User = bytes.Clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// ClearSession удаляет обе записи. Delete отсутствующего ключа в bbolt не ошибка.
func (s *Storage) ClearSession(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(b *bbolt.Bucket) error {
		if err := b.Delete(keyToken); err != nil {
			return fmt.Errorf("failed to delete token: %w", err)
		}
		if err := b.Delete(keyUser); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}
