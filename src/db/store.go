package db

import (
	"context"
	"errors"
	"sync"

	"finance-link-server/src/models"
)

var ErrItemNotFound = errors.New("plaid item not found")

// MemoryStore keeps linked items in process memory. It is used when no
// database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	items    map[string]models.PlaidItem
	statuses map[string]string
	accounts map[string][]models.Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:    map[string]models.PlaidItem{},
		statuses: map[string]string{},
		accounts: map[string][]models.Account{},
	}
}

func (s *MemoryStore) SavePlaidItem(ctx context.Context, item models.PlaidItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ItemID]; ok {
		return nil
	}
	item.ID = int64(len(s.items) + 1)
	s.items[item.ItemID] = item
	s.statuses[item.ItemID] = "active"
	return nil
}

func (s *MemoryStore) SaveAccounts(ctx context.Context, accessToken string, accounts []models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for itemID, item := range s.items {
		if item.AccessToken == accessToken {
			s.accounts[itemID] = append([]models.Account(nil), accounts...)
			return nil
		}
	}
	return ErrItemNotFound
}

func (s *MemoryStore) UpdateItemStatus(ctx context.Context, itemID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[itemID]; !ok {
		return ErrItemNotFound
	}
	s.statuses[itemID] = status
	return nil
}

// ItemStatus returns the recorded status of an item.
func (s *MemoryStore) ItemStatus(itemID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[itemID]
	return status, ok
}

// Accounts returns the last account snapshot saved for an item.
func (s *MemoryStore) Accounts(itemID string) []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Account(nil), s.accounts[itemID]...)
}
