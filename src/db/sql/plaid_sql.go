package db

import (
	"context"
	"errors"
	"fmt"

	"finance-link-server/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrItemNotFound = errors.New("plaid item not found")

// PostgresStore persists linked items and their latest account snapshot.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) SavePlaidItem(ctx context.Context, item models.PlaidItem) error {
	query := `
		INSERT INTO plaid_items (item_id, client_user_id, access_token, institution_id, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (item_id) DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query, item.ItemID, item.ClientUserID, item.AccessToken, item.InstitutionID, "active")
	return err
}

func (s *PostgresStore) GetPlaidItem(ctx context.Context, itemID string) (models.PlaidItem, error) {
	query := `SELECT id, item_id, client_user_id, access_token, institution_id, created_at FROM plaid_items WHERE item_id = $1`

	var item models.PlaidItem
	err := s.pool.QueryRow(ctx, query, itemID).Scan(&item.ID, &item.ItemID, &item.ClientUserID, &item.AccessToken, &item.InstitutionID, &item.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.PlaidItem{}, ErrItemNotFound
	}
	return item, err
}

// SaveAccounts upserts the account snapshot for the item owning accessToken.
// All rows are written in one transaction.
func (s *PostgresStore) SaveAccounts(ctx context.Context, accessToken string, accounts []models.Account) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var itemID int64
	err = tx.QueryRow(ctx, `SELECT id FROM plaid_items WHERE access_token = $1`, accessToken).Scan(&itemID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrItemNotFound
	}
	if err != nil {
		return err
	}

	query := `
		INSERT INTO accounts (item_id, account_id, name, official_name, subtype, available_balance, current_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (account_id) DO UPDATE SET
			name = $3,
			official_name = $4,
			subtype = $5,
			available_balance = $6,
			current_balance = $7,
			updated_at = NOW()
	`
	for _, acc := range accounts {
		_, err := tx.Exec(ctx, query,
			itemID,
			acc.ID,
			acc.Name,
			acc.OfficialName,
			acc.Subtype,
			acc.Balances.Available,
			acc.Balances.Current,
		)
		if err != nil {
			return fmt.Errorf("save account %s: %w", acc.ID, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) UpdateItemStatus(ctx context.Context, itemID, status string) error {
	query := `UPDATE plaid_items SET status = $1, updated_at = NOW() WHERE item_id = $2`
	tag, err := s.pool.Exec(ctx, query, status, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}
