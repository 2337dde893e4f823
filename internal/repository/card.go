package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aplatonov-me/Bank-REST/internal/models"
	"github.com/shopspring/decimal"
)

const cardColumns = `c.id, c.number_encrypted, c.masked_number, c.owner_id, u.username,
		c.expiration_date, c.status, c.balance, c.created_at, c.updated_at`

// TransferChecks runs the business checks against both locked cards and
// returns the balances to persist. Returning an error aborts the transfer
// and rolls back.
type TransferChecks func(source, dest *models.Card) (newSourceBalance, newDestBalance decimal.Decimal, err error)

// CreateCard inserts a new card row.
func (r *Repository) CreateCard(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO bank.cards (number_encrypted, masked_number, owner_id, expiration_date, status, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		card.Number, card.MaskedNumber, card.OwnerID, card.ExpirationDate, card.Status, card.Balance).
		Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

// CardByID retrieves a card with its owner's username.
func (r *Repository) CardByID(ctx context.Context, id int64) (*models.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM bank.cards c
		JOIN bank.users u ON u.id = c.owner_id
		WHERE c.id = $1`
	card, err := scanCard(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return card, nil
}

// CountCardsByOwner returns how many cards a user currently holds.
func (r *Repository) CountCardsByOwner(ctx context.Context, ownerID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bank.cards WHERE owner_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return count, nil
}

// CardsByOwner returns a page of the owner's cards and the total count.
func (r *Repository) CardsByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]models.Card, int64, error) {
	return r.listCards(ctx, `WHERE c.owner_id = $3`, limit, offset, ownerID)
}

// Cards returns a page over all cards and the total count.
func (r *Repository) Cards(ctx context.Context, limit, offset int) ([]models.Card, int64, error) {
	return r.listCards(ctx, ``, limit, offset)
}

func (r *Repository) listCards(ctx context.Context, where string, limit, offset int, extra ...any) ([]models.Card, int64, error) {
	countWhere := ""
	if where != "" {
		countWhere = `WHERE c.owner_id = $1`
	}
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bank.cards c `+countWhere, extra...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count cards: %w", err)
	}

	args := append([]any{limit, offset}, extra...)
	query := `
		SELECT ` + cardColumns + `
		FROM bank.cards c
		JOIN bank.users u ON u.id = c.owner_id
		` + where + `
		ORDER BY c.id
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch cards: %w", err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate cards: %w", err)
	}
	return cards, total, nil
}

// UpdateCardStatus writes a new status.
func (r *Repository) UpdateCardStatus(ctx context.Context, id int64, status models.CardStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bank.cards
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update card status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return models.ErrCardNotFound
	}
	return nil
}

// DeleteCard hard-deletes a card row.
func (r *Repository) DeleteCard(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bank.cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return models.ErrCardNotFound
	}
	return nil
}

// CountExpiredActiveCards counts cards still ACTIVE past their expiration
// date. Used by the scheduled report; nothing changes card status here.
func (r *Repository) CountExpiredActiveCards(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bank.cards
		WHERE status = $1 AND expiration_date < CURRENT_DATE`, models.CardStatusActive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count expired cards: %w", err)
	}
	return count, nil
}

// TransferFunds moves funds between two cards. Both rows are locked with
// SELECT ... FOR UPDATE in ascending id order regardless of transfer
// direction, so concurrent transfers over the same pair cannot deadlock.
// The transaction runs at REPEATABLE READ with a bounded lock wait; lock
// timeouts and detected deadlocks surface as models.ErrTransferContention.
func (r *Repository) TransferFunds(ctx context.Context, sourceID, destID int64, checks TransferChecks) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds()))
	if err != nil {
		return fmt.Errorf("failed to set lock timeout: %w", err)
	}

	// Canonical lock order: ascending id, independent of argument order.
	firstID, secondID := sourceID, destID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}

	locked := make(map[int64]*models.Card, 2)
	for _, id := range []int64{firstID, secondID} {
		card, err := cardForUpdate(ctx, tx, id)
		if err != nil {
			return transferSideError(err, id, sourceID)
		}
		locked[id] = card
	}

	newSourceBalance, newDestBalance, err := checks(locked[sourceID], locked[destID])
	if err != nil {
		return err
	}

	if err := updateBalance(ctx, tx, sourceID, newSourceBalance); err != nil {
		return translateLockError(err)
	}
	if err := updateBalance(ctx, tx, destID, newDestBalance); err != nil {
		return translateLockError(err)
	}

	if err := tx.Commit(); err != nil {
		return translateLockError(fmt.Errorf("failed to commit transfer: %w", err))
	}
	return nil
}

func cardForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*models.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM bank.cards c
		JOIN bank.users u ON u.id = c.owner_id
		WHERE c.id = $1
		FOR UPDATE OF c`
	card, err := scanCard(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrCardNotFound
	}
	if err != nil {
		return nil, translateLockError(err)
	}
	return card, nil
}

func updateBalance(ctx context.Context, tx *sql.Tx, id int64, balance decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE bank.cards
		SET balance = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`, balance, id)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

// transferSideError tags a per-card failure with the side it occurred on.
func transferSideError(err error, id, sourceID int64) error {
	side := "destination"
	if id == sourceID {
		side = "source"
	}
	if errors.Is(err, models.ErrCardNotFound) || errors.Is(err, models.ErrTransferContention) {
		return fmt.Errorf("%s card %d: %w", side, id, err)
	}
	return fmt.Errorf("%s card %d: failed to lock: %w", side, id, err)
}

// translateLockError maps Postgres lock-wait and deadlock failures to the
// retryable contention error; everything else passes through.
func translateLockError(err error) error {
	if isPQError(err, pqLockNotAvailable) || isPQError(err, pqDeadlockDetected) || isPQError(err, pqSerializationFail) {
		return fmt.Errorf("%w: %v", models.ErrTransferContention, err)
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*models.Card, error) {
	card := &models.Card{}
	err := row.Scan(&card.ID, &card.Number, &card.MaskedNumber, &card.OwnerID, &card.OwnerUsername,
		&card.ExpirationDate, &card.Status, &card.Balance, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return card, nil
}
