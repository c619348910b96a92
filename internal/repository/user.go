package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go-crash/internal/config"
	"go-crash/internal/crash"
	"go-crash/internal/http-server/handlers/mysql"
	"go-crash/internal/http-server/model"
)

// UserRepository backs the engine's balance store. Identities are user
// uuids; per-identity consistency comes from single guarded UPDATE
// statements, so concurrent debits can never overdraw.
type UserRepository struct {
	dbhandler mysql.Handler
	tr        *Transaction
}

func NewUserRepository(dbhandler mysql.Handler) *UserRepository {
	return &UserRepository{
		dbhandler: dbhandler,
		tr:        NewTransaction(dbhandler),
	}
}

func (repo *UserRepository) FindUserByUUID(uuid string) (*model.User, error) {
	const op = "repository.user.FindUserByUUID"

	const query = "SELECT id, uuid, banned FROM users WHERE uuid = ?"

	row, err := repo.dbhandler.PrepareAndQueryRow(query, uuid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &model.User{}

	err = row.Scan(&user.ID, &user.UUID, &user.Banned)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// Balance returns the identity's balance in cents.
func (repo *UserRepository) Balance(identity string) (int64, error) {
	const op = "repository.user.Balance"

	const query = "SELECT ub.balance FROM user_balances ub " +
		"JOIN users u ON u.id = ub.user_id WHERE u.uuid = ?"

	row, err := repo.dbhandler.PrepareAndQueryRow(query, identity)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	userBalance := &model.UserBalance{}

	err = row.Scan(&userBalance.Balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, crash.ErrAccountNotFound
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return userBalance.Balance, nil
}

// Debit takes the stake from the identity's balance. The balance guard is
// part of the UPDATE itself, so two racing debits can never both succeed on
// the same funds.
func (repo *UserRepository) Debit(identity string, amount int64) error {
	const op = "repository.user.Debit"

	user, err := repo.FindUserByUUID(identity)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if user == nil {
		return crash.ErrAccountNotFound
	}

	if user.Banned {
		return crash.ErrAccountBanned
	}

	tx, err := repo.tr.StartTransaction()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()

	const query = "UPDATE user_balances SET balance = balance - ?, updated_at = ? " +
		"WHERE user_id = ? AND balance >= ?"

	res, err := tx.Exec(query, amount, now, user.ID, amount)
	if err != nil {
		_ = repo.tr.RollbackTransaction(tx)

		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		_ = repo.tr.RollbackTransaction(tx)

		return fmt.Errorf("%s: %w", op, err)
	}

	if affected == 0 {
		_ = repo.tr.RollbackTransaction(tx)

		return crash.ErrInsufficientFunds
	}

	if err = repo.createBalanceTransaction(tx, user.ID, amount, config.Outcome); err != nil {
		_ = repo.tr.RollbackTransaction(tx)

		return fmt.Errorf("%s: %w", op, err)
	}

	if err = repo.tr.CommitTransaction(tx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Credit adds a payout or refund to the identity's balance.
func (repo *UserRepository) Credit(identity string, amount int64) error {
	const op = "repository.user.Credit"

	user, err := repo.FindUserByUUID(identity)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if user == nil {
		return crash.ErrAccountNotFound
	}

	tx, err := repo.tr.StartTransaction()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()

	const query = "UPDATE user_balances SET balance = balance + ?, updated_at = ? WHERE user_id = ?"

	if _, err = tx.Exec(query, amount, now, user.ID); err != nil {
		_ = repo.tr.RollbackTransaction(tx)

		return fmt.Errorf("%s: %w", op, err)
	}

	if err = repo.createBalanceTransaction(tx, user.ID, amount, config.Income); err != nil {
		_ = repo.tr.RollbackTransaction(tx)

		return fmt.Errorf("%s: %w", op, err)
	}

	if err = repo.tr.CommitTransaction(tx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (repo *UserRepository) createBalanceTransaction(tx *sql.Tx, userID int64, amount int64, balanceType config.BalanceType) error {
	const op = "repository.user.createBalanceTransaction"

	now := time.Now()

	const query = "INSERT INTO user_balance_transactions(user_id, value, type, module, created_at, updated_at) " +
		"VALUES(?, ?, ?, ?, ?, ?)"

	_, err := tx.Exec(query, userID, amount, balanceType, config.CrashGame, now, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
