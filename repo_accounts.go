package manager

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var activateAccountSQL = `UPDATE "accounts" AS "acc"
SET
	"activation_token" = NULL,
	"active" = TRUE,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"acc"."deleted_at" IS NULL
AND "acc"."email" = ?
AND "acc"."activation_token" = ?
RETURNING *;`

var clearActivationTokenSQL = `UPDATE "accounts" AS "acc"
SET
	"activation_token" = NULL,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"acc"."deleted_at" IS NULL
AND "acc"."email" = ?
AND "acc"."activation_token" = ?
RETURNING *;`

var resetAccountPasswordSQL = `UPDATE "accounts" AS "acc"
SET
	"password_hash" = ?,
	"activation_token" = NULL,
	"active" = TRUE,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"acc"."deleted_at" IS NULL
AND "acc"."email" = ?
AND "acc"."activation_token" = ?
RETURNING *;`

// Accounts is the account repository. The token operations are single
// conditional statements: the WHERE clause re-validates the token and the
// SET clause invalidates it, so concurrent redeems cannot both succeed.
type Accounts interface {
	repository.Repository[*Account]

	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	Save(ctx context.Context, account *Account) (*Account, error)
	SaveTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)
	ConsumeActivationToken(ctx context.Context, email, token string, activate bool) (*Account, error)
	ConsumeActivationTokenTx(ctx context.Context, tx bun.IDB, email, token string, activate bool) (*Account, error)
	ResetPassword(ctx context.Context, email, token, passwordHash string) (*Account, error)
	ResetPasswordTx(ctx context.Context, tx bun.IDB, email, token, passwordHash string) (*Account, error)
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts     = (*accounts)(nil)
	_ AccountStore = (*accounts)(nil)
)

// NewAccountsRepository returns a new Accounts repository over db.
func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	prepareAccountDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *accounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", strings.TrimSpace(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) Save(ctx context.Context, account *Account) (*Account, error) {
	return a.SaveTx(ctx, a.db, account)
}

func (a *accounts) SaveTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	if account.ID == uuid.Nil {
		return a.Repository.CreateTx(ctx, tx, account)
	}
	return a.Repository.UpdateTx(ctx, tx, account, repository.UpdateByID(account.ID.String()))
}

func (a *accounts) ConsumeActivationToken(ctx context.Context, email, token string, activate bool) (*Account, error) {
	return a.ConsumeActivationTokenTx(ctx, a.db, email, token, activate)
}

func (a *accounts) ConsumeActivationTokenTx(ctx context.Context, tx bun.IDB, email, token string, activate bool) (*Account, error) {
	sql := clearActivationTokenSQL
	if activate {
		sql = activateAccountSQL
	}

	res, err := a.Repository.RawTx(ctx, tx, sql, email, token)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"email": email})
	}

	return res[0], nil
}

func (a *accounts) ResetPassword(ctx context.Context, email, token, passwordHash string) (*Account, error) {
	return a.ResetPasswordTx(ctx, a.db, email, token, passwordHash)
}

func (a *accounts) ResetPasswordTx(ctx context.Context, tx bun.IDB, email, token, passwordHash string) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, tx, resetAccountPasswordSQL, passwordHash, email, token)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"email": email})
	}

	return res[0], nil
}
