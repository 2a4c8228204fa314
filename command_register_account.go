package manager

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// RegisterAccountMessage creates the inactive account the activation flow
// later redeems. This is the registration collaborator the core workflows
// assume: the account starts inactive, carrying a fresh activation token.
type RegisterAccountMessage struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone_number"`
	PhoneRegion string `json:"phone_region"`
	Password    string `json:"password"`
	RoleName    string `json:"role_name"`
	UseHashid   bool
	OnResponse  func(account *Account)
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

type RegisterAccountHandler struct {
	repo   RepositoryManager
	tokens TokenService
	bus    *Dispatcher
}

// NewRegisterAccountHandler wires the handler with its collaborators.
func NewRegisterAccountHandler(repo RepositoryManager, tokens TokenService, bus *Dispatcher) *RegisterAccountHandler {
	return &RegisterAccountHandler{repo: repo, tokens: tokens, bus: bus}
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	account := &Account{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
		}

		token, err := h.tokens.Generate()
		if err != nil {
			return err
		}

		roleName := event.RoleName
		if roleName == "" {
			roleName = RoleUsers
		}

		role, err := h.repo.Roles().GetByNameTx(ctx, tx, roleName)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryBadInput, "unknown role for registration")
		}

		account.PasswordHash = hash
		account.Email = strings.TrimSpace(event.Email)
		account.Phone = normalizePhone(event.Phone, event.PhoneRegion)
		account.FirstName = event.FirstName
		account.LastName = event.LastName
		account.RoleID = role.ID
		account.Active = false
		account.ActivationToken = token

		if event.UseHashid {
			if id, err := hashid.NewUUID(account.Email); err == nil {
				account.ID = id
			}
		}

		if account, err = h.repo.Accounts().CreateTx(ctx, tx, account); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	h.bus.Dispatch(ctx, Event{Name: EventAfterRegister, Account: account})

	if event.OnResponse != nil {
		event.OnResponse(account)
	}

	return nil
}

// normalizePhone formats the number as E.164 when it parses; otherwise the
// raw input is stored as submitted.
func normalizePhone(phone, region string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	if region == "" {
		region = "US"
	}

	num, err := phonenumbers.Parse(phone, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return phone
	}

	return phonenumbers.Format(num, phonenumbers.E164)
}
