package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"bookmarket-api/internal/adapters/persistence/models"
	"bookmarket-api/internal/adapters/persistence/repositories"
	"bookmarket-api/internal/core/domain"
	"bookmarket-api/internal/pkg/jwt"
	"bookmarket-api/internal/pkg/password"

	"gorm.io/gorm"
)

// AuthService owns the account lifecycle and the ACTIVE/INACTIVE session flag
// for both patrons and librarians.
type AuthService struct {
	store  repositories.Store
	tokens *jwt.Service
	hasher password.Hasher
}

// NewAuthService creates a new auth service
func NewAuthService(store repositories.Store, tokens *jwt.Service, hasher password.Hasher) *AuthService {
	return &AuthService{
		store:  store,
		tokens: tokens,
		hasher: hasher,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Nickname string `json:"nickname" validate:"omitempty,max=100"`
}

// LoginInput represents login input
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshInput represents refresh token input
type RefreshInput struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// UpdateAccountInput represents account update input. Empty fields are left unchanged.
type UpdateAccountInput struct {
	ID       uint   `json:"id" validate:"required"`
	Username string `json:"username" validate:"omitempty,min=3,max=50"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
	Nickname string `json:"nickname" validate:"omitempty,max=100"`
}

// Identity is the authenticated principal attached to a request
type Identity struct {
	AccountID uint
	Username  string
	Kind      domain.AccountKind
	Roles     []string
}

// HasRole reports whether the identity holds role
func (i *Identity) HasRole(role domain.Role) bool {
	for _, r := range i.Roles {
		if r == string(role) {
			return true
		}
	}
	return false
}

// Register creates an INACTIVE account with the kind's default roles
func (s *AuthService) Register(ctx context.Context, kind domain.AccountKind, input *RegisterInput) (*models.Account, error) {
	// 1. Check if username already exists
	exists, err := s.store.Accounts().ExistsByUsername(ctx, kind, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateUsername
	}

	// 2. Hash password
	hashedPassword, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	// 3. Create account
	account := models.NewAccount(kind, input.Username, hashedPassword, input.Nickname)
	if err := s.store.Accounts().Create(ctx, account); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrDuplicateUsername
		}
		return nil, err
	}

	log.Printf("✅ %s registered: %s (id=%d)", kind, account.Username, account.ID)
	return account, nil
}

// Login flips the account INACTIVE -> ACTIVE and issues a token pair
func (s *AuthService) Login(ctx context.Context, kind domain.AccountKind, input *LoginInput) (*domain.TokenPair, error) {
	var tokens *domain.TokenPair

	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		// 1. Find account by username
		account, err := tx.Accounts().GetByUsername(ctx, kind, input.Username)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrAccountNotFound
			}
			return err
		}

		// 2. A second login before logout is rejected
		if account.HasSession() {
			return domain.ErrAlreadyActive
		}

		// 3. Verify password
		if !s.hasher.Verify(input.Password, account.Password) {
			return domain.ErrBadCredential
		}

		// 4. Flip status; losing the race means another login got there first
		ok, err := tx.Accounts().TransitionStatus(ctx, account.ID, domain.StatusInactive, domain.StatusActive)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAlreadyActive
		}

		// 5. Generate tokens
		tokens, err = s.generateTokens(account)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ %s logged in: %s", kind, input.Username)
	return tokens, nil
}

// Logout flips the account ACTIVE -> INACTIVE
func (s *AuthService) Logout(ctx context.Context, kind domain.AccountKind, id uint) error {
	account, err := s.getAccount(ctx, s.store, kind, id)
	if err != nil {
		return err
	}
	if !account.HasSession() {
		return domain.ErrAlreadyInactive
	}

	ok, err := s.store.Accounts().TransitionStatus(ctx, id, domain.StatusActive, domain.StatusInactive)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAlreadyInactive
	}

	log.Printf("✅ %s logged out: %s", kind, account.Username)
	return nil
}

// Refresh mints a new access token. The refresh token is echoed back, not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	// 1. The credential kind is checked before the signature
	typ, err := s.tokens.PeekType(refreshToken)
	if err != nil {
		return nil, domain.ErrCredentialInvalid
	}
	if typ != jwt.TypeRefresh {
		return nil, domain.ErrWrongCredentialKind
	}

	// 2. Verify signature and expiry
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, credentialError(err)
	}

	// 3. Resolve the account the token was issued for
	kind := domain.AccountKind(claims.AccountKind)
	if !kind.Valid() {
		return nil, domain.ErrCredentialInvalid
	}
	account, err := s.store.Accounts().GetByUsername(ctx, kind, claims.Username())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}

	// 4. Only a logged-in account may refresh
	if !account.HasSession() {
		return nil, domain.ErrAccountInactive
	}

	accessToken, err := s.tokens.IssueAccess(account.Username, string(account.Kind), account.Roles)
	if err != nil {
		return nil, err
	}

	log.Printf("🔄 Access token refreshed for %s %s", kind, account.Username)
	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Message:      "Token refreshed successfully",
	}, nil
}

// Authenticate verifies an access token and re-resolves the account's current roles
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*Identity, error) {
	claims, err := s.tokens.Verify(accessToken)
	if err != nil {
		return nil, credentialError(err)
	}
	if claims.TokenType != jwt.TypeAccess {
		return nil, domain.ErrCredentialInvalid
	}

	kind := domain.AccountKind(claims.AccountKind)
	if !kind.Valid() {
		return nil, domain.ErrCredentialInvalid
	}

	account, err := s.store.Accounts().GetByUsername(ctx, kind, claims.Username())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCredentialInvalid
		}
		return nil, err
	}

	return &Identity{
		AccountID: account.ID,
		Username:  account.Username,
		Kind:      account.Kind,
		Roles:     account.Roles,
	}, nil
}

// GetByID returns an account of the given kind
func (s *AuthService) GetByID(ctx context.Context, kind domain.AccountKind, id uint) (*models.Account, error) {
	return s.getAccount(ctx, s.store, kind, id)
}

// Update changes username, password or nickname. Status and roles are untouched.
func (s *AuthService) Update(ctx context.Context, kind domain.AccountKind, input *UpdateAccountInput) (*models.Account, error) {
	var updated *models.Account

	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		account, err := s.getAccountForUpdate(ctx, tx, kind, input.ID)
		if err != nil {
			return err
		}

		if input.Username != "" && input.Username != account.Username {
			exists, err := tx.Accounts().ExistsByUsername(ctx, kind, input.Username)
			if err != nil {
				return err
			}
			if exists {
				return domain.ErrDuplicateUsername
			}
			account.Username = input.Username
		}

		if input.Password != "" {
			hashed, err := s.hasher.Hash(input.Password)
			if err != nil {
				return err
			}
			account.Password = hashed
		}

		if input.Nickname != "" {
			account.Nickname = input.Nickname
		}

		if err := tx.Accounts().Update(ctx, account); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrDuplicateUsername
			}
			return err
		}
		updated = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ %s updated: %s (id=%d)", kind, updated.Username, updated.ID)
	return updated, nil
}

// Delete removes an account that holds no ACTIVE loans
func (s *AuthService) Delete(ctx context.Context, kind domain.AccountKind, id uint) error {
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		if _, err := s.getAccountForUpdate(ctx, tx, kind, id); err != nil {
			return err
		}

		active, err := tx.Loans().CountActiveByAccount(ctx, id, 0)
		if err != nil {
			return err
		}
		if active > 0 {
			return domain.ErrAccountHasLoans
		}

		return tx.Accounts().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	log.Printf("🗑️ %s deleted: id=%d", kind, id)
	return nil
}

// EnsureAccount creates an account if none exists with the username. Used for bootstrap seeding.
func (s *AuthService) EnsureAccount(ctx context.Context, kind domain.AccountKind, input *RegisterInput) (*models.Account, bool, error) {
	account, err := s.store.Accounts().GetByUsername(ctx, kind, input.Username)
	if err == nil {
		return account, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	account, err = s.Register(ctx, kind, input)
	if err != nil {
		return nil, false, err
	}
	return account, true, nil
}

// ============================================================
// Private helpers
// ============================================================

func (s *AuthService) generateTokens(account *models.Account) (*domain.TokenPair, error) {
	accessToken, err := s.tokens.IssueAccess(account.Username, string(account.Kind), account.Roles)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, err := s.tokens.IssueRefresh(account.Username, string(account.Kind))
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) getAccount(ctx context.Context, store repositories.Store, kind domain.AccountKind, id uint) (*models.Account, error) {
	account, err := store.Accounts().GetByID(ctx, id)
	return checkAccount(account, err, kind)
}

func (s *AuthService) getAccountForUpdate(ctx context.Context, store repositories.Store, kind domain.AccountKind, id uint) (*models.Account, error) {
	account, err := store.Accounts().GetByIDForUpdate(ctx, id)
	return checkAccount(account, err, kind)
}

func checkAccount(account *models.Account, err error, kind domain.AccountKind) (*models.Account, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	if account.Kind != kind {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func credentialError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return domain.ErrCredentialExpired
	}
	return domain.ErrCredentialInvalid
}
