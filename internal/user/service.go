// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/devassets/assets-api/internal/auth"
	"github.com/devassets/assets-api/internal/config"
	"github.com/devassets/assets-api/internal/core"
	"github.com/devassets/assets-api/internal/middleware"
	"github.com/devassets/assets-api/internal/storage"
)

const (
	deletedUserName     = "Deleted User"
	deletedUserNickname = "deleted-user"
	accountDeletedMsg   = "Account deleted. Discard any locally stored token and session data."

	msgEmailTaken    = "Email already exists"
	msgNicknameTaken = "Nickname already exists"
)

// OwnerReassigner moves every asset owned by fromID to toID using db,
// which is the enclosing transaction during account deletion.
type OwnerReassigner func(ctx context.Context, db core.DBTX, fromID, toID string) (int64, error)

type TokenRevoker interface {
	Revoke(ctx context.Context, token string) error
}

type Service struct {
	repo          Repository
	tx            core.Transactor
	newRepo       func(core.DBTX) Repository
	reassignOwner OwnerReassigner
	revoker       TokenRevoker
	storage       storage.Storage
	accounts      config.AccountsConfig
	validate      *validator.Validate
}

func NewService(
	repo Repository,
	tx core.Transactor,
	reassignOwner OwnerReassigner,
	revoker TokenRevoker,
	store storage.Storage,
	accounts config.AccountsConfig,
) *Service {
	return &Service{
		repo:          repo,
		tx:            tx,
		newRepo:       NewRepository,
		reassignOwner: reassignOwner,
		revoker:       revoker,
		storage:       store,
		accounts:      accounts,
		validate:      validator.New(),
	}
}

// profile is the candidate state checked by validateProfile.
type profile struct {
	name     string
	nickname string
	email    string
	password *string
}

// validateProfile applies the account rules in a fixed order, collecting
// one message per violated rule. excludeID exempts the caller's own row
// from the uniqueness checks.
func (s *Service) validateProfile(
	ctx context.Context,
	p profile,
	excludeID string,
) error {
	ve := &core.ValidationError{}

	if p.name == "" {
		ve.Add("Please add a name")
	}

	if p.nickname == "" {
		ve.Add("Please add a nickname")
	}

	switch {
	case p.email == "":
		ve.Add("Please add an email")
	case s.validate.Var(p.email, "email") != nil:
		ve.Add("Please add a valid email")
	default:
		taken, err := s.repo.EmailTaken(ctx, p.email, excludeID)
		if err != nil {
			return err
		}
		if taken {
			ve.Add(msgEmailTaken)
		}
	}

	if p.nickname != "" {
		taken, err := s.repo.NicknameTaken(ctx, p.nickname, excludeID)
		if err != nil {
			return err
		}
		if taken {
			ve.Add(msgNicknameTaken)
		}
	}

	if p.password != nil {
		switch {
		case *p.password == "":
			ve.Add("Please add a password")
		case utf8.RuneCountInString(*p.password) < core.MinPasswordLength:
			ve.Add(fmt.Sprintf(
				"Password must be at least %d characters",
				core.MinPasswordLength,
			))
		}
	}

	return ve.OrNil()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create registers a new account. The password is hashed here, before
// anything is persisted.
func (s *Service) Create(ctx context.Context, in auth.NewUser) (*auth.UserInfo, error) {
	password := in.Password
	p := profile{
		name:     strings.TrimSpace(in.Name),
		nickname: strings.TrimSpace(in.Nickname),
		email:    normalizeEmail(in.Email),
		password: &password,
	}

	if err := s.validateProfile(ctx, p, ""); err != nil {
		return nil, err
	}

	hash, err := core.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New().String(),
		Name:         p.name,
		Nickname:     p.nickname,
		Email:        p.email,
		PasswordHash: hash,
		Avatar:       s.accounts.DefaultAvatar,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) UpdatePasswordHash(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePasswordHash(ctx, userID, passwordHash)
}

func (s *Service) LookupPrincipal(
	ctx context.Context,
	userID string,
) (*middleware.Principal, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &middleware.Principal{
		ID:       user.ID,
		Email:    user.Email,
		Nickname: user.Nickname,
	}, nil
}

// GetProfile returns the account with its followers loaded.
func (s *Service) GetProfile(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	followers, err := s.repo.ListFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Followers = followers

	return user, nil
}

func (s *Service) AvatarURL(name string) string {
	return s.storage.URL(name)
}

// UpdateProfile merges the given fields and optionally replaces the avatar.
// A new avatar is stored before the row is written, and the previous file
// is removed only after the write succeeds.
func (s *Service) UpdateProfile(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
	avatar *AvatarUpload,
) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := profile{
		name:     user.Name,
		nickname: user.Nickname,
		email:    user.Email,
		password: req.Password,
	}
	if req.Name != nil {
		p.name = strings.TrimSpace(*req.Name)
	}
	if req.Nickname != nil {
		p.nickname = strings.TrimSpace(*req.Nickname)
	}
	if req.Email != nil {
		p.email = normalizeEmail(*req.Email)
	}

	if err := s.validateProfile(ctx, p, user.ID); err != nil {
		return nil, err
	}

	user.Name = p.name
	user.Nickname = p.nickname
	user.Email = p.email

	if p.password != nil {
		hash, err := core.HashPassword(*p.password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	previousAvatar := user.Avatar
	var storedAvatar string

	if avatar != nil {
		storedAvatar = avatarObjectName(user.ID, avatar.Extension)
		if err := s.storage.Save(
			ctx,
			storedAvatar,
			avatar.Reader,
			avatar.Size,
			avatar.ContentType,
		); err != nil {
			return nil, fmt.Errorf("store avatar: %w", err)
		}
		user.Avatar = storedAvatar
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if storedAvatar != "" {
			s.removeFile(ctx, storedAvatar)
		}
		return nil, err
	}

	if storedAvatar != "" && previousAvatar != s.accounts.DefaultAvatar {
		s.removeFile(ctx, previousAvatar)
	}

	followers, err := s.repo.ListFollowers(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Followers = followers

	return user, nil
}

// DeleteAvatar resets the avatar to the default image.
func (s *Service) DeleteAvatar(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !user.HasAvatar(s.accounts.DefaultAvatar) {
		return user, nil
	}

	previous := user.Avatar
	user.Avatar = s.accounts.DefaultAvatar

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.removeFile(ctx, previous)

	return user, nil
}

// DeleteAccount hands the user's assets to the deleted-user account and
// removes the user in one transaction, then revokes the presented token
// and removes the avatar file.
func (s *Service) DeleteAccount(
	ctx context.Context,
	userID, token string,
) (*DeleteAccountResponse, error) {
	ctx, span := core.StartSpan(ctx, "user.DeleteAccount",
		attribute.String("user.id", userID),
	)
	defer span.End()

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	sentinel, err := s.repo.GetByEmail(ctx, s.accounts.DeletedUserEmail)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			err = fmt.Errorf(
				"deleted-user account %s is missing",
				s.accounts.DeletedUserEmail,
			)
		}
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("delete account: %w", err)
	}

	if sentinel.ID == user.ID {
		return nil, fmt.Errorf(
			"delete account: %w",
			core.UnauthorizedError("the deleted-user account cannot be deleted"),
		)
	}

	var moved int64
	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		n, err := s.reassignOwner(ctx, tx, user.ID, sentinel.ID)
		if err != nil {
			return fmt.Errorf("reassign assets: %w", err)
		}
		moved = n

		return s.newRepo(tx).Delete(ctx, user.ID)
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("delete account: %w", err)
	}

	if err := s.revoker.Revoke(ctx, token); err != nil {
		slog.WarnContext(ctx, "token revocation failed after account deletion",
			"user_id", user.ID,
			"error", err,
		)
	}

	if user.HasAvatar(s.accounts.DefaultAvatar) {
		s.removeFile(ctx, user.Avatar)
	}

	slog.InfoContext(ctx, "account deleted",
		"user_id", user.ID,
		"reassigned_assets", moved,
	)

	return &DeleteAccountResponse{
		Message:          accountDeletedMsg,
		ReassignedAssets: moved,
	}, nil
}

// EnsureDeletedUser creates the account that inherits assets of deleted
// users when it does not exist yet.
func (s *Service) EnsureDeletedUser(ctx context.Context) (*User, error) {
	existing, err := s.repo.GetByEmail(ctx, s.accounts.DeletedUserEmail)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	// nobody can log in as this account: the password is never disclosed
	hash, err := core.HashPassword(uuid.New().String())
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New().String(),
		Name:         deletedUserName,
		Nickname:     deletedUserNickname,
		Email:        s.accounts.DeletedUserEmail,
		PasswordHash: hash,
		Avatar:       s.accounts.DefaultAvatar,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		// another instance may have created it first
		if existing, getErr := s.repo.GetByEmail(ctx, s.accounts.DeletedUserEmail); getErr == nil {
			return existing, nil
		}
		return nil, err
	}

	return user, nil
}

func (s *Service) Follow(ctx context.Context, targetID, followerID string) (*User, error) {
	if targetID == followerID {
		return nil, core.NewValidationError("You cannot follow yourself")
	}

	if _, err := s.repo.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	added, err := s.repo.AddFollower(ctx, targetID, followerID)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, fmt.Errorf("follow: %w", core.ConflictError("already following this user"))
	}

	return s.GetProfile(ctx, targetID)
}

func (s *Service) Unfollow(ctx context.Context, targetID, followerID string) (*User, error) {
	if _, err := s.repo.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	removed, err := s.repo.RemoveFollower(ctx, targetID, followerID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, fmt.Errorf("unfollow: %w", core.ConflictError("not following this user"))
	}

	return s.GetProfile(ctx, targetID)
}

func (s *Service) removeFile(ctx context.Context, name string) {
	if err := s.storage.Delete(ctx, name); err != nil {
		slog.WarnContext(ctx, "avatar cleanup failed",
			"file", name,
			"error", err,
		)
	}
}

func avatarObjectName(userID, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("avatar_%s_%s%s", userID, uuid.New().String()[:8], ext)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Name:         u.Name,
		Nickname:     u.Nickname,
		Email:        u.Email,
		Avatar:       u.Avatar,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

var (
	_ auth.UserProvider          = (*Service)(nil)
	_ middleware.PrincipalLookup = (*Service)(nil)
	_ TokenRevoker               = (*auth.JWTManager)(nil)
	_ core.Transactor            = (*core.Database)(nil)
)
