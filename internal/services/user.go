package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/shopfront-backend/internal/data/repos"
	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
	"github.com/yungbote/shopfront-backend/internal/platform/ctxutil"
	"github.com/yungbote/shopfront-backend/internal/platform/gcp"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

type UpdateProfileInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
}

type AdminUserUpdate struct {
	Role      *string `json:"role"`
	IsBlocked *bool   `json:"is_blocked"`
}

type UserQuery struct {
	Query string
	Role  string
	Page  int
	Limit int
}

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	UpdateMe(ctx context.Context, in UpdateProfileInput) (*types.User, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	UploadAvatar(ctx context.Context, filename string, r io.Reader) (*types.User, error)

	AdminList(ctx context.Context, q UserQuery) (*Page[*types.User], error)
	AdminGet(ctx context.Context, id uuid.UUID) (*types.User, error)
	AdminUpdate(ctx context.Context, id uuid.UUID, in AdminUserUpdate) (*types.User, error)
	AdminDelete(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	media         MediaService
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, userTokenRepo repos.UserTokenRepo, media MediaService) UserService {
	return &userService{
		db:            db,
		log:           log.With("service", "UserService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		media:         media,
	}
}

func currentUserID(ctx context.Context) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, unauthorized("unauthorized", "not authenticated")
	}
	return rd.UserID, nil
}

func (us *userService) load(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	users, err := us.userRepo.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, notFound("user_not_found", "user not found")
	}
	return users[0], nil
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	id, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	return us.load(dbctx.New(ctx), id)
}

func (us *userService) UpdateMe(ctx context.Context, in UpdateProfileInput) (*types.User, error) {
	id, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	for col, v := range map[string]*string{"first_name": in.FirstName, "last_name": in.LastName} {
		if v == nil {
			continue
		}
		s := strings.TrimSpace(*v)
		if s == "" {
			return nil, invalidArg("invalid_name", "%s cannot be empty", col)
		}
		updates[col] = s
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		updates["address"] = strings.TrimSpace(*in.Address)
	}
	dbc := dbctx.New(ctx)
	if len(updates) > 0 {
		if err := us.userRepo.UpdateFields(dbc, id, updates); err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
	}
	return us.load(dbc, id)
}

func (us *userService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	id, err := currentUserID(ctx)
	if err != nil {
		return err
	}
	if len(newPassword) < MinPasswordLength {
		return invalidArg("invalid_password", "new password must be at least %d characters", MinPasswordLength)
	}
	dbc := dbctx.New(ctx)
	user, err := us.load(dbc, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return invalidArg("invalid_password", "current password is incorrect")
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := us.userRepo.UpdateFields(dbc, id, map[string]any{"password": hash}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	us.log.Info("Password changed", "user_id", id)
	return nil
}

func (us *userService) UploadAvatar(ctx context.Context, filename string, r io.Reader) (*types.User, error) {
	id, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	url, err := us.media.Upload(ctx, gcp.BucketCategoryAvatar, filename, r)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	if err := us.userRepo.UpdateFields(dbc, id, map[string]any{"avatar_url": url}); err != nil {
		return nil, fmt.Errorf("save avatar: %w", err)
	}
	return us.load(dbc, id)
}

func (us *userService) AdminList(ctx context.Context, q UserQuery) (*Page[*types.User], error) {
	if q.Role != "" && !types.IsValidRole(q.Role) {
		return nil, invalidArg("invalid_role", "unknown role %q", q.Role)
	}
	page, limit := normalizePage(q.Page, q.Limit)
	users, total, err := us.userRepo.List(dbctx.New(ctx), repos.UserListFilter{
		Query: q.Query,
		Role:  q.Role,
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return newPage(users, page, limit, total), nil
}

func (us *userService) AdminGet(ctx context.Context, id uuid.UUID) (*types.User, error) {
	return us.load(dbctx.New(ctx), id)
}

// AdminUpdate revokes the user's sessions whenever the role or block flag
// changes, since both are baked into issued tokens.
func (us *userService) AdminUpdate(ctx context.Context, id uuid.UUID, in AdminUserUpdate) (*types.User, error) {
	actor, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.Role != nil {
		if !types.IsValidRole(*in.Role) {
			return nil, invalidArg("invalid_role", "unknown role %q", *in.Role)
		}
		if id == actor && *in.Role != types.RoleAdmin {
			return nil, invalidArg("cannot_demote_self", "admins cannot change their own role")
		}
		updates["role"] = *in.Role
	}
	if in.IsBlocked != nil {
		if id == actor && *in.IsBlocked {
			return nil, invalidArg("cannot_block_self", "admins cannot block themselves")
		}
		updates["is_blocked"] = *in.IsBlocked
	}

	var out *types.User
	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		user, err := us.load(dbc, id)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			out = user
			return nil
		}
		if err := us.userRepo.UpdateFields(dbc, id, updates); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if err := us.userTokenRepo.DeleteByUserIDs(dbc, []uuid.UUID{id}); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		out, err = us.load(dbc, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	us.log.Info("User updated by admin", "user_id", id, "actor_id", actor)
	return out, nil
}

func (us *userService) AdminDelete(ctx context.Context, id uuid.UUID) error {
	actor, err := currentUserID(ctx)
	if err != nil {
		return err
	}
	if id == actor {
		return invalidArg("cannot_delete_self", "admins cannot delete their own account")
	}
	return us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := us.load(dbc, id); err != nil {
			return err
		}
		if err := us.userTokenRepo.DeleteByUserIDs(dbc, []uuid.UUID{id}); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		if err := us.userRepo.SoftDeleteByIDs(dbc, []uuid.UUID{id}); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}
