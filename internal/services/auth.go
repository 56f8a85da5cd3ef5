package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/shopfront-backend/internal/data/repos"
	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
	"github.com/yungbote/shopfront-backend/internal/platform/ctxutil"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

const MinPasswordLength = 6

// PasswordHashCost is lowered by tests.
var PasswordHashCost = bcrypt.DefaultCost

type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type TokenPair struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	User         *types.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	EnsureAdmin(ctx context.Context, email, password string) (*types.User, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  []byte(jwtSecretKey),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (as *authService) GetAccessTTL() time.Duration { return as.accessTTL }

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	email := repos.NormalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(in.Password) < MinPasswordLength {
		return nil, invalidArg("invalid_password", "password must be at least %d characters", MinPasswordLength)
	}
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if first == "" || last == "" {
		return nil, invalidArg("invalid_name", "first_name and last_name are required")
	}

	dbc := dbctx.New(ctx)
	exists, err := as.userRepo.EmailExists(dbc, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, conflict("email_taken", "email already registered")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	created, err := as.userRepo.Create(dbc, []*types.User{{
		Email:     email,
		Password:  hash,
		FirstName: first,
		LastName:  last,
		Phone:     strings.TrimSpace(in.Phone),
		Role:      types.RoleCustomer,
	}})
	if err != nil {
		return nil, storeConflict(err, "create user", "email_taken", "email already registered")
	}
	as.log.Info("User registered", "user_id", created[0].ID)
	return created[0], nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = repos.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalidArg("missing_credentials", "email and password are required")
	}
	dbc := dbctx.New(ctx)
	users, err := as.userRepo.GetByEmails(dbc, []string{email})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, unauthorized("invalid_credentials", "invalid email or password")
	}
	user := users[0]
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, unauthorized("invalid_credentials", "invalid email or password")
	}
	if user.IsBlocked {
		return nil, forbidden("user_blocked", "account is blocked")
	}
	return as.issue(dbc, user)
}

// Refresh rotates a refresh token: the presented row is deleted and a new pair
// issued. A token can be redeemed once; the delete's row count decides races.
func (as *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, invalidArg("missing_refresh_token", "refresh_token is required")
	}
	var pair *TokenPair
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		found, err := as.userTokenRepo.GetByRefreshTokens(dbc, []string{refreshToken})
		if err != nil {
			return fmt.Errorf("load refresh token: %w", err)
		}
		if len(found) == 0 {
			return unauthorized("invalid_refresh_token", "refresh token not recognised")
		}
		existing := found[0]
		n, err := as.userTokenRepo.DeleteByIDs(dbc, []uuid.UUID{existing.ID})
		if err != nil {
			return fmt.Errorf("delete refresh token: %w", err)
		}
		if n == 0 {
			return unauthorized("invalid_refresh_token", "refresh token already used")
		}
		if existing.Expired(as.now()) {
			return errRefreshExpired
		}
		users, err := as.userRepo.GetByIDs(dbc, []uuid.UUID{existing.UserID})
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if len(users) == 0 {
			return unauthorized("invalid_refresh_token", "user no longer exists")
		}
		if users[0].IsBlocked {
			return forbidden("user_blocked", "account is blocked")
		}
		pair, err = as.issue(dbc, users[0])
		return err
	})
	if errors.Is(err, errRefreshExpired) {
		// The expired row is still removed.
		if _, derr := as.userTokenRepo.DeleteExpired(dbctx.New(ctx), as.now()); derr != nil {
			as.log.Warn("Failed to purge expired tokens", "error", derr)
		}
		return nil, unauthorized("refresh_expired", "refresh token expired")
	}
	if err != nil {
		return nil, err
	}
	return pair, nil
}

var errRefreshExpired = errors.New("refresh token expired")

func (as *authService) Logout(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return unauthorized("unauthorized", "not authenticated")
	}
	dbc := dbctx.New(ctx)
	found, err := as.userTokenRepo.GetByAccessTokens(dbc, []string{rd.TokenString})
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if len(found) == 0 {
		return nil
	}
	if _, err := as.userTokenRepo.DeleteByIDs(dbc, []uuid.UUID{found[0].ID}); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, unauthorized("unauthorized", "missing token")
	}
	claims := &JWTClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return as.jwtSecretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil || !parsed.Valid {
		return ctx, unauthorized("invalid_token", "invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, unauthorized("invalid_token", "invalid subject")
	}
	found, err := as.userTokenRepo.GetByAccessTokens(dbctx.New(ctx), []string{tokenString})
	if err != nil {
		return ctx, fmt.Errorf("load token: %w", err)
	}
	if len(found) == 0 || found[0].UserID != userID {
		return ctx, unauthorized("invalid_token", "token revoked")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Role:        claims.Role,
	}), nil
}

// EnsureAdmin creates the bootstrap admin, or promotes an existing account
// with that email.
func (as *authService) EnsureAdmin(ctx context.Context, email, password string) (*types.User, error) {
	email = repos.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	users, err := as.userRepo.GetByEmails(dbc, []string{email})
	if err != nil {
		return nil, fmt.Errorf("load admin: %w", err)
	}
	if len(users) > 0 {
		u := users[0]
		if u.Role != types.RoleAdmin || u.IsBlocked {
			if err := as.userRepo.UpdateFields(dbc, u.ID, map[string]any{"role": types.RoleAdmin, "is_blocked": false}); err != nil {
				return nil, fmt.Errorf("promote admin: %w", err)
			}
			u.Role, u.IsBlocked = types.RoleAdmin, false
			as.log.Info("Promoted bootstrap admin", "user_id", u.ID)
		}
		return u, nil
	}
	if len(password) < MinPasswordLength {
		return nil, invalidArg("invalid_password", "bootstrap password must be at least %d characters", MinPasswordLength)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	created, err := as.userRepo.Create(dbc, []*types.User{{
		Email:     email,
		Password:  hash,
		FirstName: "Shop",
		LastName:  "Admin",
		Role:      types.RoleAdmin,
	}})
	if err != nil {
		return nil, storeConflict(err, "create admin", "email_taken", "email already registered")
	}
	as.log.Info("Created bootstrap admin", "user_id", created[0].ID)
	return created[0], nil
}

func (as *authService) issue(dbc dbctx.Context, user *types.User) (*TokenPair, error) {
	now := as.now()
	access, err := as.signAccessToken(user, now)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	token := &types.UserToken{
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    now.Add(as.refreshTTL).UTC(),
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{token}); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    int64(as.accessTTL / time.Second),
		User:         user,
	}, nil
}

func (as *authService) signAccessToken(user *types.User, now time.Time) (string, error) {
	claims := JWTClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.jwtSecretKey)
}

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), PasswordHashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func validateEmail(email string) error {
	if email == "" {
		return invalidArg("invalid_email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.IndexByte(email, '@')+1:], ".") {
		return invalidArg("invalid_email", "email %q is not valid", email)
	}
	return nil
}
