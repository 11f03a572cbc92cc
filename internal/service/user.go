package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"church-manager/internal/core/auth"
	"church-manager/internal/domain"
	"church-manager/internal/repo"
	"church-manager/pkg/utils"
)

var (
	ErrBadCredentials = errors.New("invalid credentials")
	ErrLastAdmin      = errors.New("cannot remove the last active admin")
)

type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type UserService struct {
	users *repo.UserRepo
	jwt   *auth.JWTer
	log   *zap.Logger
}

func NewUserService(users *repo.UserRepo, j *auth.JWTer, l *zap.Logger) *UserService {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserService{users: users, jwt: j, log: l}
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.Get(ctx, id)
}

func (s *UserService) List(ctx context.Context, q string, withInactive bool, offset, limit int) ([]domain.User, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.Search(ctx, strings.TrimSpace(q), withInactive, offset, limit)
}

func (s *UserService) Create(ctx context.Context, in *domain.UserCreate) (*domain.User, error) {
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	var member *string
	if in.MemberID != nil && strings.TrimSpace(*in.MemberID) != "" {
		m := strings.TrimSpace(*in.MemberID)
		member = &m
	}
	return s.users.Create(ctx, &domain.User{
		MemberID:     member,
		Email:        domain.NormalizeEmail(in.Email),
		PasswordHash: hash,
		IsAdmin:      in.IsAdmin,
	})
}

// demotes 本次修改是否会让一个活跃管理员失去管理权
func demotes(cur *domain.User, p *domain.UserPatch) bool {
	if !cur.IsAdmin || !cur.IsActive {
		return false
	}
	return (p.IsAdmin != nil && !*p.IsAdmin) || (p.IsActive != nil && !*p.IsActive)
}

func (s *UserService) guardLastAdmin(ctx context.Context) error {
	n, err := s.users.CountActiveAdmins(ctx)
	if err != nil {
		return err
	}
	if n <= 1 {
		return ErrLastAdmin
	}
	return nil
}

// Update 部分更新；密码单独哈希
func (s *UserService) Update(ctx context.Context, id string, p *domain.UserPatch) (*domain.User, error) {
	cur, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if demotes(cur, p) {
		if err := s.guardLastAdmin(ctx); err != nil {
			return nil, err
		}
	}
	changes := p.Changes()
	if p.Password != nil {
		hash, err := utils.HashPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		changes["password_hash"] = hash
	}
	return s.users.Update(ctx, id, changes)
}

func (s *UserService) Deactivate(ctx context.Context, id string) (*domain.User, error) {
	off := false
	cur, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if demotes(cur, &domain.UserPatch{IsActive: &off}) {
		if err := s.guardLastAdmin(ctx); err != nil {
			return nil, err
		}
	}
	return s.users.Deactivate(ctx, id)
}

// Login 邮箱+密码换 JWT；停用账号不可登录
func (s *UserService) Login(ctx context.Context, cred domain.Credentials) (*LoginResult, error) {
	u, err := s.users.FindByEmail(ctx, cred.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(cred.Password, u.PasswordHash) {
		return nil, ErrBadCredentials
	}
	if !u.IsActive {
		return nil, domain.ErrInactive
	}
	tok, err := s.jwt.Issue(u.ID, u.Role())
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: tok, User: u}, nil
}

// EnsureSeedAdmin 没有任何活跃管理员时创建种子账号；返回是否新建
func (s *UserService) EnsureSeedAdmin(ctx context.Context, email, password string) (bool, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return false, nil
	}
	n, err := s.users.CountActiveAdmins(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	_, err = s.Create(ctx, &domain.UserCreate{Email: email, Password: password, IsAdmin: true})
	if errors.Is(err, domain.ErrDuplicate) {
		// 账号存在但不是管理员：提升并激活
		u, ferr := s.users.FindByEmail(ctx, email)
		if ferr != nil {
			return false, ferr
		}
		if _, err = s.users.Update(ctx, u.ID, map[string]any{"is_admin": true, "is_active": true}); err != nil {
			return false, err
		}
		s.log.Warn("seed admin promoted", zap.String("email", u.Email))
		return true, nil
	}
	if err != nil {
		return false, err
	}
	s.log.Info("seed admin created", zap.String("email", domain.NormalizeEmail(email)))
	return true, nil
}
