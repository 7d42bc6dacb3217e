package service

import (
	"Atelier/internal/api/config"
	"Atelier/internal/api/dto"
	"Atelier/internal/model"
	"Atelier/internal/pkg/consts"
	"Atelier/internal/pkg/redis"
	"Atelier/internal/pkg/security"
	"Atelier/internal/pkg/util"
	"Atelier/internal/repository"
	"context"
	log "log/slog"
	"time"

	"github.com/jinzhu/copier"
)

type UserService interface {
	Register(ctx context.Context, dto *dto.RegisterDTO) error
	Login(ctx context.Context, dto *dto.CredentialDTO) (string, error)
	Logout(ctx context.Context, token string) error
	GetUserInfo(ctx context.Context, id uint64) (*dto.UserDTO, error)
	UpdatePassword(ctx context.Context, id uint64, dto *dto.UpdatePasswordDTO) error
	DeleteAccount(ctx context.Context, id uint64, token string) error
}

type UserServiceImpl struct {
	userRepo repository.UserRepo
}

func NewUserService(userRepo repository.UserRepo) UserService {
	return &UserServiceImpl{
		userRepo: userRepo,
	}
}

// Register 注册新用户并发放初始积分
func (s *UserServiceImpl) Register(ctx context.Context, regDTO *dto.RegisterDTO) error {
	findUser, err := s.userRepo.GetUserByUsername(ctx, *regDTO.Username)
	if err != nil {
		return err
	}
	if findUser != nil {
		return ErrUserUsernameExist
	}

	passwordHash, err := security.HashPassword(*regDTO.Password)
	if err != nil {
		return err
	}

	grantAmount := config.Cfg.Credits.SignupGrant
	user := &model.User{
		Username:      regDTO.Username,
		Password:      &passwordHash,
		CreditBalance: grantAmount,
	}

	var grant *model.CreditTransaction
	if grantAmount > 0 {
		grant = &model.CreditTransaction{
			Amount:      grantAmount,
			TxType:      consts.TxTypeGrant,
			Description: "注册赠送",
		}
	}

	return s.userRepo.CreateUser(ctx, user, grant)
}

func (s *UserServiceImpl) Login(ctx context.Context, credDTO *dto.CredentialDTO) (string, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, *credDTO.Username)
	if err != nil {
		return "", err
	}
	if user == nil || user.IsDelete {
		return "", ErrUserNotFound
	}
	if user.IsBan {
		return "", ErrUserBan
	}

	if credDTO.Password == nil || user.Password == nil {
		return "", ErrPasswordIncorrect
	}
	if err = security.CheckPasswordHash(*credDTO.Password, *user.Password); err != nil {
		return "", ErrPasswordIncorrect
	}

	return security.GenerateToken(user.ID)
}

func (s *UserServiceImpl) Logout(ctx context.Context, token string) error {
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return err
	}
	return redis.SetWithExpiration(ctx, consts.TokenBlacklistKey+signature, true, time.Hour*24)
}

func (s *UserServiceImpl) GetUserInfo(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	userDTO := &dto.UserDTO{}
	if err = copier.Copy(userDTO, user); err != nil {
		return nil, err
	}
	userDTO.UserID = util.PtrUint64(user.ID)
	return userDTO, nil
}

// UpdatePassword 校验旧密码后更新密码
func (s *UserServiceImpl) UpdatePassword(ctx context.Context, id uint64, updateDTO *dto.UpdatePasswordDTO) error {
	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		return err
	}
	if user == nil || user.IsDelete {
		return ErrUserNotFound
	}

	if user.Password == nil {
		return ErrPasswordIncorrect
	}
	if err = security.CheckPasswordHash(*updateDTO.OldPassword, *user.Password); err != nil {
		return ErrPasswordIncorrect
	}

	passwordHash, err := security.HashPassword(*updateDTO.NewPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdateUser(ctx, &model.User{
		ID:       id,
		Password: &passwordHash,
	})
}

// DeleteAccount 注销账号，软删除并把当前 Token 拉黑
func (s *UserServiceImpl) DeleteAccount(ctx context.Context, id uint64, token string) error {
	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		return err
	}
	if user == nil || user.IsDelete {
		return ErrUserNotFound
	}

	if err = s.userRepo.DeleteUser(ctx, id); err != nil {
		return err
	}

	if token != "" {
		if err = s.Logout(ctx, token); err != nil {
			log.WarnContext(ctx, "注销后拉黑 Token 失败", "user_id", id, "err", err)
		}
	}
	return nil
}
