package repository

import (
	"context"

	"go-utang-ledger/internal/model"

	"gorm.io/gorm"
)

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, userID, hashedPassword string) error
	UpdateTokenVersion(ctx context.Context, userID, version string) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepo) UpdatePassword(ctx context.Context, userID, hashedPassword string) error {
	return r.updateColumn(ctx, userID, "password", hashedPassword)
}

func (r *userRepo) UpdateTokenVersion(ctx context.Context, userID, version string) error {
	return r.updateColumn(ctx, userID, "token_version", version)
}

func (r *userRepo) updateColumn(ctx context.Context, userID, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update(column, value)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
