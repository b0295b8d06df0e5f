package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/identity/internal/models"
)

func (r *GormRepo) FindByEmailOrUsername(ctx context.Context, email, username string) (*models.Account, error) {
	var a models.Account
	err := r.DB.WithContext(ctx).
		Where("email = ? OR username = ?", email, username).
		First(&a).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *GormRepo) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *GormRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var a models.Account
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *GormRepo) Create(ctx context.Context, a *models.Account) error {
	return translate(r.DB.WithContext(ctx).Create(a).Error)
}

// Save writes the whole row when fields is empty, otherwise only the named columns.
func (r *GormRepo) Save(ctx context.Context, a *models.Account, fields ...string) error {
	var res *gorm.DB
	if len(fields) == 0 {
		res = r.DB.WithContext(ctx).Save(a)
	} else {
		res = r.DB.WithContext(ctx).Model(a).Select(fields).Updates(a)
	}
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeLoginCode clears the outstanding code only if it still equals code.
// Exactly one of several concurrent callers observes true.
func (r *GormRepo) ConsumeLoginCode(ctx context.Context, id uuid.UUID, code string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND login_code = ?", id, code).
		Updates(map[string]any{
			"login_code":            nil,
			"login_code_expires_at": nil,
		})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ReplaceCredential swaps the password hash only while it still equals oldHash.
// Exactly one of several concurrent callers holding the same oldHash observes true.
func (r *GormRepo) ReplaceCredential(ctx context.Context, id uuid.UUID, oldHash, newHash string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND password_hash = ?", id, oldHash).
		Update("password_hash", newHash)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}
