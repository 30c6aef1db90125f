package repositories

import (
	"context"

	"github.com/Ca23187/easypan/models"

	"gorm.io/gorm"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(_ context.Context, tx *gorm.DB, user *models.User) error {
	return useTx(r.db, tx).Create(user).Error
}

func (r *GormUserRepository) GetByID(_ context.Context, tx *gorm.DB, userID uint) (models.User, error) {
	var user models.User
	err := useTx(r.db, tx).First(&user, userID).Error
	return user, err
}

// TryReserveSpace 配额预占。条件和自增在同一条 UPDATE 里完成，
// 多个并发上传（跨进程）由数据库保证线性化，应用层绝不 read-then-write。
func (r *GormUserRepository) TryReserveSpace(_ context.Context, tx *gorm.DB, userID uint, delta int64) (bool, error) {
	if delta == 0 {
		return true, nil
	}
	result := useTx(r.db, tx).Model(&models.User{}).
		Where("id = ? AND storage_used + ? <= storage_quota", userID, delta).
		UpdateColumn("storage_used", gorm.Expr("storage_used + ?", delta))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *GormUserRepository) ReleaseSpace(_ context.Context, tx *gorm.DB, userID uint, delta int64) error {
	if delta <= 0 {
		return nil
	}
	return useTx(r.db, tx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("storage_used", gorm.Expr("GREATEST(storage_used - ?, 0)", delta)).Error
}
