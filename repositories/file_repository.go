package repositories

import (
	"context"

	"github.com/Ca23187/easypan/models"

	"gorm.io/gorm"
)

type GormFileRepository struct {
	db *gorm.DB
}

func NewGormFileRepository(db *gorm.DB) *GormFileRepository {
	return &GormFileRepository{db: db}
}

func (r *GormFileRepository) Create(_ context.Context, tx *gorm.DB, file *models.FileRecord) error {
	return useTx(r.db, tx).Create(file).Error
}

func (r *GormFileRepository) GetByIDAndUser(_ context.Context, tx *gorm.DB, fileID string, userID uint) (models.FileRecord, error) {
	var file models.FileRecord
	err := useTx(r.db, tx).Where("file_id = ? AND user_id = ?", fileID, userID).First(&file).Error
	return file, err
}

func (r *GormFileRepository) FindFirstByHashAndStatus(_ context.Context, tx *gorm.DB, contentHash string, status string) (models.FileRecord, error) {
	var file models.FileRecord
	err := useTx(r.db, tx).
		Where("content_hash = ? AND status = ? AND del_flag = ?", contentHash, status, models.FileFlagActive).
		First(&file).Error
	return file, err
}

func (r *GormFileRepository) CountByParentAndName(_ context.Context, tx *gorm.DB, userID uint, parentID uint, name string) (int64, error) {
	var count int64
	err := useTx(r.db, tx).Model(&models.FileRecord{}).
		Where("user_id = ? AND parent_id = ? AND name = ? AND del_flag = ?", userID, parentID, name, models.FileFlagActive).
		Count(&count).Error
	return count, err
}

func (r *GormFileRepository) UpdateStatusWithOldStatus(_ context.Context, tx *gorm.DB, fileID string, userID uint, oldStatus string, updates map[string]interface{}) (int64, error) {
	result := useTx(r.db, tx).Model(&models.FileRecord{}).
		Where("file_id = ? AND user_id = ? AND status = ?", fileID, userID, oldStatus).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *GormFileRepository) DeleteByIDAndUser(_ context.Context, tx *gorm.DB, fileID string, userID uint) error {
	return useTx(r.db, tx).
		Where("file_id = ? AND user_id = ?", fileID, userID).
		Delete(&models.FileRecord{}).Error
}
