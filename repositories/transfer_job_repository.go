package repositories

import (
	"context"
	"time"

	"github.com/Ca23187/easypan/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func lockForUpdateSkipLocked() clause.Locking {
	return clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}
}

type GormTransferJobRepository struct {
	db *gorm.DB
}

func NewGormTransferJobRepository(db *gorm.DB) *GormTransferJobRepository {
	return &GormTransferJobRepository{db: db}
}

func (r *GormTransferJobRepository) Create(_ context.Context, tx *gorm.DB, job *models.TransferJob) error {
	return useTx(r.db, tx).Create(job).Error
}

// ClaimPending 在一个事务里锁住最早的 pending 任务并置为 running，
// 多个 worker 同时轮询也只会有一个认领成功。
func (r *GormTransferJobRepository) ClaimPending(_ context.Context, tx *gorm.DB) (models.TransferJob, error) {
	var job models.TransferJob
	err := useTx(r.db, tx).Transaction(func(inner *gorm.DB) error {
		if err := inner.Clauses(lockForUpdateSkipLocked()).
			Where("status = ?", models.TransferJobPending).
			Order("id").
			First(&job).Error; err != nil {
			return err
		}
		job.Status = models.TransferJobRunning
		return inner.Model(&models.TransferJob{}).
			Where("id = ?", job.ID).
			Update("status", models.TransferJobRunning).Error
	})
	return job, err
}

func (r *GormTransferJobRepository) Finish(_ context.Context, tx *gorm.DB, jobID uint, status string, finishedAt time.Time) error {
	return useTx(r.db, tx).Model(&models.TransferJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{"status": status, "finished_at": finishedAt}).Error
}
