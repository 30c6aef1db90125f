package repositories

import (
	"context"
	"time"

	"github.com/Ca23187/easypan/models"

	"gorm.io/gorm"
)

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SpaceUsage 用户空间快照
type SpaceUsage struct {
	UsedBytes  int64 `json:"used_bytes"`
	TotalBytes int64 `json:"total_bytes"`
}

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, userID uint) (models.User, error)
	// TryReserveSpace 原子条件更新：仅当 used+delta <= quota 时生效，
	// 返回是否成功。成功后调用方必须失效空间快照缓存。
	TryReserveSpace(ctx context.Context, tx *gorm.DB, userID uint, delta int64) (bool, error)
	ReleaseSpace(ctx context.Context, tx *gorm.DB, userID uint, delta int64) error
}

type FileRepository interface {
	Create(ctx context.Context, tx *gorm.DB, file *models.FileRecord) error
	GetByIDAndUser(ctx context.Context, tx *gorm.DB, fileID string, userID uint) (models.FileRecord, error)
	// FindFirstByHashAndStatus 秒传查询，只看元数据，不校验物理文件
	FindFirstByHashAndStatus(ctx context.Context, tx *gorm.DB, contentHash string, status string) (models.FileRecord, error)
	CountByParentAndName(ctx context.Context, tx *gorm.DB, userID uint, parentID uint, name string) (int64, error)
	// UpdateStatusWithOldStatus 带期望前置状态的条件更新，
	// 返回实际生效的行数（0 表示状态已被并发改变）。
	UpdateStatusWithOldStatus(ctx context.Context, tx *gorm.DB, fileID string, userID uint, oldStatus string, updates map[string]interface{}) (int64, error)
	DeleteByIDAndUser(ctx context.Context, tx *gorm.DB, fileID string, userID uint) error
}

type TransferJobRepository interface {
	Create(ctx context.Context, tx *gorm.DB, job *models.TransferJob) error
	// ClaimPending 取一个 pending 任务并原子置为 running，无任务时返回 gorm.ErrRecordNotFound
	ClaimPending(ctx context.Context, tx *gorm.DB) (models.TransferJob, error)
	Finish(ctx context.Context, tx *gorm.DB, jobID uint, status string, finishedAt time.Time) error
}

// SessionRepository 上传会话的易失状态：分片字节计数与空间快照缓存，
// 都带 TTL，废弃的上传靠过期自清
type SessionRepository interface {
	GetTempSize(ctx context.Context, userID uint, fileID string) (int64, error)
	AddTempSize(ctx context.Context, userID uint, fileID string, delta int64) error
	ClearTempSize(ctx context.Context, userID uint, fileID string) error

	GetSpaceCache(ctx context.Context, userID uint) (SpaceUsage, bool, error)
	SetSpaceCache(ctx context.Context, userID uint, usage SpaceUsage) error
	InvalidateSpaceCache(ctx context.Context, userID uint) error
}

type Container struct {
	TxManager    TxManager
	Users        UserRepository
	Files        FileRepository
	TransferJobs TransferJobRepository
	Sessions     SessionRepository
}
