package models

import "time"

// 转码任务状态。任务与文件记录在同一事务内落库，
// worker 只会看到已提交的记录。
const (
	TransferJobPending = "pending"
	TransferJobRunning = "running"
	TransferJobDone    = "done"
	TransferJobFailed  = "failed"
)

type TransferJob struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	FileID     string     `gorm:"type:varchar(36);not null;index" json:"file_id"`
	UserID     uint       `gorm:"not null" json:"user_id"`
	SessionDir string     `gorm:"type:varchar(500)" json:"session_dir"`
	ChunkTotal int        `gorm:"default:0" json:"chunk_total"`
	Status     string     `gorm:"type:varchar(20);default:pending;index" json:"status"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at"`
}
