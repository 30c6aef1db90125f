package models

import "time"

// 文件转码状态
const (
	FileStatusTransferring   = "transferring"
	FileStatusTransferFailed = "transfer_failed"
	FileStatusUsing          = "using"
)

// 文件删除标记
const (
	FileFlagActive   = "active"
	FileFlagRecycled = "recycled"
	FileFlagDeleted  = "deleted"
)

type FileRecord struct {
	FileID      string    `gorm:"type:varchar(36);primaryKey" json:"file_id"`
	UserID      uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	ParentID    uint      `gorm:"default:0;index" json:"parent_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	ContentHash string    `gorm:"type:varchar(32);index:idx_hash_status" json:"content_hash"`
	SizeBytes   int64     `gorm:"default:0" json:"size_bytes"`
	StoredPath  string    `gorm:"type:varchar(1000)" json:"stored_path"`
	CoverPath   string    `gorm:"type:varchar(1000)" json:"cover_path"`
	Category    string    `gorm:"type:varchar(20);index" json:"category"`
	FileType    string    `gorm:"type:varchar(20)" json:"file_type"`
	Status      string    `gorm:"type:varchar(20);default:transferring;index:idx_hash_status" json:"status"`
	DelFlag     string    `gorm:"type:varchar(10);default:active;index" json:"del_flag"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
