package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Ca23187/easypan/config"
	"github.com/Ca23187/easypan/models"
	"github.com/Ca23187/easypan/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 上传结果状态
const (
	UploadStatusInstant   = "instant_upload"
	UploadStatusUploading = "uploading"
	UploadStatusFinished  = "upload_finished"
)

type SubmitChunkInput struct {
	FileID      string
	FileName    string
	ParentID    uint
	ContentHash string
	ChunkIndex  int
	ChunkTotal  int
	Chunk       io.Reader
	ChunkSize   int64
}

type SubmitChunkOutput struct {
	FileID string `json:"file_id"`
	Status string `json:"status"`
}

type UploadService interface {
	SubmitChunk(ctx context.Context, userID uint, in SubmitChunkInput) (SubmitChunkOutput, error)
}

type uploadService struct {
	txManager TxManager
	users     repositories.UserRepository
	files     repositories.FileRepository
	jobs      repositories.TransferJobRepository
	sessions  repositories.SessionRepository
}

func NewUploadService(
	txManager TxManager,
	users repositories.UserRepository,
	files repositories.FileRepository,
	jobs repositories.TransferJobRepository,
	sessions repositories.SessionRepository,
) UploadService {
	return &uploadService{
		txManager: txManager,
		users:     users,
		files:     files,
		jobs:      jobs,
		sessions:  sessions,
	}
}

// SessionDir 上传会话的分片暂存目录，由本子系统独占
func SessionDir(basePath string, userID uint, fileID string) string {
	return filepath.Join(basePath, "temp", fmt.Sprintf("%d_%s", userID, fileID))
}

func (s *uploadService) SubmitChunk(ctx context.Context, userID uint, in SubmitChunkInput) (SubmitChunkOutput, error) {
	if in.ChunkTotal < 1 || in.ChunkIndex < 0 || in.ChunkIndex >= in.ChunkTotal {
		return SubmitChunkOutput{}, newAppError(http.StatusBadRequest, "非法分片参数", nil)
	}
	if in.FileName == "" || in.ChunkSize < 0 {
		return SubmitChunkOutput{}, newAppError(http.StatusBadRequest, "非法上传参数", nil)
	}
	if config.AppConfig.Storage.MaxFileSize > 0 && in.ChunkSize > config.AppConfig.Storage.MaxFileSize {
		return SubmitChunkOutput{}, newAppError(http.StatusBadRequest, "分片大小超出限制", nil)
	}

	fileID := in.FileID
	if fileID == "" {
		fileID = uuid.NewString()
	}

	usage, err := s.getSpaceUsage(ctx, userID)
	if err != nil {
		return SubmitChunkOutput{}, newAppError(http.StatusInternalServerError, "查询用户空间失败", err)
	}

	if in.ChunkIndex == 0 && in.ContentHash != "" {
		out, hit, err := s.tryInstantUpload(ctx, userID, fileID, in, usage)
		if err != nil {
			return SubmitChunkOutput{}, err
		}
		if hit {
			return out, nil
		}
	}

	sessionDir := SessionDir(config.AppConfig.Storage.BasePath, userID, fileID)
	out, err := s.receiveChunk(ctx, userID, fileID, sessionDir, in, usage)
	if err != nil {
		// 同步路径失败：临时目录和字节计数一并清掉，不留半截会话
		_ = os.RemoveAll(sessionDir)
		_ = s.sessions.ClearTempSize(ctx, userID, fileID)
		return SubmitChunkOutput{}, err
	}
	return out, nil
}

// tryInstantUpload 秒传：命中同哈希的 using 记录则只建元数据，不落字节。
// 返回的 bool 表示是否命中。
func (s *uploadService) tryInstantUpload(ctx context.Context, userID uint, fileID string, in SubmitChunkInput, usage repositories.SpaceUsage) (SubmitChunkOutput, bool, error) {
	dbFile, err := s.files.FindFirstByHashAndStatus(ctx, nil, in.ContentHash, models.FileStatusUsing)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SubmitChunkOutput{}, false, nil
		}
		return SubmitChunkOutput{}, false, newAppError(http.StatusInternalServerError, "秒传检查失败", err)
	}

	if dbFile.SizeBytes+usage.UsedBytes > usage.TotalBytes {
		return SubmitChunkOutput{}, false, newStorageInsufficientError(usage, dbFile.SizeBytes)
	}

	now := time.Now()
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		reserved, err := s.users.TryReserveSpace(ctx, tx, userID, dbFile.SizeBytes)
		if err != nil {
			return err
		}
		if !reserved {
			return newStorageInsufficientError(usage, dbFile.SizeBytes)
		}
		name, err := s.autoRename(ctx, tx, userID, in.ParentID, in.FileName)
		if err != nil {
			return err
		}
		newFile := models.FileRecord{
			FileID:      fileID,
			UserID:      userID,
			ParentID:    in.ParentID,
			Name:        name,
			ContentHash: in.ContentHash,
			SizeBytes:   dbFile.SizeBytes,
			StoredPath:  dbFile.StoredPath,
			CoverPath:   dbFile.CoverPath,
			Category:    dbFile.Category,
			FileType:    dbFile.FileType,
			Status:      models.FileStatusUsing,
			DelFlag:     models.FileFlagActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return s.files.Create(ctx, tx, &newFile)
	})
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return SubmitChunkOutput{}, false, appErr
		}
		return SubmitChunkOutput{}, false, newAppError(http.StatusInternalServerError, "秒传失败", err)
	}

	_ = s.sessions.InvalidateSpaceCache(ctx, userID)
	return SubmitChunkOutput{FileID: fileID, Status: UploadStatusInstant}, true, nil
}

func (s *uploadService) receiveChunk(ctx context.Context, userID uint, fileID string, sessionDir string, in SubmitChunkInput, usage repositories.SpaceUsage) (SubmitChunkOutput, error) {
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return SubmitChunkOutput{}, newAppError(http.StatusInternalServerError, "创建临时目录失败", err)
	}

	sessionBytes, err := s.sessions.GetTempSize(ctx, userID, fileID)
	if err != nil {
		return SubmitChunkOutput{}, newAppError(http.StatusInternalServerError, "查询会话大小失败", err)
	}

	// 同一下标重发直接覆盖，客户端重试天然幂等；
	// 覆盖时计数只累加净增量，避免重试把会话大小越加越大
	chunkPath := filepath.Join(sessionDir, strconv.Itoa(in.ChunkIndex))
	var prevSize int64
	if info, statErr := os.Stat(chunkPath); statErr == nil {
		prevSize = info.Size()
	}
	delta := in.ChunkSize - prevSize

	// 落盘前做准入检查，空间不够就一个字节都不写
	if delta+sessionBytes+usage.UsedBytes > usage.TotalBytes {
		return SubmitChunkOutput{}, newStorageInsufficientError(usage, delta+sessionBytes)
	}

	if err := writeChunk(chunkPath, in.Chunk); err != nil {
		return SubmitChunkOutput{}, newAppError(http.StatusInternalServerError, "保存分片失败", err)
	}

	if err := s.sessions.AddTempSize(ctx, userID, fileID, delta); err != nil {
		return SubmitChunkOutput{}, newAppError(http.StatusInternalServerError, "记录会话大小失败", err)
	}

	if in.ChunkIndex < in.ChunkTotal-1 {
		return SubmitChunkOutput{FileID: fileID, Status: UploadStatusUploading}, nil
	}

	return s.commitUpload(ctx, userID, fileID, sessionDir, in, usage)
}

// commitUpload 最后一个分片：同一事务内预占配额、落文件记录（transferring）
// 和转码任务，提交后 worker 才可能看到任务。
func (s *uploadService) commitUpload(ctx context.Context, userID uint, fileID string, sessionDir string, in SubmitChunkInput, usage repositories.SpaceUsage) (SubmitChunkOutput, error) {
	totalSize, err := s.sessions.GetTempSize(ctx, userID, fileID)
	if err != nil {
		return SubmitChunkOutput{}, newAppError(http.StatusInternalServerError, "查询会话大小失败", err)
	}

	now := time.Now()
	month := now.Format("200601")
	ext := filepath.Ext(in.FileName)
	category, fileType := classifyFile(in.FileName)
	storedPath := filepath.Join("file", month, fmt.Sprintf("%d_%s%s", userID, fileID, ext))

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		reserved, err := s.users.TryReserveSpace(ctx, tx, userID, totalSize)
		if err != nil {
			return err
		}
		if !reserved {
			return newStorageInsufficientError(usage, totalSize)
		}
		name, err := s.autoRename(ctx, tx, userID, in.ParentID, in.FileName)
		if err != nil {
			return err
		}
		record := models.FileRecord{
			FileID:      fileID,
			UserID:      userID,
			ParentID:    in.ParentID,
			Name:        name,
			ContentHash: in.ContentHash,
			SizeBytes:   totalSize,
			StoredPath:  storedPath,
			Category:    category,
			FileType:    fileType,
			Status:      models.FileStatusTransferring,
			DelFlag:     models.FileFlagActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.files.Create(ctx, tx, &record); err != nil {
			return err
		}
		job := models.TransferJob{
			FileID:     fileID,
			UserID:     userID,
			SessionDir: sessionDir,
			ChunkTotal: in.ChunkTotal,
			Status:     models.TransferJobPending,
		}
		return s.jobs.Create(ctx, tx, &job)
	})
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return SubmitChunkOutput{}, appErr
		}
		return SubmitChunkOutput{}, newAppError(http.StatusInternalServerError, "保存文件记录失败", err)
	}

	_ = s.sessions.InvalidateSpaceCache(ctx, userID)
	return SubmitChunkOutput{FileID: fileID, Status: UploadStatusFinished}, nil
}

// autoRename 目标目录下重名时自动追加随机后缀
func (s *uploadService) autoRename(ctx context.Context, tx *gorm.DB, userID uint, parentID uint, fileName string) (string, error) {
	name := sanitizeFilename(fileName)
	count, err := s.files.CountByParentAndName(ctx, tx, userID, parentID, name)
	if err != nil {
		return "", err
	}
	if count > 0 {
		return renameFileName(name), nil
	}
	return name, nil
}

// getSpaceUsage 读空间快照，缓存未命中时回源并写缓存
func (s *uploadService) getSpaceUsage(ctx context.Context, userID uint) (repositories.SpaceUsage, error) {
	usage, ok, err := s.sessions.GetSpaceCache(ctx, userID)
	if err == nil && ok {
		return usage, nil
	}

	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		return repositories.SpaceUsage{}, err
	}
	usage = repositories.SpaceUsage{UsedBytes: user.StorageUsed, TotalBytes: user.StorageQuota}
	_ = s.sessions.SetSpaceCache(ctx, userID, usage)
	return usage, nil
}

func writeChunk(chunkPath string, src io.Reader) error {
	dst, err := os.Create(chunkPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(chunkPath)
		return err
	}
	return dst.Close()
}
