package services

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/Ca23187/easypan/config"
	"github.com/Ca23187/easypan/models"
	"github.com/Ca23187/easypan/repositories"
	"github.com/Ca23187/easypan/utils"

	"gorm.io/gorm"
)

// CommandRunner 外部工具执行入口，测试时可替换
type CommandRunner func(ctx context.Context, workDir string, name string, args ...string) (int, error)

type TransferService interface {
	// Start 启动转码 worker，轮询认领已提交的转码任务
	Start(ctx context.Context)
	// ProcessJob 执行单个转码任务：合并分片、按分类转换、条件终态更新
	ProcessJob(ctx context.Context, job models.TransferJob)
}

type transferService struct {
	files    repositories.FileRepository
	jobs     repositories.TransferJobRepository
	sessions repositories.SessionRepository
	run      CommandRunner
}

func NewTransferService(
	files repositories.FileRepository,
	jobs repositories.TransferJobRepository,
	sessions repositories.SessionRepository,
	run CommandRunner,
) TransferService {
	if run == nil {
		run = utils.RunCommand
	}
	return &transferService{files: files, jobs: jobs, sessions: sessions, run: run}
}

func (s *transferService) Start(ctx context.Context) {
	workers := config.AppConfig.Transfer.WorkerCount
	for i := 0; i < workers; i++ {
		go s.workerLoop(ctx)
	}
}

func (s *transferService) workerLoop(ctx context.Context) {
	interval := time.Duration(config.AppConfig.Transfer.PollInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.drainPending(ctx)
		}
	}
}

func (s *transferService) drainPending(ctx context.Context) {
	for {
		job, err := s.jobs.ClaimPending(ctx, nil)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("认领转码任务失败: %v", err)
			}
			return
		}
		s.ProcessJob(ctx, job)
	}
}

func (s *transferService) ProcessJob(ctx context.Context, job models.TransferJob) {
	record, err := s.files.GetByIDAndUser(ctx, nil, job.FileID, job.UserID)
	if err != nil {
		log.Printf("转码任务找不到文件记录, fileId=%s userId=%d: %v", job.FileID, job.UserID, err)
		s.finishJob(ctx, job.ID, models.TransferJobFailed)
		return
	}

	// 重复投递直接丢弃，记录已经离开 transferring 态
	if record.Status != models.FileStatusTransferring {
		s.finishJob(ctx, job.ID, models.TransferJobDone)
		return
	}

	basePath := config.AppConfig.Storage.BasePath
	targetPath := filepath.Join(basePath, record.StoredPath)

	successful := true
	cover := ""

	if err := UnionChunks(job.SessionDir, targetPath, job.ChunkTotal); err != nil {
		log.Printf("合并分片失败, fileId=%s userId=%d: %v", record.FileID, record.UserID, err)
		successful = false
	} else {
		cover, err = s.transform(ctx, record, targetPath)
		if err != nil {
			log.Printf("文件转码失败, fileId=%s userId=%d: %v", record.FileID, record.UserID, err)
			successful = false
		}
	}

	s.finalize(ctx, record, targetPath, cover, successful)
	_ = s.sessions.ClearTempSize(ctx, record.UserID, record.FileID)

	jobStatus := models.TransferJobDone
	if !successful {
		jobStatus = models.TransferJobFailed
	}
	s.finishJob(ctx, job.ID, jobStatus)
}

// transform 按分类做后处理，返回封面相对路径（可为空）
func (s *transferService) transform(ctx context.Context, record models.FileRecord, targetPath string) (string, error) {
	switch record.Category {
	case models.CategoryVideo:
		if err := s.cutVideoToHLS(ctx, record.FileID, targetPath); err != nil {
			return "", err
		}
		cover := coverPathForVideo(record.StoredPath)
		coverAbs := filepath.Join(config.AppConfig.Storage.BasePath, cover)
		if err := os.MkdirAll(filepath.Dir(coverAbs), 0o755); err != nil {
			return "", err
		}
		if err := s.createVideoCover(ctx, targetPath, config.AppConfig.Thumbnail.Width, coverAbs); err != nil {
			return "", err
		}
		return cover, nil
	case models.CategoryImage:
		// 缩略图失败不致命，兜底用原图副本，保证封面总是存在
		cover := coverPathForImage(record.StoredPath)
		coverAbs := filepath.Join(config.AppConfig.Storage.BasePath, cover)
		created, err := s.createImageThumbnail(ctx, targetPath, config.AppConfig.Thumbnail.Width, coverAbs)
		if err != nil || !created {
			if err != nil {
				log.Printf("生成缩略图失败，改用原图副本, fileId=%s: %v", record.FileID, err)
			}
			if copyErr := copyFile(targetPath, coverAbs); copyErr != nil {
				return "", copyErr
			}
		}
		return cover, nil
	default:
		return "", nil
	}
}

// finalize 条件终态更新：仅当记录仍是 transferring 时生效，
// 并发的重复执行到了这一步也只有一个能落状态。
func (s *transferService) finalize(ctx context.Context, record models.FileRecord, targetPath string, cover string, successful bool) {
	var size int64
	if info, err := os.Stat(targetPath); err == nil {
		size = info.Size()
	}

	status := models.FileStatusUsing
	if !successful {
		status = models.FileStatusTransferFailed
	}

	rows, err := s.files.UpdateStatusWithOldStatus(ctx, nil, record.FileID, record.UserID, models.FileStatusTransferring, map[string]interface{}{
		"status":     status,
		"size_bytes": size,
		"cover_path": cover,
		"updated_at": time.Now(),
	})
	if err != nil {
		log.Printf("更新文件终态失败, fileId=%s userId=%d: %v", record.FileID, record.UserID, err)
		return
	}
	if rows == 0 {
		log.Printf("文件状态已被并发修改，跳过终态更新, fileId=%s userId=%d", record.FileID, record.UserID)
	}
}

func (s *transferService) finishJob(ctx context.Context, jobID uint, status string) {
	if err := s.jobs.Finish(ctx, nil, jobID, status, time.Now()); err != nil {
		log.Printf("更新转码任务状态失败, jobId=%d: %v", jobID, err)
	}
}
