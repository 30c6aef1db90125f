package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Ca23187/easypan/config"

	"github.com/disintegration/imaging"
)

const m3u8Name = "index.m3u8"

// cutVideoToHLS 视频切片成定长分段的 HLS 播放列表。
// 先尝试流复制（不重编码，仅 H.264+AAC 输入可行），
// 非零退出再回退到全量重编码。两者都失败才算失败。
func (s *transferService) cutVideoToHLS(ctx context.Context, fileID string, input string) error {
	tsFolder := strings.TrimSuffix(input, filepath.Ext(input))
	if err := os.MkdirAll(tsFolder, 0o755); err != nil {
		return fmt.Errorf("创建切片目录失败: %w", err)
	}

	m3u8Path := filepath.Join(tsFolder, m3u8Name)
	segTmpl := filepath.Join(tsFolder, fileID+"_%04d.ts")
	hlsTime := strconv.Itoa(config.AppConfig.Transfer.SegmentSeconds)

	copyArgs := []string{
		"-y",
		"-i", input,
		"-map", "0:v:0",
		"-map", "0:a:0?",
		"-c:v", "copy",
		"-c:a", "copy",
		"-bsf:v", "h264_mp4toannexb",
		"-f", "hls",
		"-hls_time", hlsTime,
		"-hls_playlist_type", "vod",
		"-hls_segment_filename", segTmpl,
		m3u8Path,
	}
	reencodeArgs := []string{
		"-y",
		"-i", input,
		"-map", "0:v:0",
		"-map", "0:a:0?",
		"-c:v", "h264",
		"-preset", "veryfast",
		"-profile:v", "main",
		"-level", "4.1",
		"-c:a", "aac",
		"-b:a", "128k",
		"-ac", "2",
		"-f", "hls",
		"-hls_time", hlsTime,
		"-hls_playlist_type", "vod",
		"-hls_segment_filename", segTmpl,
		m3u8Path,
	}

	if err := s.runTool(ctx, tsFolder, "ffmpeg", copyArgs...); err == nil {
		return nil
	}

	if err := s.runTool(ctx, tsFolder, "ffmpeg", reencodeArgs...); err != nil {
		return fmt.Errorf("视频切片失败: %w", err)
	}
	return nil
}

// createVideoCover 截取首帧作为封面，高度按比例缩放
func (s *transferService) createVideoCover(ctx context.Context, src string, width int, dst string) error {
	args := []string{
		"-y",
		"-i", src,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:-1", width),
		dst,
	}
	if err := s.runTool(ctx, filepath.Dir(src), "ffmpeg", args...); err != nil {
		return fmt.Errorf("生成视频封面失败: %w", err)
	}
	return nil
}

// createImageThumbnail 按宽度生成缩略图。
// 原图宽度不超过阈值时不生成（绝不放大），返回 false。
func (s *transferService) createImageThumbnail(ctx context.Context, src string, width int, dst string) (bool, error) {
	img, err := imaging.Open(src)
	if err != nil {
		return false, fmt.Errorf("读取图片失败: %w", err)
	}
	if img.Bounds().Dx() <= width {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, err
	}
	args := []string{
		"-y",
		"-i", src,
		"-vf", fmt.Sprintf("scale=%d:-1", width),
		dst,
	}
	if err := s.runTool(ctx, filepath.Dir(src), "ffmpeg", args...); err != nil {
		return false, fmt.Errorf("压缩图片失败: %w", err)
	}
	return true, nil
}

// runTool 带超时执行外部工具，超时会强杀进程并按失败处理
func (s *transferService) runTool(ctx context.Context, workDir string, name string, args ...string) error {
	timeout := time.Duration(config.AppConfig.Transfer.ToolTimeout) * time.Second
	toolCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	code, err := s.run(toolCtx, workDir, name, args...)
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("命令退出码 %d", code)
	}
	return nil
}

// coverPathForVideo 视频封面：同名 png
func coverPathForVideo(storedPath string) string {
	return strings.TrimSuffix(storedPath, filepath.Ext(storedPath)) + ".png"
}

// coverPathForImage 图片封面：文件名加 "_" 后缀，如 a.jpg -> a_.jpg
func coverPathForImage(storedPath string) string {
	ext := filepath.Ext(storedPath)
	return strings.TrimSuffix(storedPath, ext) + "_" + ext
}

func copyFile(src string, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
