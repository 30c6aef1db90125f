package services

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

// UnionChunks 按数字序合并 sessionDir 下的分片到 targetPath。
// 任何分片缺失都在写入前失败，targetPath 不被触碰；
// 内容先写入同目录临时文件，再原子替换到目标；
// 只有替换成功后才删除分片目录。
func UnionChunks(sessionDir string, targetPath string, expectedChunks int) error {
	entries, err := os.ReadDir(sessionDir)
	if err != nil {
		return fmt.Errorf("读取分片目录失败: %w", err)
	}

	indices := make(map[int]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		idx, convErr := strconv.Atoi(entry.Name())
		if convErr != nil {
			continue
		}
		indices[idx] = filepath.Join(sessionDir, entry.Name())
	}

	if expectedChunks <= 0 {
		expectedChunks = len(indices)
	}
	if expectedChunks == 0 {
		return fmt.Errorf("未找到任何分片")
	}

	ordered := make([]int, 0, len(indices))
	for i := 0; i < expectedChunks; i++ {
		if _, ok := indices[i]; !ok {
			return fmt.Errorf("分片缺失: %d", i)
		}
		ordered = append(ordered, i)
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return fmt.Errorf("创建目标目录失败: %w", err)
	}

	tmpPath := targetPath + ".tmp"
	if err := concatChunks(indices, ordered, tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, targetPath); err != nil {
		// 跨文件系统等场景下回退为非原子替换
		log.Printf("原子替换失败，回退为复制替换: %v", err)
		if err := replaceByCopy(tmpPath, targetPath); err != nil {
			_ = os.Remove(tmpPath)
			return fmt.Errorf("生成目标文件失败: %w", err)
		}
	}

	if err := os.RemoveAll(sessionDir); err != nil {
		// 替换已成功，残留目录由带外清理，不算失败
		log.Printf("删除分片目录失败: %s: %v", sessionDir, err)
	}
	return nil
}

func concatChunks(indices map[int]string, ordered []int, tmpPath string) error {
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}

	for _, idx := range ordered {
		in, err := os.Open(indices[idx])
		if err != nil {
			out.Close()
			return fmt.Errorf("打开分片 %d 失败: %w", idx, err)
		}
		if _, err := io.Copy(out, in); err != nil {
			in.Close()
			out.Close()
			return fmt.Errorf("合并分片 %d 失败: %w", idx, err)
		}
		in.Close()
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	return nil
}

func replaceByCopy(tmpPath string, targetPath string) error {
	in, err := os.Open(tmpPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(targetPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(tmpPath)
}
