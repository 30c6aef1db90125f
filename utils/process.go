package utils

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/Ca23187/easypan/logger"
)

// ErrTimeout 外部命令超时，进程已被强制终止
var ErrTimeout = errors.New("执行命令超时")

// ExitError 外部命令非零退出
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("命令退出码 %d: %s", e.Code, e.Stderr)
	}
	return fmt.Sprintf("命令退出码 %d", e.Code)
}

const maxCapturedOutput = 16 * 1024

// RunCommand 执行外部命令并返回退出码。
// stdout/stderr 由独立 goroutine 排空，避免管道缓冲区写满后子进程卡死。
// 超时通过 ctx 强制杀进程，并返回 ErrTimeout 而不是静默吞掉。
func RunCommand(ctx context.Context, workDir string, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if workDir != "" {
		cmd.Dir = workDir
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, fmt.Errorf("创建 stdout 管道失败: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, fmt.Errorf("创建 stderr 管道失败: %w", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("启动命令失败: %w", err)
	}

	var wg sync.WaitGroup
	var outBuf, errBuf strings.Builder
	wg.Add(2)
	go drainOutput(&wg, stdout, &outBuf)
	go drainOutput(&wg, stderr, &errBuf)
	wg.Wait()

	waitErr := cmd.Wait()
	logger.Debugf("命令执行完毕: %s %s, 耗时 %s", name, strings.Join(args, " "), time.Since(start))

	if ctx.Err() == context.DeadlineExceeded {
		return -1, ErrTimeout
	}
	if waitErr != nil {
		var ee *exec.ExitError
		if errors.As(waitErr, &ee) {
			return ee.ExitCode(), &ExitError{Code: ee.ExitCode(), Stderr: tail(errBuf.String())}
		}
		return -1, fmt.Errorf("等待命令结束失败: %w", waitErr)
	}
	return 0, nil
}

func drainOutput(wg *sync.WaitGroup, r io.Reader, buf *strings.Builder) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if buf.Len() < maxCapturedOutput {
			buf.WriteString(scanner.Text())
			buf.WriteByte('\n')
		}
	}
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 512 {
		return s
	}
	return s[len(s)-512:]
}
