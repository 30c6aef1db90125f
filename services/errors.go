package services

import (
	"fmt"
	"net/http"

	"github.com/Ca23187/easypan/repositories"
)

type AppError struct {
	HTTPCode int
	Message  string
	Data     interface{}
	Err      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newAppError(httpCode int, message string, err error) *AppError {
	return &AppError{HTTPCode: httpCode, Message: message, Err: err}
}

func newAppErrorWithData(httpCode int, message string, data interface{}, err error) *AppError {
	return &AppError{HTTPCode: httpCode, Message: message, Data: data, Err: err}
}

func newStorageInsufficientError(usage repositories.SpaceUsage, required int64) *AppError {
	return newAppErrorWithData(http.StatusBadRequest, "存储空间不足", map[string]interface{}{
		"storage_quota":   usage.TotalBytes,
		"storage_used":    usage.UsedBytes,
		"available_space": usage.TotalBytes - usage.UsedBytes,
		"required_space":  required,
	}, nil)
}

// IsStorageInsufficient 判断是否为空间不足错误
func IsStorageInsufficient(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Message == "存储空间不足"
}
