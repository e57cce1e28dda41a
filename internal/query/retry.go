package query

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"beian/internal/util"
)

// isRetryableError 判断是否为可重试的错误（接口频率限制）
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusTooManyRequests {
		return true
	}

	errMsg := strings.ToLower(err.Error())

	retryableErrors := []string{
		"请求太多",
		"稍后再试",
		"rate limit",
		"too many requests",
		"quota exceeded",
		"api limit",
		"请求频率过高",
		"请求过于频繁",
		"请求超限",
		"请求限制",
	}

	for _, retryableErr := range retryableErrors {
		if strings.Contains(errMsg, retryableErr) {
			return true
		}
	}

	return false
}

// retryWithBackoff 带线性退避的重试，attempts 为总尝试次数
func retryWithBackoff[T any](ctx context.Context, platform, target string, attempts int, base time.Duration, queryFunc func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := queryFunc()
		if err == nil {
			if attempt > 1 {
				util.Logger.Debugf("[%s] 重试成功: %s (第%d次重试)", platform, target, attempt-1)
			}
			return result, nil
		}
		lastErr = err

		if !isRetryableError(err) || attempt == attempts {
			break
		}

		// 重试延迟递增：1轮、2轮、3轮
		delay := time.Duration(attempt) * base
		util.Logger.Debugf("[%s] 第%d次请求失败: %s -> %v，%v 后重试", platform, attempt, target, err, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	if attempts > 1 && isRetryableError(lastErr) {
		return zero, fmt.Errorf("重试%d次后仍然失败: %w", attempts-1, lastErr)
	}
	return zero, lastErr
}
