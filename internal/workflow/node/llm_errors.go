package node

import "strings"

// ProviderFailure 提供商失败子类型，仅用于日志与指标；
// 对调用方统一呈现为 ProviderUnavailable
type ProviderFailure string

const (
	FailureRateLimited       ProviderFailure = "rate_limited"
	FailureQuotaExceeded     ProviderFailure = "quota_exceeded"
	FailureInvalidCredential ProviderFailure = "invalid_credential"
	FailureUnavailable       ProviderFailure = "unavailable"
)

// ClassifyProviderError 根据错误文本判定提供商失败子类型
func ClassifyProviderError(err error) ProviderFailure {
	if err == nil {
		return FailureUnavailable
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests") || strings.Contains(msg, "429"):
		return FailureRateLimited
	case strings.Contains(msg, "quota") || strings.Contains(msg, "insufficient_quota") || strings.Contains(msg, "billing"):
		return FailureQuotaExceeded
	case strings.Contains(msg, "api key") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "invalid_api_key") || strings.Contains(msg, "401"):
		return FailureInvalidCredential
	default:
		return FailureUnavailable
	}
}
