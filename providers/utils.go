package providers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/Cstannahill/dataset-generator/types"
)

// ReadErrMsg 从错误响应体中提取人类可读的错误信息。
// 兼容 {"error": "..."} 与 {"error": {"message": "..."}} 两种形态，
// 解析失败时退回原始文本。
func ReadErrMsg(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &flat) == nil && flat.Error != "" {
		return flat.Error
	}

	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &nested) == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}

	return string(raw)
}

// MapHTTPError 将非 2xx 状态码映射为结构化错误。
// 可重试性规则：429 与 5xx 可重试，4xx 其余不可重试。
func MapHTTPError(status int, msg, provider string) *types.Error {
	switch {
	case status == http.StatusUnauthorized:
		return &types.Error{Code: types.ErrUnauthorized, Message: msg, HTTPStatus: status, Provider: provider}
	case status == http.StatusForbidden:
		return &types.Error{Code: types.ErrForbidden, Message: msg, HTTPStatus: status, Provider: provider}
	case status == http.StatusTooManyRequests:
		return &types.Error{Code: types.ErrRateLimited, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	case status == http.StatusPaymentRequired:
		return &types.Error{Code: types.ErrQuotaExceeded, Message: msg, HTTPStatus: status, Provider: provider}
	case status >= 400 && status < 500:
		return &types.Error{Code: types.ErrInvalidRequest, Message: msg, HTTPStatus: status, Provider: provider}
	case status == http.StatusServiceUnavailable:
		return &types.Error{Code: types.ErrModelOverloaded, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	case status == http.StatusGatewayTimeout:
		return &types.Error{Code: types.ErrUpstreamTimeout, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	case status >= 500:
		return &types.Error{Code: types.ErrUpstreamError, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	default:
		return &types.Error{Code: types.ErrUpstreamError, Message: msg, HTTPStatus: status, Provider: provider}
	}
}
