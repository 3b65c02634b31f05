package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - 打分错误：INSUFFICIENT_DATA（内部，触发 TRENDING 兜底，不上抛）
//   - 数据源错误：UNAVAILABLE（上抛为服务端错误）
//   - 缓存错误：UNAVAILABLE（本地降级：绕过缓存直接计算）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "UNAVAILABLE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "cache", "scoring"）
	Err     error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// GetDomainError 从错误链中提取 DomainError，不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 包装底层错误为领域错误（保留错误链）
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound         = "NOT_FOUND"         // 资源不存在
	ErrorCodeNotSupported     = "NOT_SUPPORTED"     // 操作不支持
	ErrorCodeUnavailable      = "UNAVAILABLE"       // 服务不可用
	ErrorCodeInvalidAlgorithm = "INVALID_ALGORITHM" // 未知算法名
	ErrorCodeInsufficientData = "INSUFFICIENT_DATA" // 数据不足，需兜底
)

// 模块名称常量
const (
	ModuleStore   = "store"   // 存储模块
	ModuleCache   = "cache"   // 推荐缓存模块
	ModuleScoring = "scoring" // 打分引擎模块
	ModuleSource  = "source"  // 交互/商品数据源模块
	ModuleService = "service" // 服务门面模块
)

// 预定义错误
var (
	// ErrInvalidAlgorithm 表示算法名不在已知枚举内，作为客户端错误上抛。
	ErrInvalidAlgorithm = NewDomainError(ModuleService, ErrorCodeInvalidAlgorithm, "service: unknown recommendation algorithm")

	// ErrInsufficientData 表示当前算法可用数据不足。
	// 仅在引擎内部流转，调用方永远看不到：引擎捕获后自动降级到 TRENDING。
	ErrInsufficientData = NewDomainError(ModuleScoring, ErrorCodeInsufficientData, "scoring: insufficient interaction data")

	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreNotSupported 表示操作不支持
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")
)

// is 按模块 + 代码检查错误（统一入口）。
func is(err error, module, code string) bool {
	domainErr := GetDomainError(err)
	if domainErr == nil {
		return false
	}
	return domainErr.Module == module && domainErr.Code == code
}

// IsInvalidAlgorithm 检查错误是否为未知算法
func IsInvalidAlgorithm(err error) bool {
	return is(err, ModuleService, ErrorCodeInvalidAlgorithm)
}

// IsInsufficientData 检查错误是否为数据不足（引擎内部兜底信号）
func IsInsufficientData(err error) bool {
	return is(err, ModuleScoring, ErrorCodeInsufficientData)
}

// IsSourceUnavailable 检查错误是否为数据源不可用
func IsSourceUnavailable(err error) bool {
	return is(err, ModuleSource, ErrorCodeUnavailable)
}

// IsCacheUnavailable 检查错误是否为缓存不可用
func IsCacheUnavailable(err error) bool {
	return is(err, ModuleCache, ErrorCodeUnavailable)
}

// IsStoreNotFound 检查错误是否为 key 不存在
func IsStoreNotFound(err error) bool {
	return is(err, ModuleStore, ErrorCodeNotFound)
}
