package models

// SignOptions overrides instance defaults for a single Sign call. Overrides never outlive the call.
// SignOptions 为单次 Sign 调用覆盖实例默认值，覆盖不会保留到调用之后。
type SignOptions struct {
	// Secret replaces the configured symmetric secret. Invalid when the service runs with a keypair.
	// Secret 替换已配置的对称密钥；服务使用密钥对时无效。
	Secret string
	// ExpiresIn is a duration string such as "5h", "1s", "2d". Empty means the service default.
	// ExpiresIn 为时长字符串，如 "5h"、"1s"、"2d"；为空时使用服务默认值。
	ExpiresIn string
}

// VerifyOptions overrides instance defaults for a single Verify or cleanup call.
// VerifyOptions 为单次 Verify 或清理调用覆盖实例默认值。
type VerifyOptions struct {
	// Secret replaces the configured symmetric secret for this call.
	// Secret 为本次调用替换已配置的对称密钥。
	Secret string
}
