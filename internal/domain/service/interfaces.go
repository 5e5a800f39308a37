package service

import (
	"context"
	"time"

	"github.com/turtacn/tokenlife/internal/domain/models"
)

//go:generate mockery --name Codec --output mocks --outpkg mocks
// Codec encodes claims into signed tokens and decodes them back.
// Codec 将声明编码为签名令牌，并将其解码还原。
type Codec interface {
	// Encode signs claims with key under alg; the token expires expiresIn from now.
	// Encode 使用 key 和 alg 对声明签名；令牌在 expiresIn 之后过期。
	Encode(claims *models.Claims, key interface{}, alg string, expiresIn time.Duration) (string, error)

	// Decode verifies token and returns its claims and registered fields.
	// Decode 校验令牌并返回其声明与注册字段。
	Decode(token string, key interface{}, alg string) (*models.DecodedToken, error)

	// Now returns the codec's notion of the current time.
	// Now 返回编解码器的当前时间。
	Now() time.Time
}

// KeyResolver resolves the effective signing and verification keys, applying a per-call
// secret override without ever storing it.
// KeyResolver 解析实际使用的签名与验证密钥，单次调用的覆盖值不会被保存。
type KeyResolver interface {
	SigningKey(secret string) (interface{}, error)
	VerificationKey(secret string) (interface{}, error)
	Algorithm() string
	Insecure() bool
}

//go:generate mockery --name RevocationLedger --output mocks --outpkg mocks
// RevocationLedger is the durable set of revoked tokens.
// RevocationLedger 是已吊销令牌的持久化集合。
type RevocationLedger interface {
	// Record 记录吊销令牌（幂等）
	Record(ctx context.Context, token string) error
	// IsRevoked 查询令牌是否已吊销；不存在不是错误
	IsRevoked(ctx context.Context, token string) (bool, error)
	// Remove 删除吊销记录（幂等）
	Remove(ctx context.Context, token string) error
	// Scan 按存储键序遍历账本
	Scan(ctx context.Context, fn func(token string) error) error
	// Count 返回账本条目数
	Count(ctx context.Context) (int, error)
}

//go:generate mockery --name RevocationPublisher --output mocks --outpkg mocks
// RevocationPublisher announces revocations to other instances.
// RevocationPublisher 向其他实例广播吊销事件。
type RevocationPublisher interface {
	PublishRevocation(ctx context.Context, event models.RevocationEvent) error
}

// Metrics is the subset of instrumentation the service reports to.
// Metrics 定义服务上报的指标接口。
type Metrics interface {
	RecordSign(err error, duration time.Duration)
	RecordVerify(err error, duration time.Duration)
	RecordRevocation(source string)
	RecordSweep(result *models.SweepResult, err error)
}

// RetainFunc receives every ledger entry a sweep keeps.
// RetainFunc 接收清理过程中保留的每个账本条目。
type RetainFunc func(ctx context.Context, token string, decoded *models.DecodedToken)

type noopMetrics struct{}

func (noopMetrics) RecordSign(error, time.Duration)        {}
func (noopMetrics) RecordVerify(error, time.Duration)      {}
func (noopMetrics) RecordRevocation(string)                {}
func (noopMetrics) RecordSweep(*models.SweepResult, error) {}
