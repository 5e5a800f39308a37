package models

import "time"

// TokenMetadata carries the registered claims the codec embeds in every credential.
// TokenMetadata 包含编解码器嵌入到每个凭证中的注册声明。
type TokenMetadata struct {
	// ID is the per-token nonce (jti); it keeps identical claim sets from producing equal tokens.
	// ID 是每个令牌的随机数（jti），保证相同声明不会生成相同的令牌。
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Algorithm string
}

// IsExpired reports whether the token is past its expiry at instant now.
func (m TokenMetadata) IsExpired(now time.Time) bool {
	return !m.ExpiresAt.IsZero() && now.After(m.ExpiresAt)
}

// TokenState is the logical lifecycle state of a credential, derived from the codec result
// and ledger membership rather than stored anywhere.
// TokenState 是凭证的逻辑生命周期状态，由编解码结果和吊销账本成员关系推导而来。
type TokenState string

const (
	// TokenStateFresh: signed, unexpired, not in the ledger
	TokenStateFresh TokenState = "fresh"
	// TokenStateRevoked: unexpired and listed in the ledger
	TokenStateRevoked TokenState = "revoked"
	// TokenStateExpired: past its expiry; rejected by the codec without a ledger lookup
	TokenStateExpired TokenState = "expired"
	// TokenStateInvalid: malformed or not verifiable under the current key
	TokenStateInvalid TokenState = "invalid"
)

// SweepResult summarises one cleanup pass over the revocation ledger.
// SweepResult 汇总一次吊销账本清理的结果。
type SweepResult struct {
	Scanned  int
	Removed  int
	Retained int
	Duration time.Duration
}
