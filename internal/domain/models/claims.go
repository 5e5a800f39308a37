package models

// Claims is the structured content embedded in a credential.
// Auth and Access are produced by the identity and grant subsystems and are opaque here;
// Data is arbitrary caller-supplied content.
// Claims 是嵌入在凭证中的结构化内容。
// Auth 和 Access 由身份和授权子系统产生，在此处不作解释；Data 为调用方提供的任意内容。
type Claims struct {
	// Auth is the identity-provider claim (required).
	// Auth 是身份提供者声明（必填）。
	Auth interface{} `json:"auth"`
	// Access is the scope-grant claim (required).
	// Access 是权限范围声明（必填）。
	Access interface{} `json:"access"`
	// Data is optional caller data.
	// Data 为可选的调用方数据。
	Data interface{} `json:"data,omitempty"`
}

// DecodedToken is the result of a successful decode: the claims exactly as signed plus the
// registered fields the codec embedded.
// DecodedToken 是成功解码的结果：与签名时一致的声明以及编解码器嵌入的注册字段。
type DecodedToken struct {
	Claims   Claims
	Metadata TokenMetadata
}
