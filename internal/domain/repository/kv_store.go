// Package repository 定义领域仓储接口
// The revocation ledger is persisted through the KVStore capability defined here; any ordered
// key-value backend (in-memory, redis, SQL) can be injected.
package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KVStore.Get when the key does not exist. Absence is not a failure.
// ErrNotFound 在键不存在时由 KVStore.Get 返回；键不存在不代表失败。
var ErrNotFound = errors.New("kvstore: key not found")

// ErrStopScan may be returned from a ScanFunc to end iteration early without an error.
var ErrStopScan = errors.New("kvstore: stop scan")

// ScanFunc receives each key/value pair during a scan. Returning an error ends the scan;
// ErrStopScan ends it cleanly.
type ScanFunc func(key, value []byte) error

// KVStore 定义有序键值存储能力接口
// 实现类：internal/infrastructure/kvstore/{memory,redis,sql}
type KVStore interface {
	// Get 读取键对应的值；键不存在时返回 ErrNotFound
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Put 写入键值对（幂等覆盖）
	// Put stores value under key, overwriting any previous value.
	Put(ctx context.Context, key, value []byte) error

	// Delete 删除键；键不存在时不返回错误
	// Delete removes key. Deleting a missing key succeeds.
	Delete(ctx context.Context, key []byte) error

	// Scan 按键的字典序遍历以 prefix 开头的所有键
	// Scan visits every key starting with prefix in ascending byte order. Each call starts a
	// fresh iteration. Implementations must tolerate fn deleting the key it was just given.
	Scan(ctx context.Context, prefix []byte, fn ScanFunc) error

	// Ping 检查存储可用性
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error

	// Close 释放底层资源
	Close() error
}
