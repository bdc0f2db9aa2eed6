package translation

import (
	"fmt"
	"time"
)

// DefaultChunkSize 单次请求的默认最大字符数
const DefaultChunkSize = 3700

// Config 分块翻译配置
type Config struct {
	// ChunkSize 每个分块的最大字符数（按 rune 计）
	ChunkSize int
	// Pause 两个阶段之间的等待时间
	Pause time.Duration
	// Concurrency 同时翻译的分块数
	Concurrency int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		ChunkSize:   DefaultChunkSize,
		Pause:       time.Second,
		Concurrency: 1,
	}
}

// Validate 检查配置
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.Pause < 0 {
		return fmt.Errorf("%w: pause must not be negative", ErrInvalidConfig)
	}
	return nil
}
