// Package testutils 测试共用的配置与外部协作者替身
package testutils

import (
	"github.com/nerdneilsfield/go-pdf-translator/internal/config"
)

// CreateTestConfig 创建通用测试配置：无暂停、单并发、直通提供商
func CreateTestConfig(workDir string) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Provider = "raw"
	cfg.Pause = 0
	cfg.Concurrency = 1
	cfg.WorkDir = workDir
	cfg.OutputDir = "/files/translate"
	cfg.StatsPath = ""
	cfg.Server.Workers = 1
	cfg.Server.QueueSize = 4
	return cfg
}
