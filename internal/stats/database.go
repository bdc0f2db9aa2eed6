// Package stats 持久化 PDF 翻译历史并以彩色文本展示
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	applog "github.com/nerdneilsfield/go-pdf-translator/internal/logger"
)

const (
	StatsDBVersion   = "2.0.0"
	MaxRecentRecords = 100
)

// Database 基于 JSON 文件的统计数据库
type Database struct {
	fs       afero.Fs
	filePath string
	data     *StatisticsDB
	mutex    sync.RWMutex
	logger   *zap.Logger
}

// NewDatabase 在本地文件系统上打开统计数据库
func NewDatabase(filePath string, logger *zap.Logger) (*Database, error) {
	return OpenDatabase(afero.NewOsFs(), filePath, logger)
}

// OpenDatabase 在指定文件系统上打开统计数据库，文件不存在时创建
func OpenDatabase(fs afero.Fs, filePath string, logger *zap.Logger) (*Database, error) {
	logger = applog.OrNop(logger)
	db := &Database{
		fs:       fs,
		filePath: filePath,
		logger:   logger,
	}

	if err := fs.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}

	if err := db.load(); err != nil {
		return nil, fmt.Errorf("failed to load stats database: %w", err)
	}

	return db, nil
}

func newStatisticsDB() *StatisticsDB {
	now := time.Now()
	return &StatisticsDB{
		Version:            StatsDBVersion,
		CreatedAt:          now,
		LastUpdated:        now,
		LanguagePairs:      make(map[string]*LanguagePairStats),
		Providers:          make(map[string]*ProviderUsage),
		RecentTranslations: make([]*TranslationRecord, 0),
	}
}

func (db *Database) load() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	data, err := afero.ReadFile(db.fs, db.filePath)
	if os.IsNotExist(err) {
		db.data = newStatisticsDB()
		return db.saveUnsafe()
	}
	if err != nil {
		return fmt.Errorf("failed to read stats file: %w", err)
	}

	var statsDB StatisticsDB
	if err := json.Unmarshal(data, &statsDB); err != nil {
		return fmt.Errorf("failed to parse stats file: %w", err)
	}

	if statsDB.LanguagePairs == nil {
		statsDB.LanguagePairs = make(map[string]*LanguagePairStats)
	}
	if statsDB.Providers == nil {
		statsDB.Providers = make(map[string]*ProviderUsage)
	}
	if statsDB.RecentTranslations == nil {
		statsDB.RecentTranslations = make([]*TranslationRecord, 0)
	}

	db.data = &statsDB
	db.logger.Debug("已加载统计数据库",
		zap.String("版本", statsDB.Version),
		zap.Int64("翻译次数", statsDB.TotalTranslations))

	return nil
}

// Save 保存统计数据
func (db *Database) Save() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	return db.saveUnsafe()
}

// saveUnsafe 调用方需持有写锁
func (db *Database) saveUnsafe() error {
	db.data.LastUpdated = time.Now()

	data, err := json.MarshalIndent(db.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats data: %w", err)
	}

	// 原子写入
	tempFile := db.filePath + ".tmp"
	if err := afero.WriteFile(db.fs, tempFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp stats file: %w", err)
	}
	if err := db.fs.Rename(tempFile, db.filePath); err != nil {
		return fmt.Errorf("failed to rename stats file: %w", err)
	}

	return nil
}

// AddTranslationRecord 添加翻译记录并更新汇总
func (db *Database) AddTranslationRecord(record *TranslationRecord) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	db.data.TotalTranslations++
	db.data.TotalPages += int64(record.Pages)
	db.data.TotalSegments += int64(record.Segments)
	db.data.TotalCharacters += int64(record.CharacterCount)
	db.data.TotalDuration += record.Duration
	if record.Failed() {
		db.data.TotalErrors++
	}

	db.updateLanguagePair(record)
	db.updateProvider(record)

	db.data.RecentTranslations = append(db.data.RecentTranslations, record)
	if len(db.data.RecentTranslations) > MaxRecentRecords {
		sort.Slice(db.data.RecentTranslations, func(i, j int) bool {
			return db.data.RecentTranslations[i].Timestamp.After(db.data.RecentTranslations[j].Timestamp)
		})
		db.data.RecentTranslations = db.data.RecentTranslations[:MaxRecentRecords]
	}

	db.updatePerformanceStats(record)

	return db.saveUnsafe()
}

func (db *Database) updateLanguagePair(record *TranslationRecord) {
	source := record.SourceLanguage
	if source == "" {
		source = "auto"
	}
	key := fmt.Sprintf("%s-%s", source, record.TargetLanguage)
	pair, exists := db.data.LanguagePairs[key]
	if !exists {
		pair = &LanguagePairStats{
			SourceLanguage: source,
			TargetLanguage: record.TargetLanguage,
		}
		db.data.LanguagePairs[key] = pair
	}

	pair.TranslationCount++
	pair.PageCount += int64(record.Pages)
	pair.CharacterCount += int64(record.CharacterCount)
	pair.LastUsed = record.Timestamp
	if record.Failed() {
		pair.ErrorCount++
	}

	total := time.Duration(int64(pair.AverageDuration) * (pair.TranslationCount - 1))
	pair.AverageDuration = (total + record.Duration) / time.Duration(pair.TranslationCount)
}

func (db *Database) updateProvider(record *TranslationRecord) {
	if record.Provider == "" {
		return
	}
	usage, exists := db.data.Providers[record.Provider]
	if !exists {
		usage = &ProviderUsage{Name: record.Provider}
		db.data.Providers[record.Provider] = usage
	}

	usage.Runs++
	usage.Requests += record.Requests
	usage.FailedRequests += record.FailedRequests
	usage.CharactersIn += int64(record.CharacterCount)
	usage.CharactersOut += record.CharactersOut
	usage.TotalLatency += record.Duration
	usage.LastUsed = record.Timestamp
}

func (db *Database) updatePerformanceStats(record *TranslationRecord) {
	if record.Duration <= 0 {
		return
	}
	perf := &db.data.PerformanceStats
	n := float64(db.data.TotalTranslations)

	if record.CharacterCount > 0 {
		speed := float64(record.CharacterCount) / record.Duration.Seconds()
		perf.AverageTranslationSpeed = (perf.AverageTranslationSpeed*(n-1) + speed) / n
	}
	if record.Pages > 0 {
		ppm := float64(record.Pages) / record.Duration.Minutes()
		perf.AveragePagesPerMinute = (perf.AveragePagesPerMinute*(n-1) + ppm) / n
	}

	if perf.FastestTranslation == 0 || record.Duration < perf.FastestTranslation {
		perf.FastestTranslation = record.Duration
	}
	if record.Duration > perf.SlowestTranslation {
		perf.SlowestTranslation = record.Duration
	}
}

// GetStats 获取统计数据的深拷贝
func (db *Database) GetStats() *StatisticsDB {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	data, _ := json.Marshal(db.data)
	var copy StatisticsDB
	_ = json.Unmarshal(data, &copy)

	return &copy
}

// GetRecentTranslations 获取最近的翻译记录，最新的在前
func (db *Database) GetRecentTranslations(limit int) []*TranslationRecord {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	if limit <= 0 || limit > len(db.data.RecentTranslations) {
		limit = len(db.data.RecentTranslations)
	}

	sorted := make([]*TranslationRecord, len(db.data.RecentTranslations))
	copy(sorted, db.data.RecentTranslations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	return sorted[:limit]
}

// Reset 清空全部统计
func (db *Database) Reset() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.data = newStatisticsDB()
	return db.saveUnsafe()
}

// Export 将统计数据写入另一个 JSON 文件
func (db *Database) Export(path string) error {
	data, err := json.MarshalIndent(db.GetStats(), "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(db.fs, path, data, 0o644)
}
