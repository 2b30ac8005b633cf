package database

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/moyu-x/framemover/pkg/engine"
	"github.com/moyu-x/framemover/pkg/logger"
)

const outcomeBatchSize = 500

// RunRecord 一次运行的汇总
type RunRecord struct {
	ID                int64     `gorm:"primaryKey"`
	RunID             string    `gorm:"uniqueIndex;not null"`
	Source            string    `gorm:"not null"`
	Dest              string    `gorm:"not null"`
	Suffixes          string    `gorm:"not null"`
	DryRun            bool      `gorm:"not null"`
	Phase             string    `gorm:"not null"`
	Scanned           int       `gorm:"not null"`
	Matched           int       `gorm:"not null"`
	Moved             int       `gorm:"not null"`
	SkippedDuplicates int       `gorm:"not null"`
	Errors            int       `gorm:"not null"`
	StartedAt         time.Time `gorm:"index;not null"`
	FinishedAt        time.Time `gorm:"not null"`
}

func (RunRecord) TableName() string {
	return "runs"
}

// OutcomeRecord 单个文件的处理结果
type OutcomeRecord struct {
	ID        int64  `gorm:"primaryKey"`
	RunID     string `gorm:"index;not null"`
	Seq       int    `gorm:"not null"`
	Source    string `gorm:"not null"`
	Path      string
	Kind      string `gorm:"not null"`
	ErrorKind string
	Message   string
	Digest    string
	MIME      string
	Suffix    string
	Simulated bool
}

func (OutcomeRecord) TableName() string {
	return "run_outcomes"
}

// Database 运行日志，只用于审计，不会被读取来跳过或恢复任务
type Database struct {
	db *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	expandedPath, err := expandPath(dbPath)
	if err != nil {
		logger.Get().Error().Err(err).Msg("扩展数据库路径失败")
		return nil, err
	}

	logger.Get().Debug().Msgf("初始化数据库，路径: %s", expandedPath)

	if err := os.MkdirAll(filepath.Dir(expandedPath), 0755); err != nil {
		logger.Get().Error().Err(err).Msgf("创建数据库目录失败: %s", filepath.Dir(expandedPath))
		return nil, err
	}

	dsn := expandedPath + "?_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Get().Error().Err(err).Msg("打开数据库连接失败")
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Get().Error().Err(err).Msg("获取数据库连接失败")
		return nil, err
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		logger.Get().Error().Err(err).Msg("创建数据库表失败")
		sqlDB.Close()
		return nil, err
	}

	return &Database{db: db}, nil
}

func expandPath(path string) (string, error) {
	if len(path) >= 2 && path[0] == '~' && (path[1] == '/' || path[1] == '\\') {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

func createSchema(db *gorm.DB) error {
	return db.AutoMigrate(&RunRecord{}, &OutcomeRecord{})
}

// SaveRun 在一个事务中写入运行汇总与全部文件结果
func (d *Database) SaveRun(res *engine.Result) error {
	if res == nil {
		return errors.New("运行结果为空")
	}

	run := &RunRecord{
		RunID:             res.RunID,
		Source:            res.Source,
		Dest:              res.Dest,
		Suffixes:          res.Suffixes,
		DryRun:            res.DryRun,
		Phase:             string(res.Final.Phase),
		Scanned:           res.Final.Scanned,
		Matched:           res.Final.Matched,
		Moved:             res.Final.Moved,
		SkippedDuplicates: res.Final.SkippedDuplicates,
		Errors:            res.Final.Errors,
		StartedAt:         res.StartedAt,
		FinishedAt:        res.FinishedAt,
	}

	outcomes := make([]OutcomeRecord, 0, len(res.Outcomes))
	for i, o := range res.Outcomes {
		outcomes = append(outcomes, OutcomeRecord{
			RunID:     res.RunID,
			Seq:       i,
			Source:    o.Source,
			Path:      o.Path,
			Kind:      string(o.Kind),
			ErrorKind: string(o.ErrorKind),
			Message:   o.Message,
			Digest:    o.Digest,
			MIME:      o.MIME,
			Suffix:    o.Suffix,
			Simulated: o.Simulated,
		})
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		if len(outcomes) == 0 {
			return nil
		}
		return tx.CreateInBatches(outcomes, outcomeBatchSize).Error
	})
	if err != nil {
		logger.Get().Error().Err(err).Msgf("写入运行记录失败: %s", res.RunID)
		return err
	}

	logger.Get().Debug().Msgf("写入运行记录成功: %s (%d 条结果)", res.RunID, len(outcomes))
	return nil
}

// RecentRuns 按开始时间倒序返回最近的运行
func (d *Database) RecentRuns(limit int) ([]RunRecord, error) {
	var runs []RunRecord
	query := d.db.Order("started_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&runs).Error; err != nil {
		logger.Get().Error().Err(err).Msg("查询运行记录失败")
		return nil, err
	}
	return runs, nil
}

// Outcomes 返回某次运行的全部文件结果，按处理顺序排列
func (d *Database) Outcomes(runID string) ([]OutcomeRecord, error) {
	var outcomes []OutcomeRecord
	if err := d.db.Where("run_id = ?", runID).Order("seq").Find(&outcomes).Error; err != nil {
		logger.Get().Error().Err(err).Msgf("查询运行结果失败: %s", runID)
		return nil, err
	}
	return outcomes, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		logger.Get().Error().Err(err).Msg("获取数据库连接失败")
		return err
	}
	return sqlDB.Close()
}
