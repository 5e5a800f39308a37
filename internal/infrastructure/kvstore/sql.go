package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/turtacn/tokenlife/internal/domain/repository"
	"github.com/turtacn/tokenlife/pkg/constants"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Entry is the row layout of the SQL store. Keys are stored as binary so that ORDER BY
// compares bytes on every dialect (no collation involved).
type Entry struct {
	Key   []byte `gorm:"column:entry_key;primaryKey"`
	Value []byte `gorm:"column:entry_value;not null"`
}

// TableName sets the table used by gorm.
func (Entry) TableName() string {
	return "kv_entries"
}

// SQLStore implements repository.KVStore on a relational database through gorm.
type SQLStore struct {
	db       *gorm.DB
	pageSize int
}

var _ repository.KVStore = (*SQLStore)(nil)

// OpenSQL opens a gorm connection for the sqlite or postgres driver.
func OpenSQL(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case constants.StoreDriverSQLite:
		dialector = sqlite.Open(dsn)
	case constants.StoreDriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver: %s", driver)
	}
	return gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

// NewSQLStore migrates the kv_entries table and returns a store over db.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate kv_entries: %w", err)
	}
	return &SQLStore{db: db, pageSize: constants.DefaultScanPageSize}, nil
}

func (s *SQLStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e.Value, nil
}

func (s *SQLStore) Put(ctx context.Context, key, value []byte) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"entry_value"}),
	}).Create(&Entry{Key: key, Value: value}).Error
}

func (s *SQLStore) Delete(ctx context.Context, key []byte) error {
	return s.db.WithContext(ctx).Where("entry_key = ?", key).Delete(&Entry{}).Error
}

// Scan reads pages ordered by key, each page starting strictly after the previous one.
func (s *SQLStore) Scan(ctx context.Context, prefix []byte, fn repository.ScanFunc) error {
	end := prefixEnd(prefix)
	after := prefix
	inclusive := true

	for {
		q := s.db.WithContext(ctx).Model(&Entry{}).Order("entry_key ASC").Limit(s.pageSize)
		if inclusive {
			if len(after) > 0 {
				q = q.Where("entry_key >= ?", after)
			}
		} else {
			q = q.Where("entry_key > ?", after)
		}
		if end != nil {
			q = q.Where("entry_key < ?", end)
		}

		var page []Entry
		if err := q.Find(&page).Error; err != nil {
			return err
		}
		for _, e := range page {
			if err := fn(e.Key, e.Value); err != nil {
				if err == repository.ErrStopScan {
					return nil
				}
				return err
			}
		}
		if len(page) < s.pageSize {
			return nil
		}
		after = page[len(page)-1].Key
		inclusive = false
	}
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
