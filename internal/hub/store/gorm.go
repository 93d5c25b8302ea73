package store

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kart-io/knowledge-hub/internal/model"
	dbopts "github.com/kart-io/knowledge-hub/pkg/options/db"
)

// datastore 实现 Factory 接口。
type datastore struct {
	db *gorm.DB
}

var _ Factory = (*datastore)(nil)

// NewDB 按配置的驱动建立 gorm 连接。
func NewDB(opts *dbopts.Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case "postgres":
		dialector = postgres.Open(opts.DSN())
	case "mysql":
		dialector = mysql.Open(opts.DSN())
	case "sqlite":
		dialector = sqlite.Open(opts.DSN())
	default:
		return nil, fmt.Errorf("unsupported db driver %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConnections)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConnections)
	sqlDB.SetConnMaxLifetime(opts.MaxConnectionLifeTime)

	return db, nil
}

// NewFactory 创建存储工厂并迁移表结构。
func NewFactory(db *gorm.DB) (Factory, error) {
	if err := db.AutoMigrate(&model.Document{}, &model.Chunk{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &datastore{db: db}, nil
}

// Documents 返回文档存储。
func (ds *datastore) Documents() DocumentStore {
	return newDocuments(ds.db)
}

// Chunks 返回分块存储。
func (ds *datastore) Chunks() ChunkStore {
	return newChunks(ds.db)
}

// Close 关闭底层数据库连接。
func (ds *datastore) Close() error {
	sqlDB, err := ds.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
