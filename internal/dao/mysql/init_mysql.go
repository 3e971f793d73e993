// Package mysql 提供数据访问层的初始化
// 负责建立 MySQL 连接、配置连接池、自动迁移表结构、初始化 Repository 层
package mysql

import (
	"fmt"
	"time"

	"kindergarten_server/internal/config"
	"kindergarten_server/internal/dao/mysql/repository"
	"kindergarten_server/internal/model"

	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 根据配置建立数据库连接
// TranslateError 打开后唯一索引冲突会被翻译成 gorm.ErrDuplicatedKey
func Open(conf *config.MysqlConfig, mode string) (*gorm.DB, error) {
	// 格式：user:password@tcp(host:port)/database?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		conf.User,
		conf.Password,
		conf.Host,
		conf.Port,
		conf.DatabaseName,
	)

	logLevel := logger.Warn
	if mode == "dev" {
		logLevel = logger.Info
	}
	db, err := gorm.Open(mysqldriver.Open(dsn), &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(conf.MaxOpenConns)
	sqlDB.SetMaxIdleConns(conf.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate 自动迁移全部表结构
// 不会删除已有字段或数据
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(model.AllModels()...)
}

// Init 建立连接、迁移表结构并返回 Repository 实例
func Init(conf *config.Config) (*repository.Repositories, error) {
	db, err := Open(&conf.MysqlConfig, conf.MainConfig.Mode)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return repository.NewRepositories(db), nil
}
