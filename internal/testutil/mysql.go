package testutil

import (
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	dao "kindergarten_server/internal/dao/mysql"
	"kindergarten_server/internal/config"
	"kindergarten_server/internal/dao/mysql/repository"
)

// MySQLConcurrency 集成测试的并发连接数
const MySQLConcurrency = 16

// NewMySQLRepos 在 KG_TEST_MYSQL_HOST 指向的实例上为当前测试建一个独立的库
// 未设置时跳过。连接池允许多连接，行锁与条件更新在真实并发下生效
func NewMySQLRepos(t testing.TB) *repository.Repositories {
	t.Helper()
	host := os.Getenv("KG_TEST_MYSQL_HOST")
	if host == "" {
		t.Skip("KG_TEST_MYSQL_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("KG_TEST_MYSQL_PORT"))
	if port == 0 {
		port = 3306
	}
	user := os.Getenv("KG_TEST_MYSQL_USER")
	if user == "" {
		user = "root"
	}
	conf := config.MysqlConfig{
		Host:         host,
		Port:         port,
		User:         user,
		Password:     os.Getenv("KG_TEST_MYSQL_PASSWORD"),
		MaxOpenConns: MySQLConcurrency,
		MaxIdleConns: MySQLConcurrency,
	}

	admin, err := dao.Open(&conf, "test")
	if err != nil {
		t.Fatalf("open mysql: %v", err)
	}
	name := fmt.Sprintf("kg_test_%d_%d", time.Now().UnixNano(), dbSeq.Add(1))
	if err := admin.Exec("CREATE DATABASE `" + name + "` CHARACTER SET utf8mb4").Error; err != nil {
		t.Fatalf("create database: %v", err)
	}
	adminDB, _ := admin.DB()
	t.Cleanup(func() {
		_ = admin.Exec("DROP DATABASE IF EXISTS `" + name + "`").Error
		_ = adminDB.Close()
	})

	conf.DatabaseName = name
	db, err := dao.Open(&conf, "test")
	if err != nil {
		t.Fatalf("open mysql %s: %v", name, err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := dao.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repository.NewRepositories(db)
}
