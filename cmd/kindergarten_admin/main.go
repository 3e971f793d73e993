// kindergarten_admin 运维命令行：建表、灌入演示数据、创建账号
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"kindergarten_server/internal/config"
	dao "kindergarten_server/internal/dao/mysql"
	"kindergarten_server/internal/dao/mysql/repository"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径，默认按 configs/ 搜索")
	flag.Parse()

	conf := config.GetConfig()
	if *configPath != "" {
		c, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		conf = c
	}

	lg, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(lg)

	db, err := dao.Open(&conf.MysqlConfig, conf.MainConfig.Mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cli := &commandLine{repos: repository.NewRepositories(db)}
	// flag 包已消费全局参数，子命令从剩余参数开始
	args := append([]string{os.Args[0]}, flag.Args()...)
	if err := cli.run(args); err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
