package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	dao "kindergarten_server/internal/dao/mysql"
	"kindergarten_server/internal/dao/mysql/repository"
	"kindergarten_server/internal/model"
	"kindergarten_server/pkg/util/random"

	"golang.org/x/term"
)

var (
	readPasswordFunc = term.ReadPassword // 测试中替换

	errHelp = errors.New("help provided")
)

type commandLine struct {
	repos *repository.Repositories
	out   io.Writer
}

func (cli *commandLine) writer() io.Writer {
	if cli.out == nil {
		return os.Stdout
	}
	return cli.out
}

func (cli *commandLine) printUsage() {
	w := cli.writer()
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  migrate                                  - 自动迁移全部表结构")
	fmt.Fprintln(w, "  seed -kindergartens N -students M        - 灌入演示数据（空库执行）")
	fmt.Fprintln(w, "  adduser -username U -role R [-kindergarten K] [-telephone T] - 创建账号，密码交互输入")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	seedCmd := flag.NewFlagSet("seed", flag.ContinueOnError)
	seedKgs := seedCmd.Int("kindergartens", 1, "幼儿园数量")
	seedClasses := seedCmd.Int("classes", 3, "每个幼儿园的班级数")
	seedStudents := seedCmd.Int("students", 20, "每个幼儿园的学生数")
	seedPassword := seedCmd.String("password", "password123", "演示账号统一密码")

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserName := addUserCmd.String("username", "", "登录名")
	addUserRole := addUserCmd.String("role", model.RoleAdmin, "角色：admin|principal|teacher|parent")
	addUserKg := addUserCmd.Uint("kindergarten", 0, "所属幼儿园 ID")
	addUserTel := addUserCmd.String("telephone", "", "手机号")

	switch args[1] {
	case "migrate":
		if err := dao.Migrate(cli.repos.DB()); err != nil {
			return err
		}
		fmt.Fprintln(cli.writer(), "migrate done")
		return nil

	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *seedKgs < 1 || *seedClasses < 1 || *seedStudents < 0 {
			seedCmd.Usage()
			return errHelp
		}
		summary, err := seedData(cli.repos, seedOptions{
			Kindergartens: *seedKgs,
			Classes:       *seedClasses,
			Students:      *seedStudents,
			Password:      *seedPassword,
		}, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.writer(), "seeded %+v\n", *summary)
		return nil

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || !model.ValidRole(*addUserRole) {
			addUserCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.writer(), "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.writer())
		if err != nil {
			return err
		}
		if len(pwd) < 6 {
			return errors.New("password must be at least 6 characters")
		}
		return cli.addUser(*addUserName, *addUserRole, *addUserTel, *addUserKg, string(pwd))

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) addUser(username, role, telephone string, kindergartenID uint, password string) error {
	if _, err := cli.repos.User.FindByUsername(username); err == nil {
		return fmt.Errorf("user %q already exists", username)
	}
	if kindergartenID != 0 {
		if _, err := cli.repos.Kindergarten.FindByID(kindergartenID); err != nil {
			return fmt.Errorf("kindergarten %d: %w", kindergartenID, err)
		}
	}
	u := &model.User{
		Uuid:           "U" + random.GetNowAndLenRandomString(11),
		Username:       username,
		Nickname:       username,
		Telephone:      telephone,
		Role:           role,
		KindergartenID: kindergartenID,
		RawPassword:    password,
	}
	if err := cli.repos.User.Create(u); err != nil {
		return err
	}
	fmt.Fprintf(cli.writer(), "user %s (%s) created, id=%d\n", username, role, u.ID)
	return nil
}
