package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kindergarten_server/internal/dao/mysql/repository"
	"kindergarten_server/internal/model"
)

var fixtureSeq atomic.Int64

// CreateUser 创建账号，密码固定为 password123
// 用户名追加序号，同一测试可多次以相同前缀创建
func CreateUser(t testing.TB, repos *repository.Repositories, prefix, role string, kindergartenID uint) *model.User {
	t.Helper()
	return createUser(t, repos, fmt.Sprintf("%s_%d", prefix, fixtureSeq.Add(1)), role, kindergartenID)
}

// CreateUserNamed 按给定用户名创建账号，用于需要按用户名登录的测试
func CreateUserNamed(t testing.TB, repos *repository.Repositories, username, role string, kindergartenID uint) *model.User {
	t.Helper()
	return createUser(t, repos, username, role, kindergartenID)
}

func createUser(t testing.TB, repos *repository.Repositories, username, role string, kindergartenID uint) *model.User {
	t.Helper()
	seq := fixtureSeq.Add(1)
	u := &model.User{
		Uuid:           fmt.Sprintf("U%019d", seq),
		Username:       username,
		Nickname:       username,
		Telephone:      fmt.Sprintf("138%08d", seq),
		Email:          username + "@example.com",
		Role:           role,
		KindergartenID: kindergartenID,
		RawPassword:    "password123",
	}
	if err := repos.User.Create(u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// CreateKindergarten 创建幼儿园
func CreateKindergarten(t testing.TB, repos *repository.Repositories, name string) *model.Kindergarten {
	t.Helper()
	k := &model.Kindergarten{Name: name, Capacity: 300, Status: model.StatusEnabled}
	if err := repos.Kindergarten.Create(k); err != nil {
		t.Fatalf("create kindergarten: %v", err)
	}
	return k
}

// CreateClass 创建班级
func CreateClass(t testing.TB, repos *repository.Repositories, kindergartenID uint, name string, capacity int) *model.Class {
	t.Helper()
	c := &model.Class{KindergartenID: kindergartenID, Name: name, Grade: model.GradeSmall, Capacity: capacity, Status: model.StatusEnabled}
	if err := repos.Class.Create(c); err != nil {
		t.Fatalf("create class: %v", err)
	}
	return c
}

// CreateStudent 创建学生，classID 为 0 时不分班
func CreateStudent(t testing.TB, repos *repository.Repositories, kindergartenID, classID uint, name string) *model.Student {
	t.Helper()
	s := &model.Student{
		StudentNo:      fmt.Sprintf("S%08d", fixtureSeq.Add(1)),
		Name:           name,
		KindergartenID: kindergartenID,
		EnrollmentDate: time.Now(),
		Status:         model.StudentStatusActive,
	}
	if classID != 0 {
		s.ClassID = &classID
	}
	if err := repos.Student.Create(s); err != nil {
		t.Fatalf("create student: %v", err)
	}
	return s
}

// CreateActivity 创建已发布的活动，报名截止在一天后
func CreateActivity(t testing.TB, repos *repository.Repositories, kindergartenID uint, capacity int, price string) *model.Activity {
	t.Helper()
	now := time.Now()
	a := &model.Activity{
		KindergartenID:       kindergartenID,
		Title:                "亲子运动会",
		StartTime:            now.Add(48 * time.Hour),
		EndTime:              now.Add(50 * time.Hour),
		RegistrationDeadline: now.Add(24 * time.Hour),
		Capacity:             capacity,
		Price:                decimal.RequireFromString(price),
		Status:               model.ActivityStatusPublished,
	}
	if err := repos.Activity.Create(a); err != nil {
		t.Fatalf("create activity: %v", err)
	}
	return a
}

// CountNotifications 某用户某业务类型的站内信数
func CountNotifications(t testing.TB, repos *repository.Repositories, userID uint, bizType string) int64 {
	t.Helper()
	var n int64
	err := repos.DB().Model(&model.Notification{}).
		Where("user_id = ? AND biz_type = ? AND channel = ?", userID, bizType, model.ChannelInApp).
		Count(&n).Error
	if err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	return n
}
