// Package repository 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
// 所有 Repository 接口在此文件定义，具体实现在各自的文件中
package repository

import (
	"time"

	"kindergarten_server/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ==================== 查询条件 ====================

// KindergartenFilter 幼儿园列表查询条件
type KindergartenFilter struct {
	Keyword string
	Pager
}

// ClassFilter 班级列表查询条件
type ClassFilter struct {
	KindergartenID uint
	Grade          string
	Pager
}

// TeacherFilter 教师列表查询条件
type TeacherFilter struct {
	KindergartenID uint
	Status         string
	Keyword        string
	Pager
}

// StudentFilter 学生列表查询条件
type StudentFilter struct {
	KindergartenID uint
	ClassID        uint
	Status         string
	Keyword        string // 姓名或学号
	Pager
}

// EnrollmentFilter 入园申请查询条件
type EnrollmentFilter struct {
	KindergartenID uint
	ApplicantID    uint
	Status         string
	Pager
}

// ActivityFilter 活动查询条件
type ActivityFilter struct {
	KindergartenID uint
	Status         string
	Pager
}

// OrderFilter 订单查询条件
type OrderFilter struct {
	UserID     uint // 0 表示全部
	ActivityID uint
	Status     string
	Pager
}

// GroupBuyFilter 拼团查询条件
type GroupBuyFilter struct {
	ActivityID uint
	Status     string
	Pager
}

// RewardRecordFilter 奖励记录查询条件
type RewardRecordFilter struct {
	UserID     uint
	ActivityID uint
	Status     string
	Pager
}

// ==================== 聚合结果 ====================

// StatusCount 按状态计数
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// ClassOccupancy 班级占用情况
type ClassOccupancy struct {
	ClassID        uint   `json:"classId"`
	KindergartenID uint   `json:"kindergartenId"`
	Name           string `json:"name"`
	Grade          string `json:"grade"`
	Capacity       int    `json:"capacity"`
	Assigned       int64  `json:"assigned"`
}

// TierStat 奖励档位发放统计
type TierStat struct {
	Type    string `json:"type"`
	Tier    int    `json:"tier"`
	Issued  int64  `json:"issued"`
	Claimed int64  `json:"claimed"`
	Revoked int64  `json:"revoked"`
}

// ==================== Repository 接口定义 ====================

// UserRepository 账号数据访问接口
type UserRepository interface {
	FindByID(id uint) (*model.User, error)
	FindByUsername(username string) (*model.User, error)
	FindByTelephone(telephone string) (*model.User, error)
	FindByIDs(ids []uint) ([]model.User, error)
	// FindIDsByKindergartenAndRole 广播通知时按园所和角色圈定接收人
	FindIDsByKindergartenAndRole(kindergartenID uint, role string) ([]uint, error)
	Create(user *model.User) error
	UpdateLastLogin(id uint) error
}

// KindergartenRepository 幼儿园数据访问接口
type KindergartenRepository interface {
	Create(k *model.Kindergarten) error
	FindByID(id uint) (*model.Kindergarten, error)
	Update(k *model.Kindergarten) error
	Delete(id uint) error
	List(filter KindergartenFilter) ([]model.Kindergarten, int64, error)
}

// ClassRepository 班级数据访问接口
type ClassRepository interface {
	Create(c *model.Class) error
	FindByID(id uint) (*model.Class, error)
	// FindByIDForUpdate 锁定班级行，用于容量校验
	FindByIDForUpdate(id uint) (*model.Class, error)
	Update(c *model.Class) error
	Delete(id uint) error
	List(filter ClassFilter) ([]model.Class, int64, error)
	SetHeadTeacher(classID uint, teacherID *uint) error
	CountByHeadTeacher(teacherID uint) (int64, error)
}

// TeacherRepository 教师数据访问接口
type TeacherRepository interface {
	Create(t *model.Teacher) error
	FindByID(id uint) (*model.Teacher, error)
	Update(t *model.Teacher) error
	UpdateStatus(id uint, status string) error
	Delete(id uint) error
	List(filter TeacherFilter) ([]model.Teacher, int64, error)
}

// StudentRepository 学生数据访问接口
type StudentRepository interface {
	Create(s *model.Student) error
	// FindByID 查询学生（含监护人和班级）
	FindByID(id uint) (*model.Student, error)
	// FindByIDUnscoped 包含已软删除的记录
	FindByIDUnscoped(id uint) (*model.Student, error)
	Update(s *model.Student) error
	List(filter StudentFilter) ([]model.Student, int64, error)
	ListByClass(classID uint) ([]model.Student, error)
	// CountActiveInClass 班级内在读学生数
	CountActiveInClass(classID uint) (int64, error)
	CountByKindergarten(kindergartenID uint) (int64, error)
	UpdateClass(id uint, classID *uint, operatorID uint) error
	UpdateStatus(ids []uint, status string, operatorID uint) (int64, error)
	// SoftDelete 状态置为 transferred 并软删除
	SoftDelete(id uint, operatorID uint) error
}

// GuardianRepository 监护人数据访问接口
type GuardianRepository interface {
	Create(g *model.Guardian) error
	FindByID(id uint) (*model.Guardian, error)
	Delete(id uint) error
	ClearPrimary(studentID uint) error
	UserIDsByStudent(studentID uint) ([]uint, error)
	// UserIDsByClass 班级内全部学生监护人的账号
	UserIDsByClass(classID uint) ([]uint, error)
}

// EnrollmentRepository 入园申请数据访问接口
type EnrollmentRepository interface {
	Create(a *model.EnrollmentApplication) error
	FindByID(id uint) (*model.EnrollmentApplication, error)
	List(filter EnrollmentFilter) ([]model.EnrollmentApplication, int64, error)
	// Transition 条件更新状态，返回受影响行数
	Transition(id uint, from, to string, updates map[string]any) (int64, error)
}

// ActivityRepository 活动数据访问接口
type ActivityRepository interface {
	Create(a *model.Activity) error
	FindByID(id uint) (*model.Activity, error)
	// FindByIDForUpdate 锁定活动行，报名查重前调用
	FindByIDForUpdate(id uint) (*model.Activity, error)
	Update(a *model.Activity) error
	Delete(id uint) error
	List(filter ActivityFilter) ([]model.Activity, int64, error)
	Transition(id uint, from []string, to string) (int64, error)
	// IncrementRegistered registered_count < capacity 时 +1，返回受影响行数
	IncrementRegistered(id uint) (int64, error)
	DecrementRegistered(id uint) error
}

// RegistrationRepository 报名数据访问接口
type RegistrationRepository interface {
	Create(r *model.ActivityRegistration) error
	FindByID(id uint) (*model.ActivityRegistration, error)
	// ExistsActive 同一活动、用户、学生是否已有未取消的报名
	ExistsActive(activityID, userID, studentID uint) (bool, error)
	ListByActivity(activityID uint, p Pager) ([]model.ActivityRegistration, int64, error)
	Transition(id uint, from []string, to string) (int64, error)
	SetOrder(id, orderID uint) error
	// CancelByActivity 取消活动的全部有效报名，返回受影响的用户
	CancelByActivity(activityID uint) ([]uint, error)
	CountReferrals(activityID, referrerID uint) (int64, error)
	CountConfirmed(activityID, userID uint) (int64, error)
}

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(o *model.Order) error
	FindByOrderNo(orderNo string) (*model.Order, error)
	List(filter OrderFilter) ([]model.Order, int64, error)
	// Transition 条件更新 WHERE status = from，返回受影响行数
	Transition(orderNo string, from, to string, updates map[string]any) (int64, error)
	CancelPendingByActivity(activityID uint) (int64, error)
	CancelPendingByGroupBuy(groupBuyID uint) (int64, error)
	CancelPendingByID(id uint) (int64, error)
}

// GroupBuyRepository 拼团数据访问接口
type GroupBuyRepository interface {
	Create(g *model.GroupBuy) error
	FindByID(id uint) (*model.GroupBuy, error)
	// FindByIDForUpdate 锁定拼团行，加入拼团时使用
	FindByIDForUpdate(id uint) (*model.GroupBuy, error)
	List(filter GroupBuyFilter) ([]model.GroupBuy, int64, error)
	Save(g *model.GroupBuy) error
	Transition(id uint, from, to string) (int64, error)
	FindExpired(now time.Time, limit int) ([]model.GroupBuy, error)
	AddParticipant(p *model.GroupBuyParticipant) error
	ParticipantExists(groupBuyID, userID uint) (bool, error)
	ParticipantUserIDs(groupBuyID uint) ([]uint, error)
	// SumParticipantsByInitiator 用户作为团长在某活动下拉来的总人数
	SumParticipantsByInitiator(activityID, initiatorID uint) (int64, error)
}

// CollectRepository 助力活动数据访问接口
type CollectRepository interface {
	Create(c *model.CollectActivity) error
	FindByID(id uint) (*model.CollectActivity, error)
	FindByCode(code string) (*model.CollectActivity, error)
	ListByOwner(ownerID uint, p Pager) ([]model.CollectActivity, int64, error)
	// IncrementCount 在 current_count < max_count 且未过期时 +1
	IncrementCount(id uint, now time.Time) (int64, error)
	// MarkCompleted active 且达到目标人数时置为 completed
	MarkCompleted(id uint, now time.Time) (int64, error)
	AddRecord(r *model.CollectRecord) error
	ListRecords(collectID uint, p Pager) ([]model.CollectRecord, int64, error)
	ExpireOverdue(now time.Time) (int64, error)
	MaxCountByOwner(activityID, ownerID uint) (int64, error)
}

// TieredRewardRepository 阶梯奖励定义数据访问接口
type TieredRewardRepository interface {
	Create(t *model.TieredReward) error
	FindByID(id uint) (*model.TieredReward, error)
	Update(t *model.TieredReward) error
	Delete(id uint) error
	// ListByActivity 按档位升序；onlyEnabled 过滤停用档位
	ListByActivity(activityID uint, rewardType string, onlyEnabled bool) ([]model.TieredReward, error)
}

// RewardRecordRepository 奖励发放记录数据访问接口
type RewardRecordRepository interface {
	// InsertIgnore 唯一索引冲突时静默忽略，返回是否真正插入
	InsertIgnore(r *model.TieredRewardRecord) (bool, error)
	FindByID(id uint) (*model.TieredRewardRecord, error)
	List(filter RewardRecordFilter) ([]model.TieredRewardRecord, int64, error)
	Transition(id uint, from, to string, updates map[string]any) (int64, error)
}

// NotificationRepository 通知数据访问接口
type NotificationRepository interface {
	CreateBatch(list []*model.Notification) error
	FindByID(id uint) (*model.Notification, error)
	ListByUser(userID uint, unreadOnly bool, p Pager) ([]model.Notification, int64, error)
	CountUnread(userID uint) (int64, error)
	MarkRead(id, userID uint) (int64, error)
	MarkAllRead(userID uint) (int64, error)
	MarkSent(id uint) error
	MarkFailed(id uint, reason string) error
	// ListRetryable 投递失败且次数未用尽的通知
	ListRetryable(maxAttempts, limit int) ([]model.Notification, error)
}

// AnalyticsRepository 看板统计查询
type AnalyticsRepository interface {
	StudentStatusCounts(kindergartenID uint) ([]StatusCount, error)
	CountClasses(kindergartenID uint) (int64, error)
	CountActiveTeachers(kindergartenID uint) (int64, error)
	ActivityStatusCounts(kindergartenID uint) ([]StatusCount, error)
	CountPendingEnrollments(kindergartenID uint) (int64, error)
	PaidRevenue(kindergartenID, activityID uint) (decimal.Decimal, error)
	EnrollmentDates(kindergartenID uint, since time.Time) ([]time.Time, error)
	GroupBuyStatusCounts(activityID uint) ([]StatusCount, error)
	CollectStatusCounts(activityID uint) ([]StatusCount, error)
	RewardTierStats(activityID uint) ([]TierStat, error)
	CountRegistrations(activityID uint) (int64, error)
	ClassOccupancy(kindergartenID uint) ([]ClassOccupancy, error)
}

// ==================== Repository 聚合 ====================

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问数据层
type Repositories struct {
	db           *gorm.DB
	User         UserRepository
	Kindergarten KindergartenRepository
	Class        ClassRepository
	Teacher      TeacherRepository
	Student      StudentRepository
	Guardian     GuardianRepository
	Enrollment   EnrollmentRepository
	Activity     ActivityRepository
	Registration RegistrationRepository
	Order        OrderRepository
	GroupBuy     GroupBuyRepository
	Collect      CollectRepository
	TieredReward TieredRewardRepository
	RewardRecord RewardRecordRepository
	Notification NotificationRepository
	Analytics    AnalyticsRepository
}

// NewRepositories 创建所有 Repository 实例
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:           db,
		User:         NewUserRepository(db),
		Kindergarten: NewKindergartenRepository(db),
		Class:        NewClassRepository(db),
		Teacher:      NewTeacherRepository(db),
		Student:      NewStudentRepository(db),
		Guardian:     NewGuardianRepository(db),
		Enrollment:   NewEnrollmentRepository(db),
		Activity:     NewActivityRepository(db),
		Registration: NewRegistrationRepository(db),
		Order:        NewOrderRepository(db),
		GroupBuy:     NewGroupBuyRepository(db),
		Collect:      NewCollectRepository(db),
		TieredReward: NewTieredRewardRepository(db),
		RewardRecord: NewRewardRecordRepository(db),
		Notification: NewNotificationRepository(db),
		Analytics:    NewAnalyticsRepository(db),
	}
}

// Transaction 在数据库事务中执行函数
// 事务内的所有操作要么全部成功，要么全部回滚
// fn 内只能使用 txRepos，不要再访问外层 Repositories
func (r *Repositories) Transaction(fn func(txRepos *Repositories) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// DB 返回底层连接（健康检查与管理命令使用）
func (r *Repositories) DB() *gorm.DB {
	return r.db
}
