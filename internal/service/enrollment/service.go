// Package enrollment 入园申请与审核
package enrollment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kindergarten_server/internal/dao/mysql/repository"
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/dto/respond"
	"kindergarten_server/internal/model"
	"kindergarten_server/internal/service/notification"
	"kindergarten_server/internal/service/student"
	"kindergarten_server/pkg/errorx"
)

type enrollmentService struct {
	repos    *repository.Repositories
	notifier notification.Notifier
}

// NewEnrollmentService 创建入园申请服务
func NewEnrollmentService(repos *repository.Repositories, notifier notification.Notifier) *enrollmentService {
	return &enrollmentService{repos: repos, notifier: notifier}
}

// Submit 提交入园申请
func (s *enrollmentService) Submit(applicantID uint, req request.EnrollmentRequest) (*model.EnrollmentApplication, error) {
	birth, err := time.ParseInLocation("2006-01-02", req.BirthDate, time.Local)
	if err != nil {
		return nil, errorx.BadRequest("birth_date 格式应为 2006-01-02")
	}
	if birth.After(time.Now()) {
		return nil, errorx.BadRequest("出生日期不能晚于今天")
	}
	if _, err := s.repos.Kindergarten.FindByID(req.KindergartenID); err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.NotFound("幼儿园不存在")
		}
		return nil, errorx.ServerError(err, "查询幼儿园失败")
	}
	app := &model.EnrollmentApplication{
		KindergartenID:    req.KindergartenID,
		ApplicantID:       applicantID,
		ChildName:         req.ChildName,
		Gender:            req.Gender,
		BirthDate:         birth,
		GuardianName:      req.GuardianName,
		GuardianTelephone: req.GuardianTelephone,
		GuardianRelation:  req.GuardianRelation,
		DesiredGrade:      req.DesiredGrade,
		Status:            model.EnrollmentPending,
	}
	app.CreatorID = applicantID
	if err := s.repos.Enrollment.Create(app); err != nil {
		return nil, errorx.ServerError(err, "提交入园申请失败")
	}
	zap.L().Info("提交入园申请", zap.Uint("application", app.ID), zap.Uint("kindergarten", req.KindergartenID))
	return app, nil
}

// List 家长只能看到自己提交的申请
func (s *enrollmentService) List(userID uint, role string, req request.EnrollmentListRequest) (*respond.PageResult[model.EnrollmentApplication], error) {
	p := req.Pager()
	filter := repository.EnrollmentFilter{KindergartenID: req.KindergartenID, Status: req.Status, Pager: p}
	if !model.IsStaff(role) {
		filter.ApplicantID = userID
	}
	list, total, err := s.repos.Enrollment.List(filter)
	if err != nil {
		return nil, errorx.ServerError(err, "查询入园申请失败")
	}
	return respond.NewPageResult(list, total, p.Page, p.PageSize), nil
}

// Get 申请详情
func (s *enrollmentService) Get(userID uint, role string, id uint) (*model.EnrollmentApplication, error) {
	app, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if !model.IsStaff(role) && app.ApplicantID != userID {
		return nil, errorx.Forbidden("无权查看该申请")
	}
	return app, nil
}

func (s *enrollmentService) find(id uint) (*model.EnrollmentApplication, error) {
	app, err := s.repos.Enrollment.FindByID(id)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.NotFound("入园申请不存在")
		}
		return nil, errorx.ServerError(err, "查询入园申请失败")
	}
	return app, nil
}

// Approve 审核通过：建学生档案和主监护人，可同时分班
func (s *enrollmentService) Approve(ctx context.Context, operatorID, id uint, req request.ApproveEnrollmentRequest) (*model.Student, error) {
	app, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if app.Status != model.EnrollmentPending {
		return nil, errorx.Conflict("申请已审核")
	}

	st := &model.Student{
		StudentNo:      req.StudentNo,
		Name:           app.ChildName,
		Gender:         app.Gender,
		BirthDate:      app.BirthDate,
		KindergartenID: app.KindergartenID,
		EnrollmentDate: time.Now(),
		Status:         model.StudentStatusActive,
	}
	if st.StudentNo == "" {
		st.StudentNo = student.GenerateStudentNo()
	}
	st.CreatorID = operatorID
	st.UpdaterID = operatorID

	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		if req.ClassID != 0 {
			if err := student.ReserveSeat(tx, req.ClassID, app.KindergartenID); err != nil {
				return err
			}
			classID := req.ClassID
			st.ClassID = &classID
		}
		if err := tx.Student.Create(st); err != nil {
			if errorx.GetCode(err) == errorx.CodeConflict {
				return errorx.Conflict("学号 %s 已存在", st.StudentNo)
			}
			return errorx.ServerError(err, "创建学生失败")
		}
		guardian := &model.Guardian{
			StudentID: st.ID,
			Name:      app.GuardianName,
			Relation:  app.GuardianRelation,
			Telephone: app.GuardianTelephone,
			UserID:    app.ApplicantID,
			IsPrimary: true,
		}
		guardian.CreatorID = operatorID
		if err := tx.Guardian.Create(guardian); err != nil {
			return errorx.ServerError(err, "添加监护人失败")
		}
		n, err := tx.Enrollment.Transition(id, model.EnrollmentPending, model.EnrollmentApproved, map[string]any{
			"student_id":    st.ID,
			"review_remark": req.Remark,
			"updater_id":    operatorID,
		})
		if err != nil {
			return errorx.ServerError(err, "审核入园申请失败")
		}
		if n == 0 {
			return errorx.Conflict("申请已审核")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("入园申请通过",
		zap.Uint("application", id),
		zap.Uint("student", st.ID),
		zap.Uint("operator", operatorID))

	content := fmt.Sprintf("%s 的入园申请已通过，学号 %s", app.ChildName, st.StudentNo)
	s.notifyApplicant(ctx, app, "入园申请已通过", content)
	return st, nil
}

// Reject 审核拒绝
func (s *enrollmentService) Reject(ctx context.Context, operatorID, id uint, req request.RejectEnrollmentRequest) (*model.EnrollmentApplication, error) {
	app, err := s.find(id)
	if err != nil {
		return nil, err
	}
	n, err := s.repos.Enrollment.Transition(id, model.EnrollmentPending, model.EnrollmentRejected, map[string]any{
		"review_remark": req.Remark,
		"updater_id":    operatorID,
	})
	if err != nil {
		return nil, errorx.ServerError(err, "审核入园申请失败")
	}
	if n == 0 {
		return nil, errorx.Conflict("申请已审核")
	}
	zap.L().Info("入园申请被拒绝", zap.Uint("application", id), zap.Uint("operator", operatorID))

	content := fmt.Sprintf("%s 的入园申请未通过：%s", app.ChildName, req.Remark)
	s.notifyApplicant(ctx, app, "入园申请未通过", content)
	return s.find(id)
}

func (s *enrollmentService) notifyApplicant(ctx context.Context, app *model.EnrollmentApplication, title, content string) {
	if app.ApplicantID == 0 {
		return
	}
	err := s.notifier.Notify(ctx, notification.Message{
		UserIDs: []uint{app.ApplicantID},
		Title:   title,
		Content: content,
		Type:    notification.TypeEnroll,
		BizType: "enrollment",
		BizID:   app.ID,
	})
	if err != nil {
		zap.L().Warn("入园审核通知失败", zap.Uint("application", app.ID), zap.Error(err))
	}
}
