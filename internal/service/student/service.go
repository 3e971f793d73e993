// Package student 学生档案、分班与监护人
package student

import (
	"time"

	"go.uber.org/zap"

	"kindergarten_server/internal/dao/mysql/repository"
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/dto/respond"
	"kindergarten_server/internal/model"
	"kindergarten_server/pkg/errorx"
	"kindergarten_server/pkg/util/random"
)

const dateLayout = "2006-01-02"

type studentService struct {
	repos *repository.Repositories
}

// NewStudentService 创建学生服务
func NewStudentService(repos *repository.Repositories) *studentService {
	return &studentService{repos: repos}
}

// ReserveSeat 锁定班级行并校验名额，需在事务中调用
// 班级必须属于该幼儿园且处于启用状态
func ReserveSeat(tx *repository.Repositories, classID, kindergartenID uint) error {
	c, err := tx.Class.FindByIDForUpdate(classID)
	if err != nil {
		if errorx.IsNotFound(err) {
			return errorx.NotFound("班级不存在")
		}
		return errorx.ServerError(err, "查询班级失败")
	}
	if c.KindergartenID != kindergartenID {
		return errorx.BadRequest("班级不属于该幼儿园")
	}
	if c.Status != model.StatusEnabled {
		return errorx.Conflict("班级已停用")
	}
	n, err := tx.Student.CountActiveInClass(classID)
	if err != nil {
		return errorx.ServerError(err, "统计班级人数失败")
	}
	if n >= int64(c.Capacity) {
		return errorx.Conflict("班级 %s 已满（%d/%d）", c.Name, n, c.Capacity)
	}
	return nil
}

// GenerateStudentNo 自动学号：S + 年月日 + 随机串
func GenerateStudentNo() string {
	return "S" + random.GetNowAndLenRandomString(6)
}

func parseDate(value string, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, errorx.BadRequest("%s 格式应为 2006-01-02", field)
	}
	return t, nil
}

// Create 新建学生，可同时分班和登记监护人
func (s *studentService) Create(operatorID uint, req request.CreateStudentRequest) (*model.Student, error) {
	birth, err := parseDate(req.BirthDate, "birth_date")
	if err != nil {
		return nil, err
	}
	enrolled, err := parseDate(req.EnrollmentDate, "enrollment_date")
	if err != nil {
		return nil, err
	}
	if enrolled.IsZero() {
		enrolled = time.Now()
	}
	primaries := 0
	for _, g := range req.Guardians {
		if g.IsPrimary {
			primaries++
		}
	}
	if primaries > 1 {
		return nil, errorx.BadRequest("只能有一位主监护人")
	}
	if _, err := s.repos.Kindergarten.FindByID(req.KindergartenID); err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.NotFound("幼儿园不存在")
		}
		return nil, errorx.ServerError(err, "查询幼儿园失败")
	}

	st := &model.Student{
		StudentNo:      req.StudentNo,
		Name:           req.Name,
		Gender:         req.Gender,
		BirthDate:      birth,
		KindergartenID: req.KindergartenID,
		EnrollmentDate: enrolled,
		Status:         model.StudentStatusActive,
	}
	if st.StudentNo == "" {
		st.StudentNo = GenerateStudentNo()
	}
	st.CreatorID = operatorID
	st.UpdaterID = operatorID

	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		if req.ClassID != 0 {
			if err := ReserveSeat(tx, req.ClassID, req.KindergartenID); err != nil {
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
		for i, g := range req.Guardians {
			guardian := newGuardian(st.ID, operatorID, g)
			// 未指定主监护人时第一位为主监护人
			if primaries == 0 && i == 0 {
				guardian.IsPrimary = true
			}
			if err := tx.Guardian.Create(guardian); err != nil {
				return errorx.ServerError(err, "添加监护人失败")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("新建学生", zap.Uint("student", st.ID), zap.String("studentNo", st.StudentNo))
	return s.Get(st.ID)
}

func newGuardian(studentID, operatorID uint, req request.GuardianRequest) *model.Guardian {
	g := &model.Guardian{
		StudentID: studentID,
		Name:      req.Name,
		Relation:  req.Relation,
		Telephone: req.Telephone,
		UserID:    req.UserID,
		IsPrimary: req.IsPrimary,
	}
	g.CreatorID = operatorID
	g.UpdaterID = operatorID
	return g
}

// Get 学生详情（含监护人与班级）
func (s *studentService) Get(id uint) (*model.Student, error) {
	st, err := s.repos.Student.FindByID(id)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.NotFound("学生不存在")
		}
		return nil, errorx.ServerError(err, "查询学生失败")
	}
	return st, nil
}

// List 学生列表
func (s *studentService) List(req request.StudentListRequest) (*respond.PageResult[model.Student], error) {
	if req.Status != "" && !model.ValidStudentStatus(req.Status) {
		return nil, errorx.BadRequest("未知的学生状态 %s", req.Status)
	}
	p := req.Pager()
	list, total, err := s.repos.Student.List(repository.StudentFilter{
		KindergartenID: req.KindergartenID,
		ClassID:        req.ClassID,
		Status:         req.Status,
		Keyword:        req.Keyword,
		Pager:          p,
	})
	if err != nil {
		return nil, errorx.ServerError(err, "查询学生列表失败")
	}
	return respond.NewPageResult(list, total, p.Page, p.PageSize), nil
}

// Update 修改基本信息
func (s *studentService) Update(operatorID, id uint, req request.UpdateStudentRequest) (*model.Student, error) {
	st, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	birth, err := parseDate(req.BirthDate, "birth_date")
	if err != nil {
		return nil, err
	}
	enrolled, err := parseDate(req.EnrollmentDate, "enrollment_date")
	if err != nil {
		return nil, err
	}
	st.Name = req.Name
	st.Gender = req.Gender
	if !birth.IsZero() {
		st.BirthDate = birth
	}
	if !enrolled.IsZero() {
		st.EnrollmentDate = enrolled
	}
	st.UpdaterID = operatorID
	if err := s.repos.Student.Update(st); err != nil {
		return nil, errorx.ServerError(err, "更新学生失败")
	}
	return st, nil
}

// Delete 软删除，重复删除直接返回成功
func (s *studentService) Delete(operatorID, id uint) error {
	st, err := s.repos.Student.FindByIDUnscoped(id)
	if err != nil {
		if errorx.IsNotFound(err) {
			return errorx.NotFound("学生不存在")
		}
		return errorx.ServerError(err, "查询学生失败")
	}
	if st.DeletedAt.Valid {
		return nil
	}
	if err := s.repos.Student.SoftDelete(id, operatorID); err != nil {
		return errorx.ServerError(err, "删除学生失败")
	}
	zap.L().Info("删除学生", zap.Uint("student", id), zap.Uint("operator", operatorID))
	return nil
}

// AssignClass 分班，class_id 为 0 时移出班级
func (s *studentService) AssignClass(operatorID, id uint, req request.AssignClassRequest) (*model.Student, error) {
	st, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if req.ClassID == 0 {
		if err := s.repos.Student.UpdateClass(id, nil, operatorID); err != nil {
			return nil, errorx.ServerError(err, "调整班级失败")
		}
		return s.Get(id)
	}
	if model.LeavesClass(st.Status) {
		return nil, errorx.Conflict("已毕业或转出的学生不能分班")
	}
	if st.ClassID != nil && *st.ClassID == req.ClassID {
		return st, nil
	}
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		if err := ReserveSeat(tx, req.ClassID, st.KindergartenID); err != nil {
			return err
		}
		classID := req.ClassID
		if err := tx.Student.UpdateClass(id, &classID, operatorID); err != nil {
			return errorx.ServerError(err, "调整班级失败")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("学生分班", zap.Uint("student", id), zap.Uint("class", req.ClassID))
	return s.Get(id)
}

// UpdateStatus 变更学生状态，毕业或转出时清空班级
func (s *studentService) UpdateStatus(operatorID, id uint, req request.StudentStatusRequest) (*model.Student, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	if _, err := s.repos.Student.UpdateStatus([]uint{id}, req.Status, operatorID); err != nil {
		return nil, errorx.ServerError(err, "更新学生状态失败")
	}
	return s.Get(id)
}

// BatchUpdateStatus 批量变更状态，返回实际更新数
func (s *studentService) BatchUpdateStatus(operatorID uint, req request.BatchStudentStatusRequest) (int64, error) {
	n, err := s.repos.Student.UpdateStatus(req.IDs, req.Status, operatorID)
	if err != nil {
		return 0, errorx.ServerError(err, "批量更新学生状态失败")
	}
	zap.L().Info("批量更新学生状态", zap.Int("requested", len(req.IDs)), zap.Int64("updated", n), zap.String("status", req.Status))
	return n, nil
}

// AddGuardian 添加监护人，设为主监护人时取消原主监护人
func (s *studentService) AddGuardian(operatorID, studentID uint, req request.GuardianRequest) (*model.Guardian, error) {
	if _, err := s.Get(studentID); err != nil {
		return nil, err
	}
	g := newGuardian(studentID, operatorID, req)
	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		if g.IsPrimary {
			if err := tx.Guardian.ClearPrimary(studentID); err != nil {
				return errorx.ServerError(err, "重置主监护人失败")
			}
		}
		if err := tx.Guardian.Create(g); err != nil {
			return errorx.ServerError(err, "添加监护人失败")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// RemoveGuardian 删除监护人
func (s *studentService) RemoveGuardian(studentID, guardianID uint) error {
	g, err := s.repos.Guardian.FindByID(guardianID)
	if err != nil {
		if errorx.IsNotFound(err) {
			return errorx.NotFound("监护人不存在")
		}
		return errorx.ServerError(err, "查询监护人失败")
	}
	if g.StudentID != studentID {
		return errorx.NotFound("监护人不存在")
	}
	if err := s.repos.Guardian.Delete(guardianID); err != nil {
		return errorx.ServerError(err, "删除监护人失败")
	}
	return nil
}
