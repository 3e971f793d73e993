package kindergarten

import (
	"go.uber.org/zap"

	"kindergarten_server/internal/dao/mysql/repository"
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/dto/respond"
	"kindergarten_server/internal/model"
	"kindergarten_server/pkg/errorx"
)

type classService struct {
	repos *repository.Repositories
}

// NewClassService 创建班级服务
func NewClassService(repos *repository.Repositories) *classService {
	return &classService{repos: repos}
}

// Create 新建班级
func (s *classService) Create(operatorID uint, req request.ClassRequest) (*model.Class, error) {
	if _, err := s.repos.Kindergarten.FindByID(req.KindergartenID); err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.NotFound("幼儿园不存在")
		}
		return nil, errorx.ServerError(err, "查询幼儿园失败")
	}
	c := &model.Class{
		KindergartenID: req.KindergartenID,
		Name:           req.Name,
		Grade:          req.Grade,
		Capacity:       req.Capacity,
		Status:         statusOrEnabled(req.Status),
	}
	c.CreatorID = operatorID
	c.UpdaterID = operatorID
	if err := s.repos.Class.Create(c); err != nil {
		return nil, errorx.ServerError(err, "创建班级失败")
	}
	return c, nil
}

// Get 班级详情
func (s *classService) Get(id uint) (*model.Class, error) {
	c, err := s.repos.Class.FindByID(id)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.NotFound("班级不存在")
		}
		return nil, errorx.ServerError(err, "查询班级失败")
	}
	return c, nil
}

// List 班级列表
func (s *classService) List(req request.ClassListRequest) (*respond.PageResult[model.Class], error) {
	if req.Grade != "" && !model.ValidGrade(req.Grade) {
		return nil, errorx.BadRequest("未知的年级 %s", req.Grade)
	}
	p := req.Pager()
	list, total, err := s.repos.Class.List(repository.ClassFilter{KindergartenID: req.KindergartenID, Grade: req.Grade, Pager: p})
	if err != nil {
		return nil, errorx.ServerError(err, "查询班级列表失败")
	}
	return respond.NewPageResult(list, total, p.Page, p.PageSize), nil
}

// Update 修改班级，容量不能小于在读人数
func (s *classService) Update(operatorID, id uint, req request.ClassRequest) (*model.Class, error) {
	c, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if req.KindergartenID != c.KindergartenID {
		return nil, errorx.BadRequest("不能修改班级所属幼儿园")
	}
	n, err := s.repos.Student.CountActiveInClass(id)
	if err != nil {
		return nil, errorx.ServerError(err, "统计班级人数失败")
	}
	if int64(req.Capacity) < n {
		return nil, errorx.BadRequest("容量不能小于在读人数 %d", n)
	}
	c.Name = req.Name
	c.Grade = req.Grade
	c.Capacity = req.Capacity
	if req.Status != nil {
		c.Status = *req.Status
	}
	c.UpdaterID = operatorID
	if err := s.repos.Class.Update(c); err != nil {
		return nil, errorx.ServerError(err, "更新班级失败")
	}
	return c, nil
}

// Delete 班级内仍有在读学生时拒绝删除
func (s *classService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	n, err := s.repos.Student.CountActiveInClass(id)
	if err != nil {
		return errorx.ServerError(err, "统计班级人数失败")
	}
	if n > 0 {
		return errorx.Conflict("班级内还有 %d 名在读学生，不能删除", n)
	}
	if err := s.repos.Class.Delete(id); err != nil {
		return errorx.ServerError(err, "删除班级失败")
	}
	return nil
}

// AssignHeadTeacher 指定班主任，教师须在职且同园；teacher_id 为 0 时取消
func (s *classService) AssignHeadTeacher(operatorID, classID uint, req request.AssignHeadTeacherRequest) (*model.Class, error) {
	c, err := s.Get(classID)
	if err != nil {
		return nil, err
	}
	if req.TeacherID == 0 {
		if err := s.repos.Class.SetHeadTeacher(classID, nil); err != nil {
			return nil, errorx.ServerError(err, "取消班主任失败")
		}
		return s.Get(classID)
	}
	t, err := s.repos.Teacher.FindByID(req.TeacherID)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.NotFound("教师不存在")
		}
		return nil, errorx.ServerError(err, "查询教师失败")
	}
	if t.KindergartenID != c.KindergartenID {
		return nil, errorx.BadRequest("教师与班级不属于同一幼儿园")
	}
	if t.Status != model.TeacherStatusActive {
		return nil, errorx.Conflict("教师不在职，不能担任班主任")
	}
	teacherID := t.ID
	if err := s.repos.Class.SetHeadTeacher(classID, &teacherID); err != nil {
		return nil, errorx.ServerError(err, "设置班主任失败")
	}
	zap.L().Info("设置班主任", zap.Uint("class", classID), zap.Uint("teacher", teacherID), zap.Uint("operator", operatorID))
	return s.Get(classID)
}

// ListStudents 班级学生名单
func (s *classService) ListStudents(classID uint) ([]model.Student, error) {
	if _, err := s.Get(classID); err != nil {
		return nil, err
	}
	list, err := s.repos.Student.ListByClass(classID)
	if err != nil {
		return nil, errorx.ServerError(err, "查询班级学生失败")
	}
	if list == nil {
		list = []model.Student{}
	}
	return list, nil
}
