package kindergarten

import (
	"go.uber.org/zap"

	"kindergarten_server/internal/dao/mysql/repository"
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/dto/respond"
	"kindergarten_server/internal/model"
	"kindergarten_server/pkg/errorx"
)

type teacherService struct {
	repos *repository.Repositories
}

// NewTeacherService 创建教师服务
func NewTeacherService(repos *repository.Repositories) *teacherService {
	return &teacherService{repos: repos}
}

func (s *teacherService) apply(t *model.Teacher, req request.TeacherRequest) error {
	if _, err := s.repos.Kindergarten.FindByID(req.KindergartenID); err != nil {
		if errorx.IsNotFound(err) {
			return errorx.NotFound("幼儿园不存在")
		}
		return errorx.ServerError(err, "查询幼儿园失败")
	}
	if req.UserID != 0 {
		if _, err := s.repos.User.FindByID(req.UserID); err != nil {
			if errorx.IsNotFound(err) {
				return errorx.BadRequest("关联账号不存在")
			}
			return errorx.ServerError(err, "查询账号失败")
		}
	}
	t.KindergartenID = req.KindergartenID
	t.UserID = req.UserID
	t.Name = req.Name
	t.Telephone = req.Telephone
	t.Email = req.Email
	t.Position = req.Position
	return nil
}

// Create 新建教师档案
func (s *teacherService) Create(operatorID uint, req request.TeacherRequest) (*model.Teacher, error) {
	t := &model.Teacher{Status: model.TeacherStatusActive}
	if err := s.apply(t, req); err != nil {
		return nil, err
	}
	t.CreatorID = operatorID
	t.UpdaterID = operatorID
	if err := s.repos.Teacher.Create(t); err != nil {
		return nil, errorx.ServerError(err, "创建教师失败")
	}
	return t, nil
}

// Get 教师详情
func (s *teacherService) Get(id uint) (*model.Teacher, error) {
	t, err := s.repos.Teacher.FindByID(id)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.NotFound("教师不存在")
		}
		return nil, errorx.ServerError(err, "查询教师失败")
	}
	return t, nil
}

// List 教师列表
func (s *teacherService) List(req request.TeacherListRequest) (*respond.PageResult[model.Teacher], error) {
	if req.Status != "" && !model.ValidTeacherStatus(req.Status) {
		return nil, errorx.BadRequest("未知的教师状态 %s", req.Status)
	}
	p := req.Pager()
	list, total, err := s.repos.Teacher.List(repository.TeacherFilter{
		KindergartenID: req.KindergartenID,
		Status:         req.Status,
		Keyword:        req.Keyword,
		Pager:          p,
	})
	if err != nil {
		return nil, errorx.ServerError(err, "查询教师列表失败")
	}
	return respond.NewPageResult(list, total, p.Page, p.PageSize), nil
}

// Update 修改教师档案，担任班主任期间不能调往其他园
func (s *teacherService) Update(operatorID, id uint, req request.TeacherRequest) (*model.Teacher, error) {
	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if req.KindergartenID != t.KindergartenID {
		if err := s.ensureNotHeadTeacher(id, "担任班主任的教师不能调园"); err != nil {
			return nil, err
		}
	}
	if err := s.apply(t, req); err != nil {
		return nil, err
	}
	t.UpdaterID = operatorID
	if err := s.repos.Teacher.Update(t); err != nil {
		return nil, errorx.ServerError(err, "更新教师失败")
	}
	return t, nil
}

// UpdateStatus 变更在职状态，班主任不能直接离职
func (s *teacherService) UpdateStatus(operatorID, id uint, req request.TeacherStatusRequest) (*model.Teacher, error) {
	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if req.Status == model.TeacherStatusResigned {
		if err := s.ensureNotHeadTeacher(id, "请先更换班主任再办理离职"); err != nil {
			return nil, err
		}
	}
	if err := s.repos.Teacher.UpdateStatus(id, req.Status); err != nil {
		return nil, errorx.ServerError(err, "更新教师状态失败")
	}
	zap.L().Info("教师状态变更",
		zap.Uint("teacher", id),
		zap.String("from", t.Status),
		zap.String("to", req.Status),
		zap.Uint("operator", operatorID))
	t.Status = req.Status
	return t, nil
}

// Delete 删除教师档案
func (s *teacherService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.ensureNotHeadTeacher(id, "请先更换班主任再删除"); err != nil {
		return err
	}
	if err := s.repos.Teacher.Delete(id); err != nil {
		return errorx.ServerError(err, "删除教师失败")
	}
	return nil
}

func (s *teacherService) ensureNotHeadTeacher(id uint, msg string) error {
	n, err := s.repos.Class.CountByHeadTeacher(id)
	if err != nil {
		return errorx.ServerError(err, "查询班主任任职失败")
	}
	if n > 0 {
		return errorx.Conflict("%s", msg)
	}
	return nil
}
