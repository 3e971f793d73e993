// Package kindergarten 幼儿园、班级与教师档案
package kindergarten

import (
	"go.uber.org/zap"

	"kindergarten_server/internal/dao/mysql/repository"
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/dto/respond"
	"kindergarten_server/internal/model"
	"kindergarten_server/pkg/errorx"
)

type kindergartenService struct {
	repos *repository.Repositories
}

// NewKindergartenService 创建幼儿园服务
func NewKindergartenService(repos *repository.Repositories) *kindergartenService {
	return &kindergartenService{repos: repos}
}

// Create 新建幼儿园
func (s *kindergartenService) Create(operatorID uint, req request.KindergartenRequest) (*model.Kindergarten, error) {
	k := &model.Kindergarten{
		Name:      req.Name,
		Address:   req.Address,
		Telephone: req.Telephone,
		Capacity:  req.Capacity,
		Status:    statusOrEnabled(req.Status),
	}
	k.CreatorID = operatorID
	k.UpdaterID = operatorID
	if err := s.repos.Kindergarten.Create(k); err != nil {
		return nil, errorx.ServerError(err, "创建幼儿园失败")
	}
	zap.L().Info("创建幼儿园", zap.Uint("kindergarten", k.ID), zap.String("name", k.Name))
	return k, nil
}

func statusOrEnabled(status *int8) int8 {
	if status == nil {
		return model.StatusEnabled
	}
	return *status
}

// Get 幼儿园详情
func (s *kindergartenService) Get(id uint) (*model.Kindergarten, error) {
	k, err := s.repos.Kindergarten.FindByID(id)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.NotFound("幼儿园不存在")
		}
		return nil, errorx.ServerError(err, "查询幼儿园失败")
	}
	return k, nil
}

// List 幼儿园列表
func (s *kindergartenService) List(req request.KindergartenListRequest) (*respond.PageResult[model.Kindergarten], error) {
	p := req.Pager()
	list, total, err := s.repos.Kindergarten.List(repository.KindergartenFilter{Keyword: req.Keyword, Pager: p})
	if err != nil {
		return nil, errorx.ServerError(err, "查询幼儿园列表失败")
	}
	return respond.NewPageResult(list, total, p.Page, p.PageSize), nil
}

// Update 修改幼儿园，status 为空时保持不变
func (s *kindergartenService) Update(operatorID, id uint, req request.KindergartenRequest) (*model.Kindergarten, error) {
	k, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	k.Name = req.Name
	k.Address = req.Address
	k.Telephone = req.Telephone
	k.Capacity = req.Capacity
	if req.Status != nil {
		k.Status = *req.Status
	}
	k.UpdaterID = operatorID
	if err := s.repos.Kindergarten.Update(k); err != nil {
		return nil, errorx.ServerError(err, "更新幼儿园失败")
	}
	return k, nil
}

// Delete 园内仍有学生时拒绝删除
func (s *kindergartenService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	n, err := s.repos.Student.CountByKindergarten(id)
	if err != nil {
		return errorx.ServerError(err, "统计园所学生失败")
	}
	if n > 0 {
		return errorx.Conflict("园内还有 %d 名学生，不能删除", n)
	}
	if err := s.repos.Kindergarten.Delete(id); err != nil {
		return errorx.ServerError(err, "删除幼儿园失败")
	}
	zap.L().Info("删除幼儿园", zap.Uint("kindergarten", id))
	return nil
}
