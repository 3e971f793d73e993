package main

import (
	"fmt"
	"time"

	"kindergarten_server/internal/dao/mysql/repository"
	"kindergarten_server/internal/model"
	"kindergarten_server/pkg/util/random"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var seedGrades = []string{model.GradeSmall, model.GradeMiddle, model.GradeLarge, model.GradePre}

type seedOptions struct {
	Kindergartens int
	Classes       int // 每园班级数
	Students      int // 每园学生数
	Password      string
}

type seedSummary struct {
	Kindergartens int
	Classes       int
	Teachers      int
	Students      int
	Parents       int
	ActivityID    uint
	CollectCode   string
}

// seedData 在一个事务内写入演示数据
// 第一个幼儿园额外创建一场已发布活动，并配置拼团、助力与阶梯奖励
func seedData(repos *repository.Repositories, opts seedOptions, now time.Time) (*seedSummary, error) {
	// 全部演示账号共用一个哈希，避免逐个 bcrypt
	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	batch := now.Format("0102150405")
	summary := &seedSummary{}

	err = repos.Transaction(func(tx *repository.Repositories) error {
		seq := 0
		newUser := func(username, role string, kgID uint) (*model.User, error) {
			seq++
			u := &model.User{
				Uuid:           fmt.Sprintf("S%s%09d", batch, seq),
				Username:       username,
				Nickname:       username,
				Telephone:      fmt.Sprintf("139%08d", seq),
				Role:           role,
				KindergartenID: kgID,
				Password:       string(hash),
			}
			return u, tx.User.Create(u)
		}

		var firstParent uint
		for k := 1; k <= opts.Kindergartens; k++ {
			kg := &model.Kindergarten{
				Name:     fmt.Sprintf("示范幼儿园%d", k),
				Address:  fmt.Sprintf("幸福路%d号", k),
				Capacity: opts.Classes * 30,
				Status:   model.StatusEnabled,
			}
			if err := tx.Kindergarten.Create(kg); err != nil {
				return fmt.Errorf("kindergarten %d: %w", k, err)
			}
			summary.Kindergartens++

			if _, err := newUser(fmt.Sprintf("principal_%s_%d", batch, k), model.RolePrincipal, kg.ID); err != nil {
				return err
			}

			classes := make([]*model.Class, 0, opts.Classes)
			for c := 1; c <= opts.Classes; c++ {
				grade := seedGrades[(c-1)%len(seedGrades)]
				class := &model.Class{
					KindergartenID: kg.ID,
					Name:           fmt.Sprintf("%s%d班", grade, c),
					Grade:          grade,
					Capacity:       30,
					Status:         model.StatusEnabled,
				}
				if err := tx.Class.Create(class); err != nil {
					return fmt.Errorf("class %d-%d: %w", k, c, err)
				}
				classes = append(classes, class)
				summary.Classes++

				u, err := newUser(fmt.Sprintf("teacher_%s_%d_%d", batch, k, c), model.RoleTeacher, kg.ID)
				if err != nil {
					return err
				}
				teacher := &model.Teacher{
					KindergartenID: kg.ID,
					UserID:         u.ID,
					Name:           fmt.Sprintf("老师%d-%d", k, c),
					Telephone:      u.Telephone,
					Position:       "班主任",
					Status:         model.TeacherStatusActive,
				}
				if err := tx.Teacher.Create(teacher); err != nil {
					return err
				}
				if err := tx.Class.SetHeadTeacher(class.ID, &teacher.ID); err != nil {
					return err
				}
				summary.Teachers++
			}

			for s := 1; s <= opts.Students; s++ {
				// 轮流分班，班满则不分班
				var classID *uint
				class := classes[(s-1)%len(classes)]
				if (s-1)/len(classes) < class.Capacity {
					classID = &class.ID
				}
				student := &model.Student{
					StudentNo:      fmt.Sprintf("S%s%02d%04d", batch, k, s),
					Name:           fmt.Sprintf("小朋友%d-%d", k, s),
					Gender:         int8(s % 2),
					BirthDate:      now.AddDate(-4, -s%12, 0),
					KindergartenID: kg.ID,
					ClassID:        classID,
					EnrollmentDate: now.AddDate(0, -s%12, 0),
					Status:         model.StudentStatusActive,
				}
				if err := tx.Student.Create(student); err != nil {
					return fmt.Errorf("student %d-%d: %w", k, s, err)
				}
				summary.Students++

				parent, err := newUser(fmt.Sprintf("parent_%s_%d_%d", batch, k, s), model.RoleParent, kg.ID)
				if err != nil {
					return err
				}
				summary.Parents++
				if firstParent == 0 {
					firstParent = parent.ID
				}
				if err := tx.Guardian.Create(&model.Guardian{
					StudentID: student.ID,
					Name:      fmt.Sprintf("家长%d-%d", k, s),
					Relation:  "mother",
					Telephone: parent.Telephone,
					UserID:    parent.ID,
					IsPrimary: true,
				}); err != nil {
					return err
				}
			}

			if k == 1 {
				if err := seedMarketing(tx, kg.ID, firstParent, now, summary); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func seedMarketing(tx *repository.Repositories, kgID, ownerID uint, now time.Time, summary *seedSummary) error {
	activity := &model.Activity{
		KindergartenID:       kgID,
		Title:                "春季亲子开放日",
		Description:          "参观园所、体验课堂",
		Type:                 "open_day",
		Location:             "园区操场",
		StartTime:            now.AddDate(0, 0, 21),
		EndTime:              now.AddDate(0, 0, 21).Add(3 * time.Hour),
		RegistrationDeadline: now.AddDate(0, 0, 14),
		Capacity:             100,
		Price:                decimal.RequireFromString("199"),
		Status:               model.ActivityStatusPublished,
	}
	if err := tx.Activity.Create(activity); err != nil {
		return fmt.Errorf("activity: %w", err)
	}
	summary.ActivityID = activity.ID

	if ownerID == 0 {
		return nil
	}

	if err := tx.GroupBuy.Create(&model.GroupBuy{
		ActivityID:      activity.ID,
		InitiatorID:     ownerID,
		Title:           "三人成团立减",
		OriginalPrice:   activity.Price,
		GroupPrice:      decimal.RequireFromString("149"),
		MinParticipants: 3,
		MaxParticipants: 10,
		Deadline:        now.AddDate(0, 0, 7),
		Status:          model.GroupBuyActive,
	}); err != nil {
		return fmt.Errorf("group buy: %w", err)
	}

	code := random.GetShareCode(8)
	if err := tx.Collect.Create(&model.CollectActivity{
		ActivityID:  activity.ID,
		OwnerID:     ownerID,
		CollectCode: code,
		Title:       "邀请好友助力免费体验",
		TargetCount: 5,
		MaxCount:    20,
		RewardType:  model.RewardCoupon,
		RewardValue: decimal.RequireFromString("50"),
		Deadline:    now.AddDate(0, 0, 7),
		Status:      model.CollectActive,
	}); err != nil {
		return fmt.Errorf("collect activity: %w", err)
	}
	summary.CollectCode = code

	tiers := []model.TieredReward{
		{Type: model.RewardMetricReferral, Tier: 1, TargetValue: 1, RewardType: model.RewardPoints, RewardValue: decimal.NewFromInt(100)},
		{Type: model.RewardMetricReferral, Tier: 2, TargetValue: 3, RewardType: model.RewardCoupon, RewardValue: decimal.NewFromInt(50)},
		{Type: model.RewardMetricReferral, Tier: 3, TargetValue: 5, RewardType: model.RewardGift, RewardValue: decimal.Zero},
		{Type: model.RewardMetricCollect, Tier: 1, TargetValue: 5, RewardType: model.RewardCoupon, RewardValue: decimal.NewFromInt(30)},
		{Type: model.RewardMetricCollect, Tier: 2, TargetValue: 10, RewardType: model.RewardDiscount, RewardValue: decimal.RequireFromString("0.8")},
		{Type: model.RewardMetricGroupBuy, Tier: 1, TargetValue: 3, RewardType: model.RewardPoints, RewardValue: decimal.NewFromInt(200)},
	}
	for i := range tiers {
		tiers[i].ActivityID = activity.ID
		tiers[i].Status = model.StatusEnabled
		if err := tx.TieredReward.Create(&tiers[i]); err != nil {
			return fmt.Errorf("tiered reward %s/%d: %w", tiers[i].Type, tiers[i].Tier, err)
		}
	}
	return nil
}
