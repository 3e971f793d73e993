package student

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindergarten_server/internal/dao/mysql/repository"
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/model"
	"kindergarten_server/internal/testutil"
	"kindergarten_server/pkg/errorx"
)

type fixture struct {
	repos *repository.Repositories
	svc   *studentService
	kg    *model.Kindergarten
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, testutil.NewRepos(t))
}

func newFixtureOn(t *testing.T, repos *repository.Repositories) *fixture {
	t.Helper()
	return &fixture{repos: repos, svc: NewStudentService(repos), kg: testutil.CreateKindergarten(t, repos, "阳光幼儿园")}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	class := testutil.CreateClass(t, f.repos, f.kg.ID, "小一班", 2)

	st, err := f.svc.Create(1, request.CreateStudentRequest{
		Name:           "小明",
		BirthDate:      "2021-03-01",
		KindergartenID: f.kg.ID,
		ClassID:        class.ID,
		Guardians: []request.GuardianRequest{
			{Name: "明爸", Relation: "father"},
			{Name: "明妈", Relation: "mother"},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, st.StudentNo)
	assert.Equal(t, model.StudentStatusActive, st.Status)
	require.NotNil(t, st.Class)
	assert.Equal(t, "小一班", st.Class.Name)
	require.Len(t, st.Guardians, 2)
	assert.True(t, st.Guardians[0].IsPrimary, "未指定时第一位为主监护人")
	assert.False(t, st.Guardians[1].IsPrimary)
	assert.Equal(t, 2021, st.BirthDate.Year())

	tests := []struct {
		name string
		req  request.CreateStudentRequest
		code int
	}{
		{"bad date", request.CreateStudentRequest{Name: "a", KindergartenID: f.kg.ID, BirthDate: "2021/03/01"}, errorx.CodeInvalidParam},
		{"two primaries", request.CreateStudentRequest{Name: "a", KindergartenID: f.kg.ID, Guardians: []request.GuardianRequest{
			{Name: "x", IsPrimary: true}, {Name: "y", IsPrimary: true},
		}}, errorx.CodeInvalidParam},
		{"unknown kindergarten", request.CreateStudentRequest{Name: "a", KindergartenID: 9999}, errorx.CodeNotFound},
		{"duplicate student no", request.CreateStudentRequest{Name: "a", KindergartenID: f.kg.ID, StudentNo: st.StudentNo}, errorx.CodeConflict},
		{"unknown class", request.CreateStudentRequest{Name: "a", KindergartenID: f.kg.ID, ClassID: 9999}, errorx.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(1, tt.req)
			assert.Equal(t, tt.code, errorx.GetCode(err))
		})
	}

	other := testutil.CreateKindergarten(t, f.repos, "月亮幼儿园")
	_, err = f.svc.Create(1, request.CreateStudentRequest{Name: "b", KindergartenID: other.ID, ClassID: class.ID})
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err), "班级不属于该幼儿园")
}

func TestAssignClass_CapacityEnforced(t *testing.T) {
	f := newFixture(t)
	small := testutil.CreateClass(t, f.repos, f.kg.ID, "小一班", 1)
	big := testutil.CreateClass(t, f.repos, f.kg.ID, "小二班", 5)
	a := testutil.CreateStudent(t, f.repos, f.kg.ID, 0, "甲")
	b := testutil.CreateStudent(t, f.repos, f.kg.ID, 0, "乙")

	got, err := f.svc.AssignClass(1, a.ID, request.AssignClassRequest{ClassID: small.ID})
	require.NoError(t, err)
	require.NotNil(t, got.ClassID)
	assert.Equal(t, small.ID, *got.ClassID)

	// 重复分到同一班级不占用新名额
	_, err = f.svc.AssignClass(1, a.ID, request.AssignClassRequest{ClassID: small.ID})
	require.NoError(t, err)

	_, err = f.svc.AssignClass(1, b.ID, request.AssignClassRequest{ClassID: small.ID})
	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(err))

	_, err = f.svc.AssignClass(1, a.ID, request.AssignClassRequest{ClassID: big.ID})
	require.NoError(t, err)
	_, err = f.svc.AssignClass(1, b.ID, request.AssignClassRequest{ClassID: small.ID})
	require.NoError(t, err, "转班后原班名额释放")

	got, err = f.svc.AssignClass(1, b.ID, request.AssignClassRequest{})
	require.NoError(t, err)
	assert.Nil(t, got.ClassID)
}

// SQLite 单连接，并发调用被串行执行；班级行锁由 integration 标签下的 MySQL 用例覆盖
func TestAssignClass_ParallelCallersStopAtCapacity(t *testing.T) {
	assignUntilFull(t, newFixture(t))
}

func assignUntilFull(t *testing.T, f *fixture) {
	t.Helper()
	class := testutil.CreateClass(t, f.repos, f.kg.ID, "中一班", 3)
	students := make([]*model.Student, 8)
	for i := range students {
		students[i] = testutil.CreateStudent(t, f.repos, f.kg.ID, 0, "学生")
	}

	var wg sync.WaitGroup
	for _, st := range students {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, _ = f.svc.AssignClass(1, id, request.AssignClassRequest{ClassID: class.ID})
		}(st.ID)
	}
	wg.Wait()

	n, err := f.repos.Student.CountActiveInClass(class.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestStatusLifecycle(t *testing.T) {
	f := newFixture(t)
	class := testutil.CreateClass(t, f.repos, f.kg.ID, "大一班", 5)
	a := testutil.CreateStudent(t, f.repos, f.kg.ID, class.ID, "甲")
	b := testutil.CreateStudent(t, f.repos, f.kg.ID, class.ID, "乙")

	got, err := f.svc.UpdateStatus(1, a.ID, request.StudentStatusRequest{Status: model.StudentStatusSuspended})
	require.NoError(t, err)
	assert.NotNil(t, got.ClassID, "休学保留学位")

	got, err = f.svc.UpdateStatus(1, a.ID, request.StudentStatusRequest{Status: model.StudentStatusGraduated})
	require.NoError(t, err)
	assert.Nil(t, got.ClassID)

	_, err = f.svc.AssignClass(1, a.ID, request.AssignClassRequest{ClassID: class.ID})
	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(err))

	n, err := f.svc.BatchUpdateStatus(1, request.BatchStudentStatusRequest{IDs: []uint{a.ID, b.ID, 9999}, Status: model.StudentStatusTransferred})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	page, err := f.svc.List(request.StudentListRequest{KindergartenID: f.kg.ID, Status: model.StudentStatusTransferred})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	_, err = f.svc.List(request.StudentListRequest{Status: "unknown"})
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))
}

func TestUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	st := testutil.CreateStudent(t, f.repos, f.kg.ID, 0, "小红")

	got, err := f.svc.Update(2, st.ID, request.UpdateStudentRequest{Name: "小红红", Gender: 1, BirthDate: "2020-12-31"})
	require.NoError(t, err)
	assert.Equal(t, "小红红", got.Name)
	assert.EqualValues(t, 1, got.Gender)
	assert.EqualValues(t, 2, got.UpdaterID)

	page, err := f.svc.List(request.StudentListRequest{Keyword: "红红"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	require.NoError(t, f.svc.Delete(1, st.ID))
	require.NoError(t, f.svc.Delete(1, st.ID), "重复删除幂等")
	_, err = f.svc.Get(st.ID)
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(f.svc.Delete(1, 9999)))

	deleted, err := f.repos.Student.FindByIDUnscoped(st.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StudentStatusTransferred, deleted.Status)
}

func TestGuardians(t *testing.T) {
	f := newFixture(t)
	st := testutil.CreateStudent(t, f.repos, f.kg.ID, 0, "小刚")

	first, err := f.svc.AddGuardian(1, st.ID, request.GuardianRequest{Name: "刚爸", IsPrimary: true})
	require.NoError(t, err)
	second, err := f.svc.AddGuardian(1, st.ID, request.GuardianRequest{Name: "刚妈", IsPrimary: true})
	require.NoError(t, err)

	got, err := f.svc.Get(st.ID)
	require.NoError(t, err)
	require.Len(t, got.Guardians, 2)
	assert.Equal(t, second.ID, got.Guardians[0].ID, "新的主监护人")
	assert.True(t, got.Guardians[0].IsPrimary)
	assert.False(t, got.Guardians[1].IsPrimary)

	other := testutil.CreateStudent(t, f.repos, f.kg.ID, 0, "小强")
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(f.svc.RemoveGuardian(other.ID, first.ID)))
	require.NoError(t, f.svc.RemoveGuardian(st.ID, first.ID))

	_, err = f.svc.AddGuardian(1, 9999, request.GuardianRequest{Name: "x"})
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))
}
