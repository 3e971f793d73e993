package kindergarten

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindergarten_server/internal/dao/mysql/repository"
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/model"
	"kindergarten_server/internal/testutil"
	"kindergarten_server/pkg/errorx"
)

func int8Ptr(v int8) *int8 { return &v }

func TestKindergartenCRUD(t *testing.T) {
	repos := testutil.NewRepos(t)
	svc := NewKindergartenService(repos)

	k, err := svc.Create(1, request.KindergartenRequest{Name: "阳光幼儿园", Capacity: 300})
	require.NoError(t, err)
	assert.Equal(t, model.StatusEnabled, k.Status)

	disabled, err := svc.Create(1, request.KindergartenRequest{Name: "星星幼儿园", Status: int8Ptr(0)})
	require.NoError(t, err)
	got, err := svc.Get(disabled.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDisabled, got.Status, "停用状态写入数据库")

	updated, err := svc.Update(2, k.ID, request.KindergartenRequest{Name: "阳光幼儿园（总园）", Capacity: 320})
	require.NoError(t, err)
	assert.Equal(t, 320, updated.Capacity)
	assert.Equal(t, model.StatusEnabled, updated.Status, "未传 status 时不变")

	page, err := svc.List(request.KindergartenListRequest{Keyword: "阳光"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	testutil.CreateStudent(t, repos, k.ID, 0, "小明")
	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(svc.Delete(k.ID)))
	require.NoError(t, svc.Delete(disabled.ID))
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(svc.Delete(disabled.ID)))
}

type classFixture struct {
	repos    *repository.Repositories
	classes  *classService
	teachers *teacherService
	kg       *model.Kindergarten
}

func newClassFixture(t *testing.T) *classFixture {
	t.Helper()
	repos := testutil.NewRepos(t)
	return &classFixture{
		repos:    repos,
		classes:  NewClassService(repos),
		teachers: NewTeacherService(repos),
		kg:       testutil.CreateKindergarten(t, repos, "阳光幼儿园"),
	}
}

func (f *classFixture) teacher(t *testing.T, kindergartenID uint, name string) *model.Teacher {
	t.Helper()
	tc, err := f.teachers.Create(1, request.TeacherRequest{KindergartenID: kindergartenID, Name: name})
	require.NoError(t, err)
	return tc
}

func TestClassCRUD(t *testing.T) {
	f := newClassFixture(t)

	_, err := f.classes.Create(1, request.ClassRequest{KindergartenID: 9999, Name: "x", Grade: model.GradeSmall, Capacity: 10})
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))

	c, err := f.classes.Create(1, request.ClassRequest{KindergartenID: f.kg.ID, Name: "小一班", Grade: model.GradeSmall, Capacity: 2})
	require.NoError(t, err)
	testutil.CreateStudent(t, f.repos, f.kg.ID, c.ID, "甲")
	testutil.CreateStudent(t, f.repos, f.kg.ID, c.ID, "乙")

	_, err = f.classes.Update(1, c.ID, request.ClassRequest{KindergartenID: f.kg.ID, Name: "小一班", Grade: model.GradeSmall, Capacity: 1})
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err), "容量小于在读人数")

	updated, err := f.classes.Update(1, c.ID, request.ClassRequest{KindergartenID: f.kg.ID, Name: "小一班", Grade: model.GradeMiddle, Capacity: 25})
	require.NoError(t, err)
	assert.Equal(t, model.GradeMiddle, updated.Grade)

	students, err := f.classes.ListStudents(c.ID)
	require.NoError(t, err)
	assert.Len(t, students, 2)

	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(f.classes.Delete(c.ID)))

	empty, err := f.classes.Create(1, request.ClassRequest{KindergartenID: f.kg.ID, Name: "小二班", Grade: model.GradeSmall, Capacity: 20, Status: int8Ptr(0)})
	require.NoError(t, err)
	got, err := f.classes.Get(empty.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDisabled, got.Status)

	page, err := f.classes.List(request.ClassListRequest{KindergartenID: f.kg.ID, Grade: model.GradeSmall})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	_, err = f.classes.List(request.ClassListRequest{Grade: "huge"})
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	require.NoError(t, f.classes.Delete(empty.ID))
}

func TestHeadTeacherRules(t *testing.T) {
	f := newClassFixture(t)
	c := testutil.CreateClass(t, f.repos, f.kg.ID, "大一班", 20)
	other := testutil.CreateKindergarten(t, f.repos, "月亮幼儿园")

	tc := f.teacher(t, f.kg.ID, "王老师")
	stranger := f.teacher(t, other.ID, "李老师")
	onLeave := f.teacher(t, f.kg.ID, "赵老师")
	_, err := f.teachers.UpdateStatus(1, onLeave.ID, request.TeacherStatusRequest{Status: model.TeacherStatusOnLeave})
	require.NoError(t, err)

	_, err = f.classes.AssignHeadTeacher(1, c.ID, request.AssignHeadTeacherRequest{TeacherID: stranger.ID})
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))
	_, err = f.classes.AssignHeadTeacher(1, c.ID, request.AssignHeadTeacherRequest{TeacherID: onLeave.ID})
	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(err))
	_, err = f.classes.AssignHeadTeacher(1, c.ID, request.AssignHeadTeacherRequest{TeacherID: 9999})
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))

	got, err := f.classes.AssignHeadTeacher(1, c.ID, request.AssignHeadTeacherRequest{TeacherID: tc.ID})
	require.NoError(t, err)
	require.NotNil(t, got.HeadTeacherID)
	assert.Equal(t, tc.ID, *got.HeadTeacherID)

	_, err = f.teachers.UpdateStatus(1, tc.ID, request.TeacherStatusRequest{Status: model.TeacherStatusResigned})
	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(err), "班主任不能直接离职")
	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(f.teachers.Delete(tc.ID)))
	_, err = f.teachers.Update(1, tc.ID, request.TeacherRequest{KindergartenID: other.ID, Name: "王老师"})
	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(err))

	got, err = f.classes.AssignHeadTeacher(1, c.ID, request.AssignHeadTeacherRequest{})
	require.NoError(t, err)
	assert.Nil(t, got.HeadTeacherID)

	resigned, err := f.teachers.UpdateStatus(1, tc.ID, request.TeacherStatusRequest{Status: model.TeacherStatusResigned})
	require.NoError(t, err)
	assert.Equal(t, model.TeacherStatusResigned, resigned.Status)
}

func TestTeacherCRUD(t *testing.T) {
	f := newClassFixture(t)
	user := testutil.CreateUser(t, f.repos, "teacher1", model.RoleTeacher, f.kg.ID)

	_, err := f.teachers.Create(1, request.TeacherRequest{KindergartenID: f.kg.ID, Name: "x", UserID: 9999})
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	tc, err := f.teachers.Create(1, request.TeacherRequest{KindergartenID: f.kg.ID, Name: "孙老师", UserID: user.ID, Position: "主班"})
	require.NoError(t, err)
	assert.Equal(t, model.TeacherStatusActive, tc.Status)

	updated, err := f.teachers.Update(2, tc.ID, request.TeacherRequest{KindergartenID: f.kg.ID, Name: "孙老师", Position: "配班"})
	require.NoError(t, err)
	assert.Equal(t, "配班", updated.Position)

	page, err := f.teachers.List(request.TeacherListRequest{KindergartenID: f.kg.ID, Keyword: "孙"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	_, err = f.teachers.List(request.TeacherListRequest{Status: "retired"})
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	require.NoError(t, f.teachers.Delete(tc.ID))
	_, err = f.teachers.Get(tc.ID)
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))
}
