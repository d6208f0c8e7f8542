package services

import (
	"eims/internal/access"
	"eims/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkBatchCreatesRecords(t *testing.T) {
	db := newTestDB(t)
	svc := NewAttendanceService(db)

	branch := createTestBranch(t, db, "ATT1")
	course := createTestCourse(t, db, "ATT1-C")
	batch := createTestBatch(t, db, "早班", course.ID, branch.ID)
	trainer := createTestUser(t, db, "trainer-att1", models.RoleTrainer)

	s1 := createTestStudent(t, db, "甲", branch.ID, &batch.ID)
	s2 := createTestStudent(t, db, "乙", branch.ID, &batch.ID)

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	marked, err := svc.MarkBatch(batch.ID, day, trainer.ID, []AttendanceEntry{
		{StudentID: s1.ID, Status: models.AttendancePresent},
		{StudentID: s2.ID, Status: models.AttendanceLate, Notes: "迟到10分钟"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	records, err := svc.GetBatchSheet(batch.ID, day)
	require.NoError(t, err)
	require.Len(t, records, 2)
	// 分支归属冗余自班级
	assert.Equal(t, branch.ID, records[0].BranchID)
	assert.Equal(t, trainer.ID, records[0].MarkedBy)
}

func TestMarkBatchOverwritesSameDay(t *testing.T) {
	db := newTestDB(t)
	svc := NewAttendanceService(db)

	branch := createTestBranch(t, db, "ATT2")
	course := createTestCourse(t, db, "ATT2-C")
	batch := createTestBatch(t, db, "午班", course.ID, branch.ID)
	trainer := createTestUser(t, db, "trainer-att2", models.RoleTrainer)
	student := createTestStudent(t, db, "丙", branch.ID, &batch.ID)

	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	_, err := svc.MarkBatch(batch.ID, day, trainer.ID, []AttendanceEntry{
		{StudentID: student.ID, Status: models.AttendanceAbsent},
	})
	require.NoError(t, err)

	// 同一 (学员, 班级, 日期) 重复点名覆盖而不是新增
	_, err = svc.MarkBatch(batch.ID, day, trainer.ID, []AttendanceEntry{
		{StudentID: student.ID, Status: models.AttendancePresent},
	})
	require.NoError(t, err)

	var count int64
	db.Model(&models.StudentAttendance{}).
		Where("student_id = ? AND batch_id = ?", student.ID, batch.ID).
		Count(&count)
	assert.Equal(t, int64(1), count)

	records, err := svc.GetBatchSheet(batch.ID, day)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.AttendancePresent, records[0].Status)
}

func TestMarkBatchRejectsForeignStudent(t *testing.T) {
	db := newTestDB(t)
	svc := NewAttendanceService(db)

	branch := createTestBranch(t, db, "ATT3")
	course := createTestCourse(t, db, "ATT3-C")
	batch := createTestBatch(t, db, "晚班", course.ID, branch.ID)
	other := createTestBatch(t, db, "别班", course.ID, branch.ID)
	trainer := createTestUser(t, db, "trainer-att3", models.RoleTrainer)

	inBatch := createTestStudent(t, db, "丁", branch.ID, &batch.ID)
	outsider := createTestStudent(t, db, "戊", branch.ID, &other.ID)

	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	// 整批回滚：含非本班学员时一条都不落库
	_, err := svc.MarkBatch(batch.ID, day, trainer.ID, []AttendanceEntry{
		{StudentID: inBatch.ID, Status: models.AttendancePresent},
		{StudentID: outsider.ID, Status: models.AttendancePresent},
	})
	assert.Error(t, err)

	var count int64
	db.Model(&models.StudentAttendance{}).Where("batch_id = ?", batch.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestMarkBatchRejectsInvalidStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewAttendanceService(db)

	branch := createTestBranch(t, db, "ATT4")
	course := createTestCourse(t, db, "ATT4-C")
	batch := createTestBatch(t, db, "周末班", course.ID, branch.ID)
	trainer := createTestUser(t, db, "trainer-att4", models.RoleTrainer)
	student := createTestStudent(t, db, "己", branch.ID, &batch.ID)

	_, err := svc.MarkBatch(batch.ID, time.Now(), trainer.ID, []AttendanceEntry{
		{StudentID: student.ID, Status: "sleeping"},
	})
	assert.Error(t, err)
}

func TestGetWithPageAppliesBatchNarrowing(t *testing.T) {
	db := newTestDB(t)
	svc := NewAttendanceService(db)

	branch := createTestBranch(t, db, "ATT5")
	course := createTestCourse(t, db, "ATT5-C")
	batchA := createTestBatch(t, db, "A班", course.ID, branch.ID)
	batchB := createTestBatch(t, db, "B班", course.ID, branch.ID)
	trainer := createTestUser(t, db, "trainer-att5", models.RoleTrainer)

	sa := createTestStudent(t, db, "庚", branch.ID, &batchA.ID)
	sb := createTestStudent(t, db, "辛", branch.ID, &batchB.ID)

	day := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	_, err := svc.MarkBatch(batchA.ID, day, trainer.ID, []AttendanceEntry{{StudentID: sa.ID, Status: models.AttendancePresent}})
	require.NoError(t, err)
	_, err = svc.MarkBatch(batchB.ID, day, trainer.ID, []AttendanceEntry{{StudentID: sb.ID, Status: models.AttendancePresent}})
	require.NoError(t, err)

	// 讲师收窄到A班：看不见B班的考勤
	narrowed := access.Decision{
		Effect:    access.EffectAllowScoped,
		BranchIDs: []uint{branch.ID},
		BatchIDs:  []uint{batchA.ID},
	}
	records, total, err := svc.GetWithPage(narrowed, 0, 0, nil, nil, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, batchA.ID, records[0].BatchID)
}
