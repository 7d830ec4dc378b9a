package service

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/evalia-go-api/internal/dto"
	"github.com/noah-isme/evalia-go-api/internal/models"
	"github.com/noah-isme/evalia-go-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type fakeLedgerRepo struct {
	records     map[string]models.Evaluation
	aggregate   models.AggregateScore
	recordCalls int
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{records: make(map[string]models.Evaluation)}
}

func ledgerKey(evaluatorID uint, targetType string, targetID uint) string {
	return fmt.Sprintf("%d/%s/%d", evaluatorID, targetType, targetID)
}

func (f *fakeLedgerRepo) Record(_ context.Context, evaluation models.Evaluation) (repository.LedgerResult, error) {
	f.recordCalls++
	key := ledgerKey(evaluation.EvaluatorID, evaluation.TargetType, evaluation.TargetID)
	previous, replaced := f.records[key]
	f.records[key] = evaluation
	f.aggregate.TargetType = evaluation.TargetType
	f.aggregate.TargetID = evaluation.TargetID
	f.aggregate.Fold(evaluation.PercentageScore, previous.PercentageScore, replaced)
	return repository.LedgerResult{Evaluation: evaluation, Aggregate: f.aggregate, Replaced: replaced}, nil
}

func (f *fakeLedgerRepo) GetByEvaluatorAndTarget(_ context.Context, evaluatorID uint, targetType string, targetID uint) (models.Evaluation, error) {
	evaluation, ok := f.records[ledgerKey(evaluatorID, targetType, targetID)]
	if !ok {
		return models.Evaluation{}, gorm.ErrRecordNotFound
	}
	return evaluation, nil
}

func (f *fakeLedgerRepo) ListByTarget(_ context.Context, targetType string, targetID uint) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	for _, evaluation := range f.records {
		if evaluation.TargetType == targetType && evaluation.TargetID == targetID {
			evaluations = append(evaluations, evaluation)
		}
	}
	return evaluations, nil
}

func (f *fakeLedgerRepo) EvaluatedSubjectIDs(_ context.Context, evaluatorID uint) ([]uint, error) {
	var ids []uint
	for _, evaluation := range f.records {
		if evaluation.EvaluatorID == evaluatorID && evaluation.TargetType == models.TargetSubject {
			ids = append(ids, evaluation.TargetID)
		}
	}
	return ids, nil
}

type fakeEnrollmentRepo struct {
	enrolled map[[2]uint]bool
}

func (f *fakeEnrollmentRepo) Enroll(_ context.Context, studentID, subjectID uint) error {
	if f.enrolled == nil {
		f.enrolled = make(map[[2]uint]bool)
	}
	f.enrolled[[2]uint{studentID, subjectID}] = true
	return nil
}

func (f *fakeEnrollmentRepo) Exists(_ context.Context, studentID, subjectID uint) (bool, error) {
	return f.enrolled[[2]uint{studentID, subjectID}], nil
}

type fakeSubjectRepo struct {
	subjects map[uint]models.Subject
}

func (f *fakeSubjectRepo) List(_ context.Context) ([]models.Subject, error) { return nil, nil }

func (f *fakeSubjectRepo) GetByID(_ context.Context, id uint) (models.Subject, error) {
	subject, ok := f.subjects[id]
	if !ok {
		return models.Subject{}, gorm.ErrRecordNotFound
	}
	return subject, nil
}

func (f *fakeSubjectRepo) Create(_ context.Context, subject *models.Subject) error { return nil }
func (f *fakeSubjectRepo) Update(_ context.Context, subject *models.Subject) error { return nil }
func (f *fakeSubjectRepo) Delete(_ context.Context, id uint) error                 { return nil }

func (f *fakeSubjectRepo) ListByStudent(_ context.Context, studentID uint) ([]models.Subject, error) {
	var subjects []models.Subject
	for _, subject := range f.subjects {
		subjects = append(subjects, subject)
	}
	return subjects, nil
}

type fakeUserRepo struct {
	users map[uint]models.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uint) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]models.User, error) {
	var users []models.User
	for _, user := range f.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Department != nil && user.Department != *filter.Department {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

type fakeFormRepo struct {
	forms map[string]models.EvaluationForm
}

func (f *fakeFormRepo) GetByKey(_ context.Context, ownerKey string) (models.EvaluationForm, error) {
	form, ok := f.forms[ownerKey]
	if !ok {
		return models.EvaluationForm{}, gorm.ErrRecordNotFound
	}
	return form, nil
}

func (f *fakeFormRepo) Save(_ context.Context, ownerKey string, questions datatypes.JSON) (models.EvaluationForm, error) {
	form, ok := f.forms[ownerKey]
	if !ok {
		form = models.EvaluationForm{OwnerKey: ownerKey, Version: 0}
	}
	form.Questions = questions
	form.Version++
	if f.forms == nil {
		f.forms = make(map[string]models.EvaluationForm)
	}
	f.forms[ownerKey] = form
	return form, nil
}

func formWithQuestions(t *testing.T, ownerKey string, texts ...string) models.EvaluationForm {
	t.Helper()
	questions := make([]models.Question, 0, len(texts))
	for _, text := range texts {
		questions = append(questions, models.Question{Text: text})
	}
	encoded, err := models.EncodeQuestions(questions)
	require.NoError(t, err)
	return models.EvaluationForm{OwnerKey: ownerKey, Questions: encoded, Version: 1}
}

type evaluationFixture struct {
	service     EvaluationService
	ledger      *fakeLedgerRepo
	enrollments *fakeEnrollmentRepo
	subjects    *fakeSubjectRepo
}

func newEvaluationFixture(t *testing.T) evaluationFixture {
	t.Helper()

	ledger := newFakeLedgerRepo()
	enrollments := &fakeEnrollmentRepo{enrolled: map[[2]uint]bool{{1, 10}: true}}
	subjects := &fakeSubjectRepo{subjects: map[uint]models.Subject{
		10: {ID: 10, Name: "Algorithms", Code: "CS201", FacultyID: 4},
	}}
	users := &fakeUserRepo{users: map[uint]models.User{
		1: {ID: 1, Role: models.RoleStudent, Department: "CS"},
		3: {ID: 3, Role: models.RoleFaculty, Department: "CS", FirstName: "Grace"},
		4: {ID: 4, Role: models.RoleFaculty, Department: "CS", FirstName: "Alan"},
		7: {ID: 7, Role: models.RoleDean, Department: "CS", FirstName: "Ada"},
	}}
	forms := &fakeFormRepo{forms: map[string]models.EvaluationForm{
		models.SubjectFormKey(10):    formWithQuestions(t, models.SubjectFormKey(10), "Q1", "Q2", "Q3"),
		models.FormKeyFacultyDefault: formWithQuestions(t, models.FormKeyFacultyDefault, "Q1", "Q2"),
		models.FormKeyDeanDefault:    formWithQuestions(t, models.FormKeyDeanDefault, "Q1"),
		models.SubjectFormKey(8):     {OwnerKey: models.SubjectFormKey(8), Version: 1},
	}}

	validate := validator.New(validator.WithRequiredStructEnabled())
	formService := NewFormService(forms, validate, testLogger())
	service := NewEvaluationService(ledger, enrollments, subjects, users, formService, nil, validate, testLogger())

	return evaluationFixture{service: service, ledger: ledger, enrollments: enrollments, subjects: subjects}
}

func TestEvaluationSubmitStudentHappyPath(t *testing.T) {
	fx := newEvaluationFixture(t)

	receipt, err := fx.service.Submit(context.Background(), Identity{ID: 1, Role: models.RoleStudent, Department: "CS"}, dto.SubmitEvaluationRequest{
		TargetType: models.TargetSubject,
		TargetID:   10,
		Scores:     []int{5, 5, 5},
		Comment:    "  <script>alert(1)</script>great course  ",
	})
	require.NoError(t, err)
	require.Equal(t, 100.0, receipt.PercentageScore)
	require.False(t, receipt.Replaced)
	require.Equal(t, int64(1), receipt.CompletedEvaluations)

	stored, err := fx.ledger.GetByEvaluatorAndTarget(context.Background(), 1, models.TargetSubject, 10)
	require.NoError(t, err)
	require.Equal(t, "great course", stored.Comment, "comment must be sanitized and trimmed")
	require.Equal(t, 1, stored.FormVersion)
}

func TestEvaluationSubmitUnauthenticated(t *testing.T) {
	fx := newEvaluationFixture(t)

	_, err := fx.service.Submit(context.Background(), Identity{}, dto.SubmitEvaluationRequest{
		TargetType: models.TargetSubject,
		TargetID:   10,
		Scores:     []int{5, 5, 5},
	})
	require.ErrorIs(t, err, ErrUnauthenticated)
	require.Equal(t, 0, fx.ledger.recordCalls)
}

func TestEvaluationSubmitStudentAgainstDeanForbidden(t *testing.T) {
	fx := newEvaluationFixture(t)

	_, err := fx.service.Submit(context.Background(), Identity{ID: 1, Role: models.RoleStudent, Department: "CS"}, dto.SubmitEvaluationRequest{
		TargetType: models.TargetDean,
		TargetID:   7,
		Scores:     []int{5},
	})
	require.ErrorIs(t, err, ErrForbidden)
	require.Equal(t, 0, fx.ledger.recordCalls, "denied submission must not reach the ledger")
}

func TestEvaluationSubmitUnenrolledStudentForbidden(t *testing.T) {
	fx := newEvaluationFixture(t)

	_, err := fx.service.Submit(context.Background(), Identity{ID: 2, Role: models.RoleStudent, Department: "CS"}, dto.SubmitEvaluationRequest{
		TargetType: models.TargetSubject,
		TargetID:   10,
		Scores:     []int{5, 5, 5},
	})
	require.ErrorIs(t, err, ErrForbidden)
	require.Equal(t, 0, fx.ledger.recordCalls)
}

func TestEvaluationSubmitSelfEvaluationForbidden(t *testing.T) {
	fx := newEvaluationFixture(t)

	_, err := fx.service.Submit(context.Background(), Identity{ID: 4, Role: models.RoleFaculty, Department: "CS"}, dto.SubmitEvaluationRequest{
		TargetType: models.TargetFaculty,
		TargetID:   4,
		Scores:     []int{5, 5},
	})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestEvaluationSubmitIncompleteResponses(t *testing.T) {
	fx := newEvaluationFixture(t)

	_, err := fx.service.Submit(context.Background(), Identity{ID: 1, Role: models.RoleStudent, Department: "CS"}, dto.SubmitEvaluationRequest{
		TargetType: models.TargetSubject,
		TargetID:   10,
		Scores:     []int{5, 5},
	})
	require.ErrorIs(t, err, ErrIncompleteResponse)
	require.Equal(t, 0, fx.ledger.recordCalls)
}

func TestEvaluationSubmitMissingTarget(t *testing.T) {
	fx := newEvaluationFixture(t)

	_, err := fx.service.Submit(context.Background(), Identity{ID: 3, Role: models.RoleFaculty, Department: "CS"}, dto.SubmitEvaluationRequest{
		TargetType: models.TargetFaculty,
		TargetID:   99,
		Scores:     []int{5, 5},
	})
	require.ErrorIs(t, err, ErrTargetNotFound)
}

func TestEvaluationSubmitTargetRoleMismatch(t *testing.T) {
	fx := newEvaluationFixture(t)

	// User 7 is a dean; addressing them as faculty must read as not found.
	_, err := fx.service.Submit(context.Background(), Identity{ID: 3, Role: models.RoleFaculty, Department: "CS"}, dto.SubmitEvaluationRequest{
		TargetType: models.TargetFaculty,
		TargetID:   7,
		Scores:     []int{5, 5},
	})
	require.ErrorIs(t, err, ErrTargetNotFound)
}

func TestEvaluationSubmitResubmissionReplaces(t *testing.T) {
	fx := newEvaluationFixture(t)
	evaluator := Identity{ID: 3, Role: models.RoleFaculty, Department: "CS"}

	first, err := fx.service.Submit(context.Background(), evaluator, dto.SubmitEvaluationRequest{
		TargetType: models.TargetFaculty,
		TargetID:   4,
		Scores:     []int{3, 3},
	})
	require.NoError(t, err)
	require.Equal(t, 60.0, first.PercentageScore)
	require.False(t, first.Replaced)

	second, err := fx.service.Submit(context.Background(), evaluator, dto.SubmitEvaluationRequest{
		TargetType: models.TargetFaculty,
		TargetID:   4,
		Scores:     []int{5, 4},
	})
	require.NoError(t, err)
	require.Equal(t, 90.0, second.PercentageScore)
	require.True(t, second.Replaced)
	require.Equal(t, int64(1), second.CompletedEvaluations, "resubmission must not grow the count")
	require.InDelta(t, 90.0, second.AverageScore, 1e-9)
	require.Len(t, fx.ledger.records, 1)
}

func TestEvaluationSubmitEmptyFormIsMalformed(t *testing.T) {
	fx := newEvaluationFixture(t)
	fx.subjects.subjects[8] = models.Subject{ID: 8, Name: "Seminar", Code: "CS400", FacultyID: 4}
	fx.enrollments.enrolled[[2]uint{1, 8}] = true

	_, err := fx.service.Submit(context.Background(), Identity{ID: 1, Role: models.RoleStudent, Department: "CS"}, dto.SubmitEvaluationRequest{
		TargetType: models.TargetSubject,
		TargetID:   8,
		Scores:     []int{5},
	})
	require.ErrorIs(t, err, ErrMalformedForm)
	require.Equal(t, 0, fx.ledger.recordCalls)
}

func TestEvaluationPendingSubjects(t *testing.T) {
	fx := newEvaluationFixture(t)
	student := Identity{ID: 1, Role: models.RoleStudent, Department: "CS"}

	pending, err := fx.service.PendingSubjects(context.Background(), student)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, uint(10), pending[0].SubjectID)

	_, err = fx.service.Submit(context.Background(), student, dto.SubmitEvaluationRequest{
		TargetType: models.TargetSubject,
		TargetID:   10,
		Scores:     []int{4, 4, 4},
	})
	require.NoError(t, err)

	pending, err = fx.service.PendingSubjects(context.Background(), student)
	require.NoError(t, err)
	require.Empty(t, pending)
}
