package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/evalia-go-api/internal/dto"
	"github.com/noah-isme/evalia-go-api/internal/models"
)

func newFormServiceFixture(t *testing.T) FormService {
	t.Helper()
	forms := &fakeFormRepo{forms: map[string]models.EvaluationForm{
		models.FormKeyFacultyDefault: formWithQuestions(t, models.FormKeyFacultyDefault, "Communicates clearly", "Grades fairly"),
	}}
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewFormService(forms, validate, testLogger())
}

func TestFormServiceResolveFacultyDefault(t *testing.T) {
	service := newFormServiceFixture(t)

	form, questions, err := service.Resolve(context.Background(), models.TargetFaculty, 123)
	require.NoError(t, err)
	require.Equal(t, models.FormKeyFacultyDefault, form.OwnerKey)
	require.Len(t, questions, 2)
	require.Equal(t, "Communicates clearly", questions[0].Text)
}

func TestFormServiceResolveMissingForm(t *testing.T) {
	service := newFormServiceFixture(t)

	_, _, err := service.Resolve(context.Background(), models.TargetSubject, 10)
	require.ErrorIs(t, err, ErrFormNotFound)
}

func TestFormServiceResolveUnknownTargetType(t *testing.T) {
	service := newFormServiceFixture(t)

	_, _, err := service.Resolve(context.Background(), "campus", 1)
	require.ErrorIs(t, err, ErrInvalidOwnerKey)
}

func TestFormServiceSaveReplacesQuestionsAndBumpsVersion(t *testing.T) {
	service := newFormServiceFixture(t)
	ctx := context.Background()

	saved, err := service.Save(ctx, models.FormKeyFacultyDefault, dto.FormSaveRequest{
		Questions: []dto.QuestionInput{{Text: "Is available for consultation"}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, saved.Version)
	require.Len(t, saved.Questions, 1, "save must fully replace, not merge")

	resolved, err := service.Get(ctx, models.FormKeyFacultyDefault)
	require.NoError(t, err)
	require.Len(t, resolved.Questions, 1)
	require.Equal(t, "Is available for consultation", resolved.Questions[0].Text)
}

func TestFormServiceSaveRejectsEmptyQuestionList(t *testing.T) {
	service := newFormServiceFixture(t)

	_, err := service.Save(context.Background(), models.FormKeyDeanDefault, dto.FormSaveRequest{})
	require.Error(t, err)
}
