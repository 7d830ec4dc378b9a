package dto

import "github.com/noah-isme/evalia-go-api/internal/models"

// QuestionInput is one prompt in a form save request.
type QuestionInput struct {
	Text string `json:"text" validate:"required,max=1000"`
}

// FormSaveRequest fully replaces the question list for an owner key.
type FormSaveRequest struct {
	Questions []QuestionInput `json:"questions" validate:"required,min=1,dive"`
}

// QuestionResponse is one prompt in a resolved form.
type QuestionResponse struct {
	Text string `json:"text"`
}

// FormResponse is a resolved evaluation form.
type FormResponse struct {
	OwnerKey  string             `json:"owner_key"`
	Version   int                `json:"version"`
	Questions []QuestionResponse `json:"questions"`
}

// NewFormResponse maps a form model and its decoded questions.
func NewFormResponse(form models.EvaluationForm, questions []models.Question) FormResponse {
	response := FormResponse{
		OwnerKey:  form.OwnerKey,
		Version:   form.Version,
		Questions: make([]QuestionResponse, 0, len(questions)),
	}
	for _, question := range questions {
		response.Questions = append(response.Questions, QuestionResponse{Text: question.Text})
	}
	return response
}
