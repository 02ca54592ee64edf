package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/careerlab/careerlab-os/internal/ai"
	"github.com/careerlab/careerlab-os/internal/models"
	appErrors "github.com/careerlab/careerlab-os/pkg/errors"
)

type chatExamReader interface {
	List(ctx context.Context) ([]models.ExamSummary, error)
}

type chatLeadReader interface {
	RecentSnapshot(ctx context.Context, limit int) ([]models.Lead, error)
}

const chatSnapshotLeads = 5

// ChatRequest carries one user turn. History is client-held; each request
// replays the running transcript.
type ChatRequest struct {
	Message string        `json:"message" validate:"required"`
	History []ChatMessage `json:"history" validate:"max=40,dive"`
}

// ChatMessage is one prior turn in the transcript.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ChatService answers admin questions grounded in a live snapshot of the
// workspace: current exams and the most recent leads are folded into the
// system prompt on every turn.
type ChatService struct {
	exams     chatExamReader
	leads     chatLeadReader
	generator ai.Generator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChatService constructs the chat service.
func NewChatService(exams chatExamReader, leads chatLeadReader, generator ai.Generator, validate *validator.Validate, logger *zap.Logger) *ChatService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{exams: exams, leads: leads, generator: generator, validator: validate, logger: logger}
}

// Chat answers one turn.
func (s *ChatService) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "message is required")
	}

	prompt, err := s.buildPrompt(ctx, req)
	if err != nil {
		return nil, err
	}

	reply, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return &ChatResponse{Reply: strings.TrimSpace(reply)}, nil
}

// buildPrompt folds the workspace snapshot and transcript into a single
// completion prompt. Snapshot queries failing degrades to an uninformed
// but still useful assistant.
func (s *ChatService) buildPrompt(ctx context.Context, req ChatRequest) (string, error) {
	var b strings.Builder
	b.WriteString("You are the operations assistant for Career Lab Consulting, a career-services and placement-training company. Answer concisely using the workspace snapshot below. If the snapshot does not contain the answer, say so rather than guessing.\n\n")

	exams, err := s.exams.List(ctx)
	if err != nil {
		s.logger.Warn("chat snapshot: exams unavailable", zap.Error(err))
	} else {
		b.WriteString("Current exams:\n")
		if len(exams) == 0 {
			b.WriteString("  (none)\n")
		}
		for _, e := range exams {
			fmt.Fprintf(&b, "  - %s (%s, %d questions, %d attempts)\n", e.Title, e.CollegeName, len(e.Questions), e.ResultCount)
		}
	}

	leads, err := s.leads.RecentSnapshot(ctx, chatSnapshotLeads)
	if err != nil {
		s.logger.Warn("chat snapshot: leads unavailable", zap.Error(err))
	} else {
		b.WriteString("Most recent leads:\n")
		if len(leads) == 0 {
			b.WriteString("  (none)\n")
		}
		for _, l := range leads {
			fmt.Fprintf(&b, "  - %s <%s> status=%s score=%d\n", l.Name, l.Email, l.Status, l.Score)
		}
	}

	b.WriteString("\nConversation so far:\n")
	for _, msg := range req.History {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
	}
	fmt.Fprintf(&b, "user: %s\nassistant:", req.Message)
	return b.String(), nil
}
