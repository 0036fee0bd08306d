package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrTitleRequired — у work request нет заголовка.
var ErrTitleRequired = errors.New("work request title is required")

// WorkRequest — заявка на автоматическую обработку.
//
// Создаётся командой API и больше не меняется: worker только читает её.
// Статуса у заявки нет, прогресс обработки виден только в логах.
type WorkRequest struct {
	// ID — уникальный идентификатор, назначается при создании.
	ID uuid.UUID `json:"id"`

	// Title — краткое описание задачи.
	Title string `json:"title"`

	// Description — подробности для Planner.
	Description string `json:"description"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// NewWorkRequest создаёт заявку с новым ID.
func NewWorkRequest(title, description string) (*WorkRequest, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	return &WorkRequest{
		ID:          uuid.New(),
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now().UTC(),
	}, nil
}
