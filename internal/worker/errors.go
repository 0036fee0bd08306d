package worker

import (
	"errors"
	"fmt"
)

// Ошибки воркера.
var (
	// ErrWorkRequestNotFound — work request из события нет в БД.
	// Повтор не поможет: сообщение подтверждается и отбрасывается.
	ErrWorkRequestNotFound = errors.New("work request not found")
)

// StageError — ошибка на стадии конвейера. Сообщение возвращается в очередь.
type StageError struct {
	// Stage — стадия, до которой обработка не дошла.
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage возвращает стадию из StageError в цепочке err.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
