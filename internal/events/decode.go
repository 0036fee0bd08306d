package events

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrMalformedEvent — payload не удалось разобрать как ожидаемое событие.
var ErrMalformedEvent = errors.New("malformed event")

// DecodeWorkRequestCreated разбирает payload события WorkRequestCreated.
//
// Имена полей сопоставляются без учёта регистра. Пустой CorrelationId
// допустим (его назначает consumer), нулевой WorkRequestId — нет.
func DecodeWorkRequestCreated(body []byte) (WorkRequestCreated, error) {
	var evt WorkRequestCreated
	if err := json.Unmarshal(body, &evt); err != nil {
		return WorkRequestCreated{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	if evt.WorkRequestID == uuid.Nil {
		return WorkRequestCreated{}, fmt.Errorf("%w: WorkRequestId is missing", ErrMalformedEvent)
	}

	return evt, nil
}

// Encode сериализует событие в плоский JSON.
func Encode(evt Event) ([]byte, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return body, nil
}
