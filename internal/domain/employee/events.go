package employee

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hrrecords/internal/requestctx"
)

const (
	EventCreated = "employee.created"
	EventUpdated = "employee.updated"
	EventDeleted = "employee.deleted"
)

type ChangeEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	EmployeeID int64     `json:"employeeId"`
	RequestID  string    `json:"requestId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	Employee   *Employee `json:"employee,omitempty"`
}

func (s *Service) publish(ctx context.Context, eventType string, emp Employee) {
	if s.events == nil {
		return
	}
	event := ChangeEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		EmployeeID: emp.ID,
		RequestID:  requestctx.GetRequestID(ctx),
		OccurredAt: s.now().UTC(),
	}
	if eventType != EventDeleted {
		snapshot := emp
		event.Employee = &snapshot
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal change event failed", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	if err := s.events.Publish(ctx, strconv.FormatInt(emp.ID, 10), payload); err != nil {
		s.logger.Warn("publish change event failed",
			zap.String("event_type", eventType),
			zap.Int64("employee_id", emp.ID),
			zap.Error(err),
		)
	}
}
