package service

import (
	"context"

	"garment-tracker/internal/apperror"
	"garment-tracker/internal/events"
	"garment-tracker/internal/model"
	"garment-tracker/pkg/logger"
	"garment-tracker/pkg/validator"
)

// AccountObserver is told about every account change the store confirmed.
type AccountObserver interface {
	AccountChanged(account *model.Account)
}

func actorOf(a *model.Account) events.Actor {
	if a == nil {
		return events.Actor{Name: "system"}
	}
	return events.Actor{ID: a.ID, Name: a.DisplayName, Email: a.Email}
}

func auditID(a *model.Account) string {
	if a == nil {
		return "system"
	}
	return a.ID.String()
}

// publish never fails the operation that produced the event.
func publish(ctx context.Context, p events.Publisher, log logger.Logger, ev events.Event) {
	if err := p.Publish(ctx, ev); err != nil {
		log.Warn("event not delivered",
			logger.String("type", string(ev.Type)),
			logger.String("subject", ev.Subject.String()),
			logger.Error(err))
	}
}

func validate(req interface{}) error {
	if err := validator.Check(req); err != nil {
		return apperror.Invalid("%v", err)
	}
	return nil
}
