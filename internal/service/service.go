// Package service contains the business logic behind every GraphQL
// operation.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Graph (GraphQL layer)    → decodes arguments, shapes payloads
//	Service (Business layer) → authenticates, validates, checks ownership
//	Repository (Data layer)  → reads/writes the database
//
// Every mutation follows the same contract, in this order:
//
//  1. No caller             → apperror.Unauthorized, nothing else runs
//  2. Input fails its rules → apperror.ValidationErrors, one per field
//  3. Target id unknown     → NOT_FOUND on field "id"
//     Target owned by someone else → FORBIDDEN, record untouched
//  4. Persistence call
//  5. Success               → the stored record
//  6. Anything else         → logged here and returned as a plain error,
//     which the graph layer reports as INTERNAL_ERROR
//
// The caller is passed explicitly as a *model.User (nil for anonymous
// requests) rather than read from the context, so the services have no
// knowledge of HTTP or of how the user was authenticated.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/event-logger/internal/apperror"
	"github.com/sakif/event-logger/internal/model"
	"github.com/sakif/event-logger/internal/repository"
)

// Validator checks struct tags on mutation inputs. *validation.Validator
// implements it.
type Validator interface {
	Struct(s any) error
}

func requireCaller(caller *model.User) error {
	if caller == nil || caller.ID == "" {
		return apperror.Unauthorized()
	}
	return nil
}

// internal logs an unexpected failure and wraps it. Known apperrors pass
// through unlogged: they are answers, not faults.
func internal(ctx context.Context, logger *slog.Logger, op string, err error, attrs ...slog.Attr) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code() != apperror.CodeInternal {
		return err
	}
	args := append([]slog.Attr{slog.String("error", err.Error())}, attrs...)
	logger.LogAttrs(ctx, slog.LevelError, "failed "+op, args...)
	return fmt.Errorf("%s: %w", op, err)
}

// checkLabels verifies that every id names a label the caller owns.
// Duplicates are allowed and collapse to one.
func checkLabels(ctx context.Context, labels repository.EventLabelRepository, caller *model.User, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	found, err := labels.GetManyByID(ctx, ids)
	if err != nil {
		return fmt.Errorf("looking up labels: %w", err)
	}

	owned := make(map[string]bool, len(found))
	for _, l := range found {
		if l.OwnedBy(caller.ID) {
			owned[l.ID] = true
		}
	}
	for _, id := range ids {
		if !owned[id] {
			return apperror.NotFoundField("labelIds", "Event label not found")
		}
	}
	return nil
}
