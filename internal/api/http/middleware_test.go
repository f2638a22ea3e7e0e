package http

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/ticketledger/ticket-ledger/internal/ledger"
	"github.com/ticketledger/ticket-ledger/internal/repository"
	apperrors "github.com/ticketledger/ticket-ledger/pkg/util/errorutil"
)

func TestToDomainError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"domain passthrough", apperrors.NewForbidden("no"), "FORBIDDEN", fiber.StatusForbidden},
		{"domain wrapping a miss", apperrors.NewInternalError(repository.ErrNotFound), "INTERNAL_ERROR", fiber.StatusInternalServerError},
		{"bad arguments", fmt.Errorf("tx 0: %w", ledger.ErrBadArguments), "INVALID_TRANSACTION", fiber.StatusBadRequest},
		{"read-only tx", ledger.ErrReadOnlyTx, "INVALID_TRANSACTION", fiber.StatusBadRequest},
		{"unknown sender", fmt.Errorf("tx 1: %w", ledger.ErrUnknownAccount), "INVALID_TRANSACTION", fiber.StatusBadRequest},
		{"repository miss", repository.ErrNotFound, "NOT_FOUND", fiber.StatusNotFound},
		{"pgx miss", fmt.Errorf("get ticket: %w", pgx.ErrNoRows), "NOT_FOUND", fiber.StatusNotFound},
		{"unmatched route", fiber.ErrNotFound, "NOT_FOUND", fiber.StatusNotFound},
		{"fiber teapot", fiber.ErrTeapot, "HTTP_ERROR", fiber.StatusTeapot},
		{"anything else", errors.New("disk on fire"), "INTERNAL_ERROR", fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			de := toDomainError(tc.err)
			assert.Equal(t, tc.code, de.Code)
			assert.Equal(t, tc.status, de.HTTPStatus)
		})
	}
}
