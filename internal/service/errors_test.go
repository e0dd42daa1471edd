package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pathik-bd/pathik-api/internal/model"
	"github.com/pathik-bd/pathik-api/internal/store"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want func(error) bool
	}{
		{"nil", nil, func(err error) bool { return err == nil }},
		{"field error", &model.FieldError{Field: "amount", Reason: "must be greater than zero"}, func(err error) bool {
			var ve *ValidationError
			return errors.As(err, &ve) && ve.Field == "amount"
		}},
		{"tour not found", store.ErrTourNotFound, func(err error) bool { return errors.Is(err, ErrNotFound) }},
		{"wrapped user not found", fmt.Errorf("load: %w", store.ErrUserNotFound), func(err error) bool { return errors.Is(err, ErrNotFound) }},
		{"not pending", store.ErrNotPending, func(err error) bool { return errors.Is(err, ErrAlreadyProcessed) }},
		{"already converted", store.ErrAlreadyConverted, func(err error) bool { return errors.Is(err, ErrAlreadyProcessed) }},
		{"forbidden passes", ErrForbidden, func(err error) bool { return err == ErrForbidden }},
		{"driver failure", errBoom, func(err error) bool {
			var pe *PersistenceError
			return errors.As(err, &pe) && pe.Op == "op" && errors.Is(err, errBoom)
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := translate("op", tc.in); !tc.want(got) {
				t.Fatalf("translate(%v) = %v", tc.in, got)
			}
		})
	}
}
