// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package validation

import (
	"strings"
	"testing"
)

type contactFixture struct {
	Name  string `validate:"required"`
	Email string `validate:"required,email"`
	Role  string `validate:"oneof=oncall engineering management"`
}

func TestValidateStructPasses(t *testing.T) {
	t.Parallel()

	c := contactFixture{Name: "Ops Team", Email: "ops@example.com", Role: "oncall"}
	if err := ValidateStruct(&c); err != nil {
		t.Fatalf("expected valid struct, got: %v", err)
	}
}

func TestValidateStructCollectsAllFailures(t *testing.T) {
	t.Parallel()

	c := contactFixture{Name: "", Email: "not-an-email", Role: "bystander"}
	err := ValidateStruct(&c)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if len(err.Errors()) != 3 {
		t.Fatalf("expected 3 field errors, got %d: %v", len(err.Errors()), err)
	}

	msg := err.Error()
	for _, want := range []string{"Name is required", "Email must be a valid email address", "Role must be one of"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected message to contain %q, got: %s", want, msg)
		}
	}
}

func TestTranslateMinMax(t *testing.T) {
	t.Parallel()

	type bounds struct {
		Batch int    `validate:"gte=1,lte=1000"`
		Key   string `validate:"min=16"`
	}

	err := ValidateStruct(&bounds{Batch: 0, Key: "short"})
	if err == nil {
		t.Fatal("expected validation errors")
	}

	msg := err.Error()
	if !strings.Contains(msg, "Batch must be greater than or equal to 1") {
		t.Errorf("unexpected gte message: %s", msg)
	}
	if !strings.Contains(msg, "Key must be at least 16 characters") {
		t.Errorf("unexpected min message: %s", msg)
	}
}
