package validate_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/jacentio/tether/validate"
)

func TestNew_Empty(t *testing.T) {
	v := validate.New()
	if v.HasErrors() {
		t.Error("expected no errors on a fresh Validate")
	}
	if v.HasFieldErrors() {
		t.Error("expected no field errors on a fresh Validate")
	}
	if len(v.FieldErrors()) != 0 {
		t.Errorf("expected empty field errors, got %v", v.FieldErrors())
	}
	if v.Err() != nil {
		t.Errorf("expected nil Err, got %v", v.Err())
	}
}

func TestZeroValueUsable(t *testing.T) {
	var v validate.Validate
	v.AddFieldError("name", "required")
	if !v.HasFieldError("name") {
		t.Error("expected field error on zero-value Validate")
	}
}

func TestAddFieldError_PreservesOrder(t *testing.T) {
	v := validate.New()
	v.AddFieldError("principalId", "first")
	v.AddFieldError("source", "other")
	v.AddFieldError("principalId", "second")
	v.AddFieldError("principalId", "second")

	want := []string{"first", "second", "second"}
	if got := v.FieldError("principalId"); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := v.Fields(); !reflect.DeepEqual(got, []string{"principalId", "source"}) {
		t.Errorf("unexpected field order %v", got)
	}
	if !v.HasErrors() || !v.HasFieldErrors() {
		t.Error("expected HasErrors and HasFieldErrors")
	}
	if v.HasActionErrors() {
		t.Error("expected no action errors")
	}
}

func TestActionError_CountsAsError(t *testing.T) {
	v := validate.New()
	v.AddActionError("rejected")

	if !v.HasErrors() {
		t.Error("expected HasErrors")
	}
	if v.HasFieldErrors() {
		t.Error("expected no field errors")
	}
	if got := v.ActionErrors(); !reflect.DeepEqual(got, []string{"rejected"}) {
		t.Errorf("unexpected action errors %v", got)
	}
}

func TestFieldErrors_ReturnsCopy(t *testing.T) {
	v := validate.New()
	v.AddFieldError("a", "x")

	errs := v.FieldErrors()
	errs["a"][0] = "mutated"
	errs["b"] = []string{"y"}

	if got := v.FieldError("a"); got[0] != "x" {
		t.Errorf("expected internal state untouched, got %v", got)
	}
	if v.HasFieldError("b") {
		t.Error("expected no error for b")
	}
}

func TestFieldError_Missing(t *testing.T) {
	v := validate.New()
	if got := v.FieldError("missing"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestMerge(t *testing.T) {
	a := validate.New()
	a.AddFieldError("x", "1")

	b := validate.New()
	b.AddActionError("global")
	b.AddFieldError("x", "2")
	b.AddFieldError("y", "3")

	a.Merge(b)
	a.Merge(nil)

	if got := a.FieldError("x"); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("unexpected x errors %v", got)
	}
	if got := a.FieldError("y"); !reflect.DeepEqual(got, []string{"3"}) {
		t.Errorf("unexpected y errors %v", got)
	}
	if !a.HasActionErrors() {
		t.Error("expected merged action error")
	}
}

func TestErr(t *testing.T) {
	v := validate.New()
	v.AddActionError("denied")
	v.AddFieldError("principalId", "主体未设置")

	err := v.Err()
	var verr *validate.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validate.Error, got %T", err)
	}
	want := "tether: validation failed; denied; principalId: 主体未设置"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
	if !reflect.DeepEqual(verr.Fields["principalId"], []string{"主体未设置"}) {
		t.Errorf("unexpected fields %v", verr.Fields)
	}
}
