package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/cuihairu/faultline/internal/errs"
)

func TestFaultCreateSchema(t *testing.T) {
	s := MustBuiltin("fault_create")
	cases := []struct {
		doc string
		ok  bool
	}{
		{`{"title":"A","description":"d","chiefdomId":1}`, true},
		{`{"title":"A","description":"d","chiefdomId":"1","assignedToId":null}`, true},
		{`{"title":"A","description":"d","chiefdomId":1,"status":"closed","faultDate":"01.01.2025","solution":"x"}`, true},
		{`{"description":"d","chiefdomId":1}`, false},
		{`{"title":"","description":"d","chiefdomId":1}`, false},
		{`{"title":"A","description":"d","chiefdomId":1,"status":"resolved"}`, false},
		{`{"title":"A","description":"d","chiefdomId":true}`, false},
		{``, false},
	}
	for _, c := range cases {
		err := s.Validate([]byte(c.doc))
		if (err == nil) != c.ok {
			t.Errorf("Validate(%s) = %v", c.doc, err)
		}
		if err != nil && !errors.Is(err, errs.ErrValidation) {
			t.Errorf("want validation kind, got %v", err)
		}
	}
}

func TestFaultUpdateSchemaAllowsBlankFields(t *testing.T) {
	s := MustBuiltin("fault_update")
	if err := s.Validate([]byte(`{"title":"","description":"","lineInfo":"km 5"}`)); err != nil {
		t.Fatalf("blank fields mean unchanged: %v", err)
	}
	if err := s.Validate([]byte(`{"title":7}`)); err == nil {
		t.Fatal("expected type error")
	}
}

func TestMalformedJSON(t *testing.T) {
	err := MustBuiltin("fault_update").Validate([]byte(`{"title":`))
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestViolationsAreCapped(t *testing.T) {
	s, err := Compile("many", []byte(`{"type":"object","required":["a","b","c","d","e","f","g"]}`))
	if err != nil {
		t.Fatal(err)
	}
	err = s.Validate([]byte(`{}`))
	if err == nil {
		t.Fatal("expected error")
	}
	if n := strings.Count(err.Error(), ";"); n != maxReported-1 {
		t.Fatalf("want %d messages, got %q", maxReported, err)
	}
}

func TestUnknownBuiltin(t *testing.T) {
	if _, err := Builtin("nope"); err == nil {
		t.Fatal("expected error")
	}
}
