package logic

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/cuihairu/faultline/internal/errs"
	"github.com/cuihairu/faultline/internal/ingest"
	repofaults "github.com/cuihairu/faultline/internal/repo/gorm/faults"
	"github.com/cuihairu/faultline/internal/repo/gorm/idempotency"
	faultsvc "github.com/cuihairu/faultline/internal/service/faults"
	"github.com/cuihairu/faultline/internal/validation"
)

var (
	createSchema = validation.MustBuiltin("fault_create")
	updateSchema = validation.MustBuiltin("fault_update")
)

// FaultPayload is a create or update body. JSON is set for application/json
// requests, Form for multipart ones.
type FaultPayload struct {
	JSON  []byte
	Form  map[string]string
	Files []ingest.File
	// IdempotencyKey comes from the Idempotency-Key header.
	IdempotencyKey string
}

// fingerprint identifies the request for Idempotency-Key replay. Seekable file
// bodies are hashed and rewound; any other body counts by name only.
func (p FaultPayload) fingerprint() (string, error) {
	parts := [][]byte{p.JSON}
	keys := make([]string, 0, len(p.Form))
	for k := range p.Form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, []byte(k), []byte(p.Form[k]))
	}
	for _, f := range p.Files {
		sum, err := bodyDigest(f.Body)
		if err != nil {
			return "", errs.Validation("read %s: %v", f.Name, err)
		}
		parts = append(parts, []byte(f.Name), []byte(f.ContentType), sum)
	}
	return idempotency.Hash(parts...), nil
}

func bodyDigest(r io.Reader) ([]byte, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		return nil, nil
	}
	h := sha256.New()
	if _, err := io.Copy(h, rs); err != nil {
		return nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// fields flattens the body into present keys. A JSON null becomes "".
func (p FaultPayload) fields(schema *validation.Schema) (map[string]string, error) {
	if p.JSON == nil {
		if p.Form == nil {
			return map[string]string{}, nil
		}
		return p.Form, nil
	}
	if err := schema.Validate(p.JSON); err != nil {
		return nil, err
	}
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(p.JSON))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, errs.Validation("invalid JSON body: %v", err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch x := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = x
		case json.Number:
			out[k] = x.String()
		case bool:
			out[k] = strconv.FormatBool(x)
		default:
			return nil, errs.Validation("field %s must be a scalar", k)
		}
	}
	return out, nil
}

// parseID reads an id field. Empty and "null" are present but unset.
func parseID(fields map[string]string, key string) (id *uint, present bool, err error) {
	v, ok := fields[key]
	if !ok {
		return nil, false, nil
	}
	v = strings.TrimSpace(v)
	if v == "" || v == "null" {
		return nil, true, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil || n == 0 {
		return nil, true, errs.Validation("%s must be a positive integer", key)
	}
	u := uint(n)
	return &u, true, nil
}

func optString(fields map[string]string, key string) *string {
	v, ok := fields[key]
	if !ok {
		return nil
	}
	return &v
}

func closureFrom(fields map[string]string) repofaults.Closure {
	return repofaults.Closure{
		FaultDate:        fields["faultDate"],
		FaultTime:        fields["faultTime"],
		ReporterName:     fields["reporterName"],
		LineInfo:         fields["lineInfo"],
		ClosureFaultInfo: fields["closureFaultInfo"],
		Solution:         fields["solution"],
		WorkingPersonnel: fields["workingPersonnel"],
		TCDDPersonnel:    fields["tcddPersonnel"],
	}
}

func editsFrom(fields map[string]string) (faultsvc.Edits, error) {
	e := faultsvc.Edits{
		Title:       optString(fields, "title"),
		Description: optString(fields, "description"),
	}
	chiefdom, present, err := parseID(fields, "chiefdomId")
	if err != nil {
		return e, err
	}
	if present && chiefdom == nil {
		return e, errs.Validation("chiefdomId cannot be cleared")
	}
	e.ChiefdomID = chiefdom
	assignee, present, err := parseID(fields, "assignedToId")
	if err != nil {
		return e, err
	}
	e.AssignedToID = assignee
	e.ClearAssignee = present && assignee == nil
	return e, nil
}

func createInput(p FaultPayload) (faultsvc.CreateInput, error) {
	fields, err := p.fields(createSchema)
	if err != nil {
		return faultsvc.CreateInput{}, err
	}
	in := faultsvc.CreateInput{
		Title:       fields["title"],
		Description: fields["description"],
		Status:      fields["status"],
		Closure:     closureFrom(fields),
		Images:      p.Files,
	}
	if id, _, err := parseID(fields, "chiefdomId"); err != nil {
		return in, err
	} else if id != nil {
		in.ChiefdomID = *id
	}
	if id, _, err := parseID(fields, "reportedById"); err != nil {
		return in, err
	} else if id != nil {
		in.ReportedByID = *id
	}
	if in.AssignedToID, _, err = parseID(fields, "assignedToId"); err != nil {
		return in, err
	}
	return in, nil
}

func updateInput(p FaultPayload) (faultsvc.UpdateInput, error) {
	fields, err := p.fields(updateSchema)
	if err != nil {
		return faultsvc.UpdateInput{}, err
	}
	edits, err := editsFrom(fields)
	if err != nil {
		return faultsvc.UpdateInput{}, err
	}
	return faultsvc.UpdateInput{
		Status:  fields["status"],
		Closure: closureFrom(fields),
		Edits:   edits,
		Images:  p.Files,
	}, nil
}
