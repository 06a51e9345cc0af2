// Package faults owns the fault lifecycle: creation, the open to closed
// transition, partial edits, deletion and image attachment. Every entry point
// resolves the caller's scope through access.ScopeFilter before touching data.
package faults

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/cuihairu/faultline/internal/access"
	"github.com/cuihairu/faultline/internal/errs"
	"github.com/cuihairu/faultline/internal/events"
	"github.com/cuihairu/faultline/internal/ingest"
	repofaults "github.com/cuihairu/faultline/internal/repo/gorm/faults"
	"github.com/cuihairu/faultline/internal/telemetry"
)

// Activity actions recorded on the audit trail.
const (
	ActionCreated      = "created"
	ActionUpdated      = "updated"
	ActionClosed       = "closed"
	ActionImageDeleted = "image_deleted"
)

// Images is the part of the ingestion pipeline the service depends on.
type Images interface {
	Ingest(ctx context.Context, files []ingest.File) ([]ingest.Result, error)
	Remove(ctx context.Context, urls ...string) error
	MaxFiles() int
}

type Service struct {
	repo    *repofaults.Repo
	images  Images
	events  events.Publisher
	metrics *telemetry.FaultMetrics
	now     func() time.Time
}

func NewService(repo *repofaults.Repo, images Images, pub events.Publisher, metrics *telemetry.FaultMetrics) *Service {
	if pub == nil {
		pub = events.NewNoop()
	}
	return &Service{repo: repo, images: images, events: pub, metrics: metrics, now: time.Now}
}

// Edits are the non-status, non-closure fields of a fault. Nil means unchanged.
type Edits struct {
	Title        *string
	Description  *string
	ChiefdomID   *uint
	AssignedToID *uint
	// ClearAssignee unassigns the fault; it wins over AssignedToID.
	ClearAssignee bool
}

func (e Edits) empty() bool {
	return e.Title == nil && e.Description == nil && e.ChiefdomID == nil && e.AssignedToID == nil && !e.ClearAssignee
}

type CreateInput struct {
	Title        string
	Description  string
	ChiefdomID   uint
	ReportedByID uint // honoured for admins only
	AssignedToID *uint
	Status       string
	Closure      repofaults.Closure
	Images       []ingest.File
}

type CloseInput struct {
	Closure repofaults.Closure
	Edits   Edits
	Images  []ingest.File
}

type UpdateInput struct {
	Status  string
	Closure repofaults.Closure
	Edits   Edits
	Images  []ingest.File
}

type ListInput struct {
	View         access.View
	ChiefdomID   *uint
	ReportedByID *uint
	Status       string
}

// Outcome is a mutated fault plus the per-file ingestion report.
type Outcome struct {
	Fault    *repofaults.Fault
	Images   []ingest.Result
	Ingested int
}

func identity(ctx context.Context) (access.Identity, error) {
	id, ok := access.IdentityFrom(ctx)
	if !ok {
		return access.Identity{}, errs.Unauthenticated()
	}
	return id, nil
}

// viewFor maps a fault's state to the dashboard it appears on.
func viewFor(f *repofaults.Fault) access.View {
	if f.Status == repofaults.StatusOpen {
		return access.ViewActive
	}
	return access.ViewHistory
}

// load returns the fault when the caller may see it. Faults outside the
// caller's scope are reported as missing.
func (s *Service) load(ctx context.Context, ident access.Identity, id uint) (*repofaults.Fault, error) {
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	filter, err := access.ScopeFilter(ident, viewFor(f))
	if err != nil {
		return nil, err
	}
	if !filter.Allows(f.ChiefdomID, f.ReportedByID) {
		return nil, errs.NotFound("fault", id)
	}
	return f, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*repofaults.Fault, error) {
	ident, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, ident, id)
}

// List applies the caller's scope first, then narrows it with the explicit query.
func (s *Service) List(ctx context.Context, in ListInput) ([]*repofaults.Fault, error) {
	ident, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	view := in.View
	if view == "" {
		view = access.ViewAll
	}
	scope, err := access.ScopeFilter(ident, view)
	if err != nil {
		return nil, err
	}
	narrowed, ok := scope.Narrow(in.ChiefdomID, in.ReportedByID)
	if !ok {
		return []*repofaults.Fault{}, nil
	}
	status, err := normalizeStatus(in.Status)
	if err != nil {
		return nil, err
	}
	switch view {
	case access.ViewActive:
		if status == repofaults.StatusClosed {
			return []*repofaults.Fault{}, nil
		}
		status = repofaults.StatusOpen
	case access.ViewHistory:
		if status == repofaults.StatusOpen {
			return []*repofaults.Fault{}, nil
		}
		status = repofaults.StatusClosed
	}
	list, err := s.repo.List(ctx, repofaults.Filter{
		ChiefdomID:   narrowed.ChiefdomID,
		ReportedByID: narrowed.ReportedByID,
		Status:       status,
	})
	if err != nil {
		return nil, err
	}
	if view == access.ViewHistory {
		SortHistory(list)
	}
	return list, nil
}

// Create validates and stores a new fault. Without an explicit closed status
// the fault starts open and any closure fields are discarded.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Outcome, error) {
	ident, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	var missing []string
	if in.Title == "" {
		missing = append(missing, "title")
	}
	if in.Description == "" {
		missing = append(missing, "description")
	}
	if in.ChiefdomID == 0 {
		missing = append(missing, "chiefdomId")
	}
	if len(missing) > 0 {
		return nil, errs.Validation("missing required field(s): %s", strings.Join(missing, ", "))
	}
	status, err := normalizeStatus(in.Status)
	if err != nil {
		return nil, err
	}
	closure := repofaults.Closure{}
	if status == repofaults.StatusClosed {
		closure = trimClosure(in.Closure)
		if err := requireClosure(closure); err != nil {
			return nil, err
		}
	} else {
		status = repofaults.StatusOpen
	}
	if err := s.checkImageCount(in.Images); err != nil {
		return nil, err
	}

	reporter := ident.UserID
	if in.ReportedByID != 0 && in.ReportedByID != reporter {
		if !ident.IsAdmin() {
			return nil, errs.Forbidden("only admins may report on behalf of another user")
		}
		reporter = in.ReportedByID
	}
	view := access.ViewActive
	if status == repofaults.StatusClosed {
		view = access.ViewHistory
	}
	scope, err := access.ScopeFilter(ident, view)
	if err != nil {
		return nil, err
	}
	if !scope.Allows(in.ChiefdomID, reporter) {
		return nil, errs.Forbidden("cannot report faults for chiefdom %d", in.ChiefdomID)
	}
	var assignee uint
	if in.AssignedToID != nil {
		assignee = *in.AssignedToID
	}
	if err := s.repo.CheckReferences(ctx, in.ChiefdomID, reporter, assignee); err != nil {
		return nil, err
	}

	results, err := s.ingest(ctx, in.Images)
	if err != nil {
		return nil, err
	}
	urls := ingest.URLs(results)
	f := &repofaults.Fault{
		Title:        in.Title,
		Description:  in.Description,
		Status:       status,
		ReportedByID: reporter,
		AssignedToID: nonZero(in.AssignedToID),
		ChiefdomID:   in.ChiefdomID,
		Closure:      closure,
	}
	act := s.activity(ident, ActionCreated, map[string]any{"status": status, "images": len(urls)})
	if err := s.repo.Create(ctx, f, urls, act); err != nil {
		s.discard(ctx, urls)
		return nil, err
	}
	s.metrics.FaultOp(ctx, ActionCreated, telemetry.FaultStatusKey.String(status), telemetry.UserRoleKey.String(string(ident.Role)))
	s.publish(ctx, events.FaultCreated, f, ident, map[string]any{"status": status})
	return s.outcome(ctx, f.ID, results)
}

// TransitionToClosed validates the closure payload before reading anything,
// then merges the non-empty closure fields, appends images and sets the status.
func (s *Service) TransitionToClosed(ctx context.Context, id uint, in CloseInput) (*Outcome, error) {
	ident, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	closure := trimClosure(in.Closure)
	if err := requireClosure(closure); err != nil {
		return nil, err
	}
	if err := s.checkImageCount(in.Images); err != nil {
		return nil, err
	}
	f, err := s.load(ctx, ident, id)
	if err != nil {
		return nil, err
	}
	updates, err := s.editColumns(ctx, ident, f, in.Edits)
	if err != nil {
		return nil, err
	}
	for k, v := range closure.Columns() {
		updates[k] = v
	}
	updates["status"] = repofaults.StatusClosed
	return s.apply(ctx, ident, f, ActionClosed, updates, in.Images)
}

// UpdateFaultFields merges a partial edit. A closed status routes to
// TransitionToClosed; reopening a closed fault is rejected.
func (s *Service) UpdateFaultFields(ctx context.Context, id uint, in UpdateInput) (*Outcome, error) {
	status, err := normalizeStatus(in.Status)
	if err != nil {
		return nil, err
	}
	if status == repofaults.StatusClosed {
		return s.TransitionToClosed(ctx, id, CloseInput{Closure: in.Closure, Edits: in.Edits, Images: in.Images})
	}
	ident, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	closure := trimClosure(in.Closure)
	if err := checkClosureFormats(closure); err != nil {
		return nil, err
	}
	if err := s.checkImageCount(in.Images); err != nil {
		return nil, err
	}
	f, err := s.load(ctx, ident, id)
	if err != nil {
		return nil, err
	}
	if status == repofaults.StatusOpen && f.Status != repofaults.StatusOpen {
		return nil, errs.Validation("a closed fault cannot be reopened")
	}
	updates, err := s.editColumns(ctx, ident, f, in.Edits)
	if err != nil {
		return nil, err
	}
	for k, v := range closure.Columns() {
		updates[k] = v
	}
	return s.apply(ctx, ident, f, ActionUpdated, updates, in.Images)
}

// editColumns validates Edits against the caller's scope and returns the column map.
// Blank title or description and a zero chiefdom keep the stored value, the same merge
// rule Closure.Columns applies to closure fields.
func (s *Service) editColumns(ctx context.Context, ident access.Identity, f *repofaults.Fault, e Edits) (map[string]any, error) {
	updates := map[string]any{}
	if e.empty() {
		return updates, nil
	}
	if e.Title != nil {
		if t := strings.TrimSpace(*e.Title); t != "" {
			updates["title"] = t
		}
	}
	if e.Description != nil {
		if d := strings.TrimSpace(*e.Description); d != "" {
			updates["description"] = d
		}
	}
	var chiefdom, assignee uint
	if e.ChiefdomID != nil && *e.ChiefdomID != 0 && *e.ChiefdomID != f.ChiefdomID {
		scope, err := access.ScopeFilter(ident, viewFor(f))
		if err != nil {
			return nil, err
		}
		if !scope.Allows(*e.ChiefdomID, f.ReportedByID) {
			return nil, errs.Forbidden("cannot move fault to chiefdom %d", *e.ChiefdomID)
		}
		chiefdom = *e.ChiefdomID
		updates["chiefdom_id"] = chiefdom
	}
	switch {
	case e.ClearAssignee:
		updates["assigned_to_id"] = nil
	case e.AssignedToID != nil && *e.AssignedToID != 0:
		assignee = *e.AssignedToID
		updates["assigned_to_id"] = assignee
	}
	if chiefdom != 0 || assignee != 0 {
		if err := s.repo.CheckReferences(ctx, chiefdom, assignee); err != nil {
			return nil, err
		}
	}
	return updates, nil
}

// apply ingests images, writes updates and the audit entry in one transaction
// and removes the fresh files again if the write fails.
func (s *Service) apply(ctx context.Context, ident access.Identity, f *repofaults.Fault, action string, updates map[string]any, files []ingest.File) (*Outcome, error) {
	results, err := s.ingest(ctx, files)
	if err != nil {
		return nil, err
	}
	urls := ingest.URLs(results)
	changes := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		changes[k] = v
	}
	if len(urls) > 0 {
		changes["images_added"] = len(urls)
	}
	act := s.activity(ident, action, changes)
	if err := s.repo.Update(ctx, f.ID, updates, urls, act); err != nil {
		s.discard(ctx, urls)
		return nil, err
	}
	s.metrics.FaultOp(ctx, action, telemetry.UserRoleKey.String(string(ident.Role)))
	evt := events.FaultUpdated
	if action == ActionClosed {
		evt = events.FaultClosed
	}
	s.publish(ctx, evt, f, ident, changes)
	return s.outcome(ctx, f.ID, results)
}

// DeleteFault removes the fault with its images and audit trail. Stored files
// are removed best-effort; a file that cannot be removed is logged and left
// for prune-uploads.
func (s *Service) DeleteFault(ctx context.Context, id uint) error {
	ident, err := identity(ctx)
	if err != nil {
		return err
	}
	f, err := s.load(ctx, ident, id)
	if err != nil {
		return err
	}
	err = s.repo.Delete(ctx, id, func(imgs []repofaults.Image) error {
		for _, img := range imgs {
			if err := s.images.Remove(ctx, img.URL); err != nil {
				logx.WithContext(ctx).Errorf("delete fault %d: remove image file %s: %v", id, img.URL, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.metrics.FaultOp(ctx, "deleted", telemetry.UserRoleKey.String(string(ident.Role)))
	s.publish(ctx, events.FaultDeleted, f, ident, map[string]any{"images": len(f.Images)})
	return nil
}

// DeleteFaultImage removes one image. The file is deleted before the record is
// committed, so a failed file removal keeps the record.
func (s *Service) DeleteFaultImage(ctx context.Context, imageID uint) error {
	ident, err := identity(ctx)
	if err != nil {
		return err
	}
	img, err := s.repo.GetImage(ctx, imageID)
	if err != nil {
		return err
	}
	f, err := s.load(ctx, ident, img.FaultID)
	if err != nil {
		return errs.NotFound("image", imageID)
	}
	act := s.activity(ident, ActionImageDeleted, map[string]any{"imageId": imageID, "url": img.URL})
	err = s.repo.DeleteImage(ctx, imageID, act, func(deleted repofaults.Image) error {
		if err := s.images.Remove(ctx, deleted.URL); err != nil {
			return errs.Internal(err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.FaultImageDeleted, f, ident, map[string]any{"imageId": imageID})
	return nil
}

func (s *Service) Activity(ctx context.Context, id uint) ([]*repofaults.Activity, error) {
	ident, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, ident, id); err != nil {
		return nil, err
	}
	return s.repo.ListActivity(ctx, id)
}

func (s *Service) checkImageCount(files []ingest.File) error {
	if n := len(files); n > 0 && s.images != nil && n > s.images.MaxFiles() {
		return errs.Validation("at most %d images per request, got %d", s.images.MaxFiles(), n)
	}
	return nil
}

func (s *Service) ingest(ctx context.Context, files []ingest.File) ([]ingest.Result, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if s.images == nil {
		return nil, errs.Validation("image uploads are not configured")
	}
	ctx, span := telemetry.Tracer().Start(ctx, "faults.ingest")
	defer span.End()
	results, err := s.images.Ingest(ctx, files)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("images.requested", len(files)), attribute.Int("images.stored", len(ingest.URLs(results))))
	for _, r := range results {
		if r.Err != nil {
			logx.WithContext(ctx).Infof("image %q not ingested: %v", r.Name, r.Err)
		}
	}
	return results, nil
}

func (s *Service) discard(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	if err := s.images.Remove(context.WithoutCancel(ctx), urls...); err != nil {
		logx.WithContext(ctx).Errorf("remove images after failed write: %v", err)
	}
}

func (s *Service) outcome(ctx context.Context, id uint, results []ingest.Result) (*Outcome, error) {
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Outcome{Fault: f, Images: results, Ingested: len(ingest.URLs(results))}, nil
}

func (s *Service) activity(ident access.Identity, action string, changes map[string]any) *repofaults.Activity {
	b, err := json.Marshal(changes)
	if err != nil {
		b = []byte("{}")
	}
	return &repofaults.Activity{ActorID: ident.UserID, Action: action, Changes: datatypes.JSON(b)}
}

// publish runs after commit. Failures are logged; the change stands.
func (s *Service) publish(ctx context.Context, typ string, f *repofaults.Fault, ident access.Identity, data map[string]any) {
	evt := events.Event{Type: typ, FaultID: f.ID, ActorID: ident.UserID, ChiefdomID: f.ChiefdomID, At: s.now().UTC(), Data: data}
	if err := s.events.Publish(context.WithoutCancel(ctx), evt); err != nil {
		logx.WithContext(ctx).Errorf("publish %s for fault %d: %v", typ, f.ID, err)
	}
}

func nonZero(p *uint) *uint {
	if p == nil || *p == 0 {
		return nil
	}
	v := *p
	return &v
}
