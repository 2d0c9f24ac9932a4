package incapacity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kare/internal/domain/auth"
	"kare/internal/domain/notifications"
	"kare/internal/platform/ocr"
	"kare/internal/platform/storage"
)

type Service struct {
	Store     *Store
	Directory *auth.Store
	Notify    *notifications.Service
	Storage   *storage.Service
	OCR       *ocr.Client
}

func NewService(store *Store, directory *auth.Store, notify *notifications.Service, storageSvc *storage.Service, ocrClient *ocr.Client) *Service {
	return &Service{Store: store, Directory: directory, Notify: notify, Storage: storageSvc, OCR: ocrClient}
}

type CreateInput struct {
	EmployeeID string
	Type       string
	StartDate  time.Time
	EndDate    time.Time
	Diagnosis  string
	WageBase   float64
	Document   *DocumentUpload
}

type DocumentUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Create files a new incapacity in reported state. Records self-submitted by
// the employee or their supervisor must carry a supporting document; HR can
// file from paper and attach it later.
func (s *Service) Create(ctx context.Context, actor auth.UserContext, in CreateInput) (Record, error) {
	if !ValidType(in.Type) {
		return Record{}, fmt.Errorf("%w: unknown incapacity type %q", ErrValidation, in.Type)
	}
	if strings.TrimSpace(in.Diagnosis) == "" {
		return Record{}, fmt.Errorf("%w: diagnosis is required", ErrValidation)
	}
	days, err := CountDays(in.StartDate, in.EndDate)
	if err != nil {
		return Record{}, err
	}

	selfSubmitted := actor.RoleName == auth.RoleEmployee || actor.RoleName == auth.RoleSupervisor
	if selfSubmitted && in.Document == nil {
		return Record{}, ErrDocumentRequired
	}

	if in.WageBase <= 0 {
		wage, err := s.Directory.WageBase(ctx, in.EmployeeID)
		if err != nil {
			return Record{}, fmt.Errorf("wage base lookup: %w", err)
		}
		in.WageBase = wage
	}

	rec := Record{
		EmployeeID: in.EmployeeID,
		Type:       in.Type,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		TotalDays:  days,
		Diagnosis:  strings.TrimSpace(in.Diagnosis),
		WageBase:   in.WageBase,
		State:      StateReported,
	}

	if in.Document != nil {
		docID, err := s.saveDocument(ctx, actor.UserID, *in.Document)
		if err != nil {
			return Record{}, err
		}
		rec.DocumentID = docID
	}

	id, err := s.Store.Create(ctx, rec)
	if err != nil {
		return Record{}, err
	}

	s.notifyRole(ctx, auth.RoleHR, notifications.CategoryInfo, "Incapacity reported",
		fmt.Sprintf("A new %s incapacity for %d day(s) is waiting for review.", rec.Type, rec.TotalDays), id)

	return s.Store.Get(ctx, id)
}

// Transition moves a record along one edge of the lifecycle. Owners do not
// come through here; their single edge is Resubmit.
func (s *Service) Transition(ctx context.Context, actor auth.UserContext, id, target, notes string) (Record, error) {
	rec, err := s.Store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}

	fromState := rec.State
	updated, err := RequestTransition(rec, target, actor.RoleName, notes, time.Now().UTC())
	if err != nil {
		return Record{}, err
	}
	updated.ProcessedBy = actor.UserID

	if err := s.Store.UpdateState(ctx, id, fromState, updated); err != nil {
		return Record{}, err
	}

	title, message, category := transitionNotice(updated)
	s.Notify.Notify(ctx, rec.EmployeeID, category, title, message, id)

	return s.Store.Get(ctx, id)
}

// Resubmit is the owner's rejected -> reported edge with the corrected field
// set.
func (s *Service) Resubmit(ctx context.Context, actor auth.UserContext, id string, in ResubmitInput, doc *DocumentUpload) (Record, error) {
	rec, err := s.Store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec.EmployeeID != actor.UserID {
		return Record{}, fmt.Errorf("%w: only the record owner may resubmit", ErrUnauthorized)
	}

	if doc != nil {
		docID, err := s.saveDocument(ctx, actor.UserID, *doc)
		if err != nil {
			return Record{}, err
		}
		in.DocumentID = docID
	}

	updated, err := Resubmit(rec, in, time.Now().UTC())
	if err != nil {
		return Record{}, err
	}

	if err := s.Store.UpdateResubmitted(ctx, id, updated); err != nil {
		return Record{}, err
	}

	s.notifyRole(ctx, auth.RoleHR, notifications.CategoryInfo, "Incapacity resubmitted",
		"A rejected incapacity was corrected and resubmitted for review.", id)

	return s.Store.Get(ctx, id)
}

// List scopes records by role: employees see their own, supervisors their
// area, HR/finance/admin everything.
func (s *Service) List(ctx context.Context, actor auth.UserContext, filter ListFilter) ([]Record, error) {
	switch actor.RoleName {
	case auth.RoleEmployee:
		filter.EmployeeID = actor.UserID
	case auth.RoleSupervisor:
		user, err := s.Directory.GetUser(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		filter.Area = user.Area
	}
	return s.Store.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, actor auth.UserContext, id string) (Record, error) {
	rec, err := s.Store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if actor.RoleName == auth.RoleEmployee && rec.EmployeeID != actor.UserID {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *Service) Stats(ctx context.Context, actor auth.UserContext) (Stats, error) {
	records, err := s.List(ctx, actor, ListFilter{})
	if err != nil {
		return Stats{}, err
	}
	return Summarize(records), nil
}

// AttachDocument stores a file and links it to the record.
func (s *Service) AttachDocument(ctx context.Context, actor auth.UserContext, id string, upload DocumentUpload) (string, error) {
	rec, err := s.Store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if actor.RoleName == auth.RoleEmployee && rec.EmployeeID != actor.UserID {
		return "", ErrNotFound
	}

	docID, err := s.saveDocument(ctx, actor.UserID, upload)
	if err != nil {
		return "", err
	}
	if err := s.Store.UpdateDocument(ctx, id, docID); err != nil {
		return "", err
	}
	return docID, nil
}

// OpenDocument returns the document row and its decrypted bytes.
func (s *Service) OpenDocument(ctx context.Context, actor auth.UserContext, id string) (Document, []byte, error) {
	rec, err := s.Store.Get(ctx, id)
	if err != nil {
		return Document{}, nil, err
	}
	if actor.RoleName == auth.RoleEmployee && rec.EmployeeID != actor.UserID {
		return Document{}, nil, ErrNotFound
	}
	if rec.DocumentID == "" {
		return Document{}, nil, ErrDocumentNotFound
	}

	doc, err := s.Store.GetDocument(ctx, rec.DocumentID)
	if err != nil {
		return Document{}, nil, err
	}
	data, err := s.Storage.Read(doc.StoredPath)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, data, nil
}

// AnalyzeDocument runs the attached certificate through the external OCR
// service. The extraction is advisory input for the reviewer and never
// changes record state.
func (s *Service) AnalyzeDocument(ctx context.Context, actor auth.UserContext, id string) (ocr.Extraction, error) {
	doc, data, err := s.OpenDocument(ctx, actor, id)
	if err != nil {
		return ocr.Extraction{}, err
	}
	return s.OCR.Analyze(ctx, doc.FileName, data)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	rec, err := s.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	// Only records that never entered the payment pipeline can be removed.
	if rec.State != StateReported && rec.State != StateRejected {
		return fmt.Errorf("%w: record in state %s cannot be deleted", ErrValidation, rec.State)
	}
	return s.Store.Delete(ctx, id)
}

func (s *Service) saveDocument(ctx context.Context, uploadedBy string, upload DocumentUpload) (string, error) {
	storedPath, err := s.Storage.Save(upload.FileName, upload.Data)
	if err != nil {
		return "", err
	}
	return s.Store.CreateDocument(ctx, Document{
		FileName:    upload.FileName,
		ContentType: upload.ContentType,
		FileSize:    int64(len(upload.Data)),
		StoredPath:  storedPath,
		Encrypted:   s.Storage.Encrypted(),
		UploadedBy:  uploadedBy,
	})
}

func (s *Service) notifyRole(ctx context.Context, role, category, title, message, incapacityID string) {
	userIDs, err := s.Directory.UsersByRole(ctx, role)
	if err != nil {
		return
	}
	for _, userID := range userIDs {
		s.Notify.Notify(ctx, userID, category, title, message, incapacityID)
	}
}

func transitionNotice(rec Record) (title, message, category string) {
	switch rec.State {
	case StateInReview:
		return "Incapacity in review", "Your incapacity is being reviewed by HR.", notifications.CategoryInfo
	case StateValidated:
		return "Incapacity validated", "Your incapacity was validated and moves on to payment.", notifications.CategorySuccess
	case StateRejected:
		return "Incapacity rejected", "Your incapacity was rejected: " + rec.RejectionNotes, notifications.CategoryError
	case StatePaid:
		return "Incapacity paid", "Your incapacity was marked as paid.", notifications.CategorySuccess
	case StateReconciled:
		return "Incapacity reconciled", "The payment split for your incapacity was reconciled.", notifications.CategoryInfo
	case StateArchived:
		return "Incapacity archived", "Your incapacity was closed and archived.", notifications.CategoryInfo
	default:
		return "Incapacity updated", "Your incapacity changed state to " + rec.State + ".", notifications.CategoryInfo
	}
}
