package application_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/securedocs/document-service/internal/adapters/security"
	"github.com/securedocs/document-service/internal/application"
	"github.com/securedocs/document-service/internal/domain"
	"github.com/securedocs/document-service/internal/ports"
)

type fixture struct {
	service   *application.Service
	documents *fakeDocuments
	requests  *fakeRequests
	grants    *fakeGrants
	blobs     *fakeBlobs
	views     *fakeViews
	outbox    *eventLog
}

func newFixture() *fixture {
	return newFixtureWithConfig(defaultTestConfig())
}

func defaultTestConfig() application.Config {
	return application.Config{
		MaxUploadBytes:   10 << 20,
		DefaultListLimit: 50,
		MaxListLimit:     200,
	}
}

func newFixtureWithConfig(cfg application.Config) *fixture {
	outbox := &eventLog{}
	grants := &fakeGrants{byKey: map[string]domain.Grant{}}
	documents := &fakeDocuments{byID: map[uuid.UUID]domain.Document{}, outbox: outbox}
	requests := &fakeRequests{byID: map[uuid.UUID]domain.AccessRequest{}, grants: grants, outbox: outbox}
	requests.ownerOf = func(documentID uuid.UUID) uuid.UUID {
		doc, err := documents.GetByID(context.Background(), documentID)
		if err != nil {
			return uuid.Nil
		}
		return doc.OwnerID
	}
	blobs := &fakeBlobs{byName: map[string][]byte{}}
	views := &fakeViews{counts: map[uuid.UUID]int64{}}

	svc := application.NewService(application.Dependencies{
		Config:    cfg,
		Documents: documents,
		Requests:  requests,
		Grants:    grants,
		Blobs:     blobs,
		Vault:     security.NewKeyVault(),
		Views:     views,
	})

	return &fixture{
		service:   svc,
		documents: documents,
		requests:  requests,
		grants:    grants,
		blobs:     blobs,
		views:     views,
		outbox:    outbox,
	}
}

// upload is a test helper that uploads a document as the given owner and
// returns its id.
func (f *fixture) upload(ctx context.Context, owner domain.Actor, level string, content []byte) (uuid.UUID, error) {
	view, err := f.service.UploadDocument(ctx, owner, application.UploadDocumentInput{
		Title:       "quarterly figures",
		FileName:    "q3.pdf",
		ContentType: "application/pdf",
		Category:    "financial",
		AccessLevel: level,
		Content:     content,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return view.DocumentID, nil
}

type eventLog struct {
	mu     sync.Mutex
	events []ports.OutboxEvent
}

func (l *eventLog) append(event ports.OutboxEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) ofType(eventType string) []ports.OutboxEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []ports.OutboxEvent
	for _, event := range l.events {
		if event.EventType == eventType {
			out = append(out, event)
		}
	}
	return out
}

type fakeDocuments struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]domain.Document
	outbox *eventLog

	failCreate error
}

func (f *fakeDocuments) CreateWithOutboxTx(_ context.Context, doc domain.Document, outboxEvent ports.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return f.failCreate
	}
	f.byID[doc.DocumentID] = doc
	f.outbox.append(outboxEvent)
	return nil
}

func (f *fakeDocuments) GetByID(_ context.Context, documentID uuid.UUID) (domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.byID[documentID]
	if !ok {
		return domain.Document{}, domain.ErrNotFound
	}
	return doc, nil
}

func (f *fakeDocuments) ListByOwner(_ context.Context, ownerID uuid.UUID, filter ports.DocumentFilter) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Document
	for _, doc := range f.byID {
		if doc.OwnerID == ownerID && matchesFilter(doc, filter) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *fakeDocuments) Search(_ context.Context, filter ports.DocumentFilter) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Document
	for _, doc := range f.byID {
		if matchesFilter(doc, filter) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *fakeDocuments) DeleteWithOutboxTx(_ context.Context, documentID uuid.UUID, outboxEvent ports.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[documentID]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, documentID)
	f.outbox.append(outboxEvent)
	return nil
}

func matchesFilter(doc domain.Document, filter ports.DocumentFilter) bool {
	if filter.Query != "" {
		q := strings.ToLower(filter.Query)
		if !strings.Contains(strings.ToLower(doc.Title), q) && !strings.Contains(strings.ToLower(doc.Description), q) {
			return false
		}
	}
	if filter.Category != "" && doc.Category != filter.Category {
		return false
	}
	if filter.AccessLevel != "" && doc.AccessLevel != filter.AccessLevel {
		return false
	}
	return true
}

type fakeRequests struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]domain.AccessRequest
	grants *fakeGrants
	outbox *eventLog
	// ownerOf resolves a document's owner for ListPendingByOwner, standing in
	// for the join the real repository does.
	ownerOf func(uuid.UUID) uuid.UUID
}

func (f *fakeRequests) Submit(_ context.Context, params ports.SubmitRequestParams, outboxEvent ports.OutboxEvent) (domain.AccessRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.byID {
		if req.RequesterID == params.RequesterID && req.DocumentID == params.DocumentID && req.Status == domain.RequestPending {
			return domain.AccessRequest{}, domain.ErrDuplicateRequest
		}
	}
	req := domain.AccessRequest{
		RequestID:   params.RequestID,
		RequesterID: params.RequesterID,
		DocumentID:  params.DocumentID,
		Status:      domain.RequestPending,
		Reason:      params.Reason,
		Priority:    params.Priority,
		RequestDate: params.SubmittedAt,
	}
	f.byID[req.RequestID] = req
	f.outbox.append(outboxEvent)
	return req, nil
}

func (f *fakeRequests) GetByID(_ context.Context, requestID uuid.UUID) (domain.AccessRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[requestID]
	if !ok {
		return domain.AccessRequest{}, domain.ErrNotFound
	}
	return req, nil
}

func (f *fakeRequests) ListByRequester(_ context.Context, requesterID uuid.UUID) ([]domain.AccessRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AccessRequest
	for _, req := range f.byID {
		if req.RequesterID == requesterID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (f *fakeRequests) ListPendingByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.AccessRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AccessRequest
	for _, req := range f.byID {
		if req.Status == domain.RequestPending && f.ownerOf != nil && f.ownerOf(req.DocumentID) == ownerID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (f *fakeRequests) ApproveTx(_ context.Context, requestID uuid.UUID, decidedBy uuid.UUID, decidedAt time.Time, grant domain.Grant, outboxEvent ports.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transition(requestID, domain.RequestApproved, decidedBy, decidedAt, &grant, outboxEvent)
}

func (f *fakeRequests) DenyTx(_ context.Context, requestID uuid.UUID, decidedBy uuid.UUID, decidedAt time.Time, outboxEvent ports.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transition(requestID, domain.RequestDenied, decidedBy, decidedAt, nil, outboxEvent)
}

// transition mimics the database compare-and-set: only a pending row moves.
// Re-approving an approved row is a no-op; any other terminal row fails.
// Caller holds the mutex.
func (f *fakeRequests) transition(requestID uuid.UUID, wanted domain.RequestStatus, decidedBy uuid.UUID, decidedAt time.Time, grant *domain.Grant, outboxEvent ports.OutboxEvent) error {
	req, ok := f.byID[requestID]
	if !ok {
		return domain.ErrNotFound
	}
	if req.Status != domain.RequestPending {
		if wanted == domain.RequestApproved && req.Status == wanted {
			return nil
		}
		return domain.ErrInvalidStateTransition
	}
	req.Status = wanted
	req.DecidedAt = &decidedAt
	req.DecidedBy = &decidedBy
	f.byID[requestID] = req
	if grant != nil {
		f.grants.add(*grant)
	}
	f.outbox.append(outboxEvent)
	return nil
}

type fakeGrants struct {
	mu    sync.Mutex
	byKey map[string]domain.Grant

	failList error
}

func grantKey(g domain.Grant) string {
	return fmt.Sprintf("%s|%s|%s", g.SubjectID, g.Capability, g.Scope)
}

func (f *fakeGrants) add(grant domain.Grant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := grantKey(grant)
	if _, ok := f.byKey[key]; ok {
		return
	}
	f.byKey[key] = grant
}

func (f *fakeGrants) Add(_ context.Context, grant domain.Grant) error {
	f.add(grant)
	return nil
}

func (f *fakeGrants) ListForDocument(_ context.Context, subjectID, documentID uuid.UUID) ([]domain.Grant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	var out []domain.Grant
	for _, grant := range f.byKey {
		if grant.SubjectID != subjectID {
			continue
		}
		if grant.Scope == domain.ScopeGlobal || grant.Scope == documentID.String() {
			out = append(out, grant)
		}
	}
	return out, nil
}

func (f *fakeGrants) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byKey)
}

type fakeBlobs struct {
	mu     sync.Mutex
	byName map[string][]byte

	failStore error
	failFetch error
}

func (f *fakeBlobs) Store(_ context.Context, name string, payload []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failStore != nil {
		return "", f.failStore
	}
	stored := make([]byte, len(payload))
	copy(stored, payload)
	f.byName[name] = stored
	return name, nil
}

func (f *fakeBlobs) Fetch(_ context.Context, location string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFetch != nil {
		return nil, f.failFetch
	}
	payload, ok := f.byName[location]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

func (f *fakeBlobs) Delete(_ context.Context, location string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byName, location)
	return nil
}

// tamper flips one byte of the stored ciphertext.
func (f *fakeBlobs) tamper(location string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	payload, ok := f.byName[location]
	if !ok || len(payload) == 0 {
		return false
	}
	payload[len(payload)/2] ^= 0x01
	return true
}

func (f *fakeBlobs) contains(location string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byName[location]
	return ok
}

func (f *fakeBlobs) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byName)
}

type fakeViews struct {
	mu      sync.Mutex
	counts  map[uuid.UUID]int64
	failAll error
}

func (f *fakeViews) Increment(_ context.Context, documentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	f.counts[documentID]++
	return nil
}

func (f *fakeViews) Get(_ context.Context, documentID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return 0, f.failAll
	}
	return f.counts[documentID], nil
}

func (f *fakeViews) GetMany(_ context.Context, documentIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	out := make(map[uuid.UUID]int64, len(documentIDs))
	for _, id := range documentIDs {
		out[id] = f.counts[id]
	}
	return out, nil
}
