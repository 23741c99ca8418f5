package application_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/securedocs/document-service/internal/application"
	"github.com/securedocs/document-service/internal/domain"
)

func TestUploadThenOwnerViewAndDownload(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	owner := domain.Actor{ID: uuid.New()}
	plaintext := []byte("the payroll numbers nobody should see")

	docID, err := f.upload(ctx, owner, "private", plaintext)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	// Stored blob must be ciphertext, never the plaintext.
	doc, err := f.documents.GetByID(ctx, docID)
	if err != nil {
		t.Fatalf("stored document missing: %v", err)
	}
	stored, err := f.blobs.Fetch(ctx, doc.PayloadPath)
	if err != nil {
		t.Fatalf("stored blob missing: %v", err)
	}
	if bytes.Contains(stored, plaintext) {
		t.Fatalf("blob store received plaintext")
	}

	view, err := f.service.ViewDocument(ctx, owner, docID)
	if err != nil {
		t.Fatalf("owner view failed: %v", err)
	}
	if !bytes.Equal(view.Plaintext, plaintext) {
		t.Fatalf("view returned wrong plaintext")
	}

	download, err := f.service.DownloadDocument(ctx, owner, docID)
	if err != nil {
		t.Fatalf("owner download failed: %v", err)
	}
	if !bytes.Equal(download.Plaintext, plaintext) {
		t.Fatalf("download returned wrong plaintext")
	}

	// One view was counted; the download was not.
	meta, err := f.service.GetDocument(ctx, owner, docID)
	if err != nil {
		t.Fatalf("get document failed: %v", err)
	}
	if meta.ViewCount != 1 {
		t.Fatalf("expected view count 1, got %d", meta.ViewCount)
	}

	uploaded := f.outbox.ofType(domain.EventDocumentUploaded)
	if len(uploaded) != 1 {
		t.Fatalf("expected one uploaded event, got %d", len(uploaded))
	}
}

func TestUploadValidation(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	owner := domain.Actor{ID: uuid.New()}

	if _, err := f.service.UploadDocument(ctx, owner, application.UploadDocumentInput{
		Title: "no content", FileName: "x.txt",
	}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty upload should fail validation, got %v", err)
	}

	if _, err := f.service.UploadDocument(ctx, owner, application.UploadDocumentInput{
		Title: "bad tier", FileName: "x.txt", AccessLevel: "secret", Content: []byte("x"),
	}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("unknown access level should fail validation, got %v", err)
	}

	big := make([]byte, defaultTestConfig().MaxUploadBytes+1)
	if _, err := f.service.UploadDocument(ctx, owner, application.UploadDocumentInput{
		Title: "too big", FileName: "x.bin", Content: big,
	}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("oversized upload should fail validation, got %v", err)
	}

	if _, err := f.service.UploadDocument(ctx, domain.Actor{}, application.UploadDocumentInput{
		Title: "anon", FileName: "x.txt", Content: []byte("x"),
	}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("anonymous upload should be unauthorized, got %v", err)
	}
}

func TestUploadRollsBackBlobOnCommitFailure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.documents.failCreate = errors.New("connection reset")

	if _, err := f.upload(ctx, domain.Actor{ID: uuid.New()}, "private", []byte("doomed")); err == nil {
		t.Fatalf("expected upload failure")
	}
	if f.blobs.size() != 0 {
		t.Fatalf("blob should have been rolled back after commit failure")
	}
}

func TestPrivateDocumentAccessWorkflow(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	owner := domain.Actor{ID: uuid.New()}
	requester := domain.Actor{ID: uuid.New()}
	stranger := domain.Actor{ID: uuid.New()}
	plaintext := []byte("board minutes")

	docID, err := f.upload(ctx, owner, "private", plaintext)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if _, err := f.service.ViewDocument(ctx, requester, docID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("ungranted view should be denied, got %v", err)
	}

	req, err := f.service.SubmitAccessRequest(ctx, requester, application.SubmitAccessRequestInput{
		DocumentID: docID,
		Reason:     "audit prep",
		Priority:   "high",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if req.Status != domain.RequestPending || req.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected request state: %+v", req)
	}

	// A second submission while one is pending is rejected.
	if _, err := f.service.SubmitAccessRequest(ctx, requester, application.SubmitAccessRequestInput{
		DocumentID: docID,
	}); !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Fatalf("duplicate pending submit should fail, got %v", err)
	}

	// Only the owner or a superuser decides.
	if err := f.service.ApproveAccessRequest(ctx, stranger, req.RequestID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("stranger approve should be denied, got %v", err)
	}
	if err := f.service.ApproveAccessRequest(ctx, requester, req.RequestID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("self approve should be denied, got %v", err)
	}

	if err := f.service.ApproveAccessRequest(ctx, owner, req.RequestID); err != nil {
		t.Fatalf("owner approve failed: %v", err)
	}

	content, err := f.service.ViewDocument(ctx, requester, docID)
	if err != nil {
		t.Fatalf("granted view failed: %v", err)
	}
	if !bytes.Equal(content.Plaintext, plaintext) {
		t.Fatalf("granted view returned wrong plaintext")
	}

	// The grant is document-scoped: another private document stays closed.
	otherID, err := f.upload(ctx, owner, "private", []byte("other"))
	if err != nil {
		t.Fatalf("second upload failed: %v", err)
	}
	if _, err := f.service.ViewDocument(ctx, requester, otherID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("grant should not leak to other documents, got %v", err)
	}

	// Approving again is a no-op and produces no second grant.
	if err := f.service.ApproveAccessRequest(ctx, owner, req.RequestID); err != nil {
		t.Fatalf("re-approve should be a no-op, got %v", err)
	}
	if f.grants.count() != 1 {
		t.Fatalf("expected exactly one grant, got %d", f.grants.count())
	}

	// Denying an approved request fails.
	if err := f.service.DenyAccessRequest(ctx, owner, req.RequestID); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("deny after approve should fail, got %v", err)
	}

	if len(f.outbox.ofType(domain.EventAccessRequestSubmitted)) != 1 {
		t.Fatalf("expected one submitted event")
	}
	if len(f.outbox.ofType(domain.EventAccessRequestApproved)) != 1 {
		t.Fatalf("expected one approved event")
	}
}

func TestSuperuserDecidesButDoesNotRead(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	owner := domain.Actor{ID: uuid.New()}
	requester := domain.Actor{ID: uuid.New()}
	admin := domain.Actor{ID: uuid.New(), Role: "admin", Superuser: true}

	docID, err := f.upload(ctx, owner, "restricted", []byte("restricted content"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	req, err := f.service.SubmitAccessRequest(ctx, requester, application.SubmitAccessRequestInput{DocumentID: docID})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := f.service.ApproveAccessRequest(ctx, admin, req.RequestID); err != nil {
		t.Fatalf("superuser approve failed: %v", err)
	}

	if _, err := f.service.ViewDocument(ctx, requester, docID); err != nil {
		t.Fatalf("granted view failed: %v", err)
	}
	// Superuser status authorizes decisions, not reads.
	if _, err := f.service.ViewDocument(ctx, admin, docID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("superuser read without grant should be denied, got %v", err)
	}
}

func TestSubmitAccessRequestGuards(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	owner := domain.Actor{ID: uuid.New()}
	requester := domain.Actor{ID: uuid.New()}

	privateID, err := f.upload(ctx, owner, "private", []byte("p"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	publicID, err := f.upload(ctx, owner, "public", []byte("q"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if _, err := f.service.SubmitAccessRequest(ctx, owner, application.SubmitAccessRequestInput{DocumentID: privateID}); !errors.Is(err, domain.ErrAlreadyHasAccess) {
		t.Fatalf("owner submit should report existing access, got %v", err)
	}
	if _, err := f.service.SubmitAccessRequest(ctx, requester, application.SubmitAccessRequestInput{DocumentID: publicID}); !errors.Is(err, domain.ErrAlreadyHasAccess) {
		t.Fatalf("public document submit should report existing access, got %v", err)
	}
	if _, err := f.service.SubmitAccessRequest(ctx, requester, application.SubmitAccessRequestInput{DocumentID: uuid.New()}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown document submit should fail, got %v", err)
	}
}

func TestDenyThenResubmit(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	owner := domain.Actor{ID: uuid.New()}
	requester := domain.Actor{ID: uuid.New()}

	docID, err := f.upload(ctx, owner, "restricted", []byte("r"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	req, err := f.service.SubmitAccessRequest(ctx, requester, application.SubmitAccessRequestInput{DocumentID: docID})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := f.service.DenyAccessRequest(ctx, owner, req.RequestID); err != nil {
		t.Fatalf("deny failed: %v", err)
	}
	if f.grants.count() != 0 {
		t.Fatalf("deny must not create grants")
	}
	if _, err := f.service.ViewDocument(ctx, requester, docID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("denied requester should stay denied, got %v", err)
	}

	// Deny has no idempotent form: any second decision on the request fails.
	if err := f.service.DenyAccessRequest(ctx, owner, req.RequestID); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("re-deny should fail, got %v", err)
	}
	if err := f.service.ApproveAccessRequest(ctx, owner, req.RequestID); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("approve after deny should fail, got %v", err)
	}

	// The slot freed up: a new request may be submitted.
	if _, err := f.service.SubmitAccessRequest(ctx, requester, application.SubmitAccessRequestInput{DocumentID: docID}); err != nil {
		t.Fatalf("resubmit after deny failed: %v", err)
	}
}

func TestConcurrentApproveDenySingleWinner(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	owner := domain.Actor{ID: uuid.New()}
	requester := domain.Actor{ID: uuid.New()}

	docID, err := f.upload(ctx, owner, "private", []byte("contested"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	req, err := f.service.SubmitAccessRequest(ctx, requester, application.SubmitAccessRequestInput{DocumentID: docID})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	var wg sync.WaitGroup
	var approveErr, denyErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		approveErr = f.service.ApproveAccessRequest(ctx, owner, req.RequestID)
	}()
	go func() {
		defer wg.Done()
		denyErr = f.service.DenyAccessRequest(ctx, owner, req.RequestID)
	}()
	wg.Wait()

	if (approveErr == nil) == (denyErr == nil) {
		t.Fatalf("exactly one decision should win: approve=%v deny=%v", approveErr, denyErr)
	}
	loserErr := approveErr
	if loserErr == nil {
		loserErr = denyErr
	}
	if !errors.Is(loserErr, domain.ErrInvalidStateTransition) {
		t.Fatalf("loser should observe a terminal request, got %v", loserErr)
	}

	final, err := f.requests.GetByID(ctx, req.RequestID)
	if err != nil {
		t.Fatalf("request lookup failed: %v", err)
	}
	if !final.Terminal() {
		t.Fatalf("request should be terminal, got %s", final.Status)
	}
	if final.Status == domain.RequestApproved && f.grants.count() != 1 {
		t.Fatalf("approved outcome should leave exactly one grant, got %d", f.grants.count())
	}
	if final.Status == domain.RequestDenied && f.grants.count() != 0 {
		t.Fatalf("denied outcome should leave no grants, got %d", f.grants.count())
	}
}

func TestTamperedBlobFailsClosed(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	owner := domain.Actor{ID: uuid.New()}

	docID, err := f.upload(ctx, owner, "private", []byte("pristine"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	doc, err := f.documents.GetByID(ctx, docID)
	if err != nil {
		t.Fatalf("document lookup failed: %v", err)
	}
	if !f.blobs.tamper(doc.PayloadPath) {
		t.Fatalf("tamper helper found no blob")
	}

	if _, err := f.service.ViewDocument(ctx, owner, docID); !errors.Is(err, domain.ErrIntegrity) {
		t.Fatalf("tampered payload should fail with integrity error, got %v", err)
	}
}

func TestViewCounterIsBestEffort(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	owner := domain.Actor{ID: uuid.New()}

	docID, err := f.upload(ctx, owner, "private", []byte("telemetry-free"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	f.views.failAll = errors.New("redis down")

	if _, err := f.service.ViewDocument(ctx, owner, docID); err != nil {
		t.Fatalf("view should succeed despite counter failure, got %v", err)
	}
	if _, err := f.service.GetDocument(ctx, owner, docID); err != nil {
		t.Fatalf("get should succeed despite counter failure, got %v", err)
	}
}

func TestDeleteDocument(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	owner := domain.Actor{ID: uuid.New()}
	admin := domain.Actor{ID: uuid.New(), Superuser: true}

	docID, err := f.upload(ctx, owner, "public", []byte("ephemeral"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if err := f.service.DeleteDocument(ctx, admin, docID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("non-owner delete should be denied, got %v", err)
	}
	if err := f.service.DeleteDocument(ctx, owner, docID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if _, err := f.service.GetDocument(ctx, owner, docID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("deleted document should be gone, got %v", err)
	}
	if f.blobs.size() != 0 {
		t.Fatalf("blob should be removed with the record")
	}
	if len(f.outbox.ofType(domain.EventDocumentDeleted)) != 1 {
		t.Fatalf("expected one deleted event")
	}
}

func TestListAndSearch(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	alice := domain.Actor{ID: uuid.New()}
	bob := domain.Actor{ID: uuid.New()}

	aliceDoc, err := f.upload(ctx, alice, "private", []byte("a"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if _, err := f.upload(ctx, bob, "private", []byte("b")); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	mine, err := f.service.ListMyDocuments(ctx, alice, application.ListDocumentsInput{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(mine) != 1 || mine[0].DocumentID != aliceDoc {
		t.Fatalf("list should return only the actor's documents, got %d", len(mine))
	}

	// Metadata search spans all tiers; content reads stay gated.
	all, err := f.service.SearchDocuments(ctx, bob, application.ListDocumentsInput{Query: "quarterly"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("search should return metadata for both documents, got %d", len(all))
	}
	if _, err := f.service.ViewDocument(ctx, bob, aliceDoc); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("search visibility must not unlock content, got %v", err)
	}

	if _, err := f.service.SearchDocuments(ctx, bob, application.ListDocumentsInput{AccessLevel: "classified"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("unknown access level filter should fail, got %v", err)
	}
}

func TestListAccessRequests(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	owner := domain.Actor{ID: uuid.New()}
	requester := domain.Actor{ID: uuid.New()}

	docID, err := f.upload(ctx, owner, "private", []byte("wanted"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	req, err := f.service.SubmitAccessRequest(ctx, requester, application.SubmitAccessRequestInput{DocumentID: docID})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	requesterList, err := f.service.ListAccessRequests(ctx, requester)
	if err != nil {
		t.Fatalf("requester list failed: %v", err)
	}
	if len(requesterList.MyRequests) != 1 || requesterList.MyRequests[0].RequestID != req.RequestID {
		t.Fatalf("requester should see own submission")
	}
	if len(requesterList.PendingForOwner) != 0 {
		t.Fatalf("requester owns nothing pending")
	}

	ownerList, err := f.service.ListAccessRequests(ctx, owner)
	if err != nil {
		t.Fatalf("owner list failed: %v", err)
	}
	if len(ownerList.PendingForOwner) != 1 || ownerList.PendingForOwner[0].RequestID != req.RequestID {
		t.Fatalf("owner should see the pending decision")
	}
}

func TestCanAccessFailsClosedOnGrantStoreError(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	owner := domain.Actor{ID: uuid.New()}
	requester := domain.Actor{ID: uuid.New()}

	docID, err := f.upload(ctx, owner, "public", []byte("open"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	f.grants.failList = errors.New("grant store down")

	// Even a public document denies when grant state cannot be loaded.
	if _, err := f.service.ViewDocument(ctx, requester, docID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("grant store failure should deny, got %v", err)
	}
}
