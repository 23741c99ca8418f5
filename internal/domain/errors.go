package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrAccessDenied signals a failed policy check. Callers surface it as a
	// forbidden response without the matching rule, so tier and grant state
	// are not leaked to requesters.
	ErrAccessDenied = errors.New("insufficient permission")
	// ErrIntegrity is returned when ciphertext fails authentication on decrypt:
	// tampered payload, truncated blob, or a key that does not match.
	// The decrypt path fails closed and never returns partial plaintext.
	ErrIntegrity = errors.New("payload integrity check failed")
	// ErrAlreadyHasAccess rejects access requests from actors who can already
	// read the document (owner, or a public/internal tier).
	ErrAlreadyHasAccess = errors.New("requester already has access")
	// ErrDuplicateRequest rejects a submission while the requester already has
	// a pending request for the same document.
	ErrDuplicateRequest = errors.New("pending access request already exists")
	// ErrInvalidStateTransition is returned when approve/deny targets a
	// request that already reached the opposite terminal state.
	ErrInvalidStateTransition = errors.New("invalid access request state transition")
	// ErrStorageFailure wraps blob read/write errors. Uploads roll back on it
	// so no document row ever points at a missing payload.
	ErrStorageFailure = errors.New("blob storage failure")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidInput   = errors.New("invalid input")
	ErrConflict       = errors.New("conflict")
)
