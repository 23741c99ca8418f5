package domain

const (
	EventDocumentUploaded       = "document.uploaded"
	EventDocumentDeleted        = "document.deleted"
	EventAccessRequestSubmitted = "access_request.submitted"
	EventAccessRequestApproved  = "access_request.approved"
	EventAccessRequestDenied    = "access_request.denied"
)
