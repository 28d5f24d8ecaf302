package domain

// CtxKey names values stored on the gin and request contexts.
type CtxKey string

const (
	KeyUserID    CtxKey = "UserID"
	KeyUserEmail CtxKey = "Email"
	KeyUserRole  CtxKey = "Role"
	KeyRequestID CtxKey = "RequestID"
)
