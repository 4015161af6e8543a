package domain

import "context"

// ResolverPort interprets one barcode submission against session state
type ResolverPort interface {
	Resolve(ctx context.Context, in ScanInput) (ScanResult, error)
}

// SessionPort owns the session lifecycle
type SessionPort interface {
	Start(ctx context.Context, createdBy string, in StartSessionInput) (Session, error)
	End(ctx context.Context, id, actor string) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
}
