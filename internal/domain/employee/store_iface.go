package employee

import (
	"context"
	"io"
	"os"
)

type StoreAPI interface {
	Create(ctx context.Context, emp Employee) (Employee, error)
	Get(ctx context.Context, id int64) (Employee, error)
	GetByESSID(ctx context.Context, essid string) (Employee, error)
	List(ctx context.Context, filter FilterOptions, page Page) ([]Employee, error)
	Count(ctx context.Context, filter FilterOptions) (int64, error)
	CountByStatus(ctx context.Context) (map[EmploymentStatus]int64, error)
	Update(ctx context.Context, id int64, emp Employee) (Employee, error)
	SetPhotoPath(ctx context.Context, id int64, photoPath *string) (Employee, error)
	Delete(ctx context.Context, id int64) error
	All(ctx context.Context, filter FilterOptions) ([]Employee, error)
}

// ListCache stores encoded list pages. Invalidate drops every cached page.
type ListCache interface {
	Remember(ctx context.Context, key string, load func(context.Context) ([]byte, error)) ([]byte, error)
	Invalidate(ctx context.Context) error
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// PhotoStore keeps profile images outside the database.
type PhotoStore interface {
	Save(name, ext string, r io.Reader) (string, error)
	Delete(path string) error
	Open(path string) (*os.File, error)
}
