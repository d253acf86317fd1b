package employee

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"hrrecords/internal/requestctx"
)

const listCacheKeyPrefix = "employees:list:"

type Service struct {
	store  StoreAPI
	cache  ListCache
	events EventPublisher
	photos PhotoStore
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithCache(cache ListCache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithEvents(publisher EventPublisher) Option {
	return func(s *Service) { s.events = publisher }
}

func WithPhotos(photos PhotoStore) Option {
	return func(s *Service) { s.photos = photos }
}

func NewService(store StoreAPI, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.L()
	}
	s := &Service{store: store, logger: logger.Named("employee.service"), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, form FormData) (Employee, error) {
	form, err := ValidateForm(form)
	if err != nil {
		s.logger.Debug("create employee rejected", requestctx.Field(ctx), zap.Error(err))
		return Employee{}, err
	}
	if err := s.ensureUniqueESSID(ctx, form.ESSID, 0); err != nil {
		return Employee{}, err
	}

	// Photos are attached only through SetPhoto.
	next := form.ToEmployee()
	next.PhotoPath = nil
	emp, err := s.store.Create(ctx, next)
	if err != nil {
		s.logger.Error("create employee persist failed", requestctx.Field(ctx), zap.Error(err))
		return Employee{}, err
	}

	s.invalidate(ctx)
	s.publish(ctx, EventCreated, emp)
	s.logger.Info("create employee success", requestctx.Field(ctx), zap.Int64("employee_id", emp.ID))
	return emp, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Employee, error) {
	return s.store.Get(ctx, id)
}

// List returns one page of matching employees together with the total
// number of matches.
func (s *Service) List(ctx context.Context, filter FilterOptions, page Page) (ListResponse, error) {
	filter, err := ValidateFilter(filter)
	if err != nil {
		return ListResponse{}, err
	}
	page = page.Normalize()

	if s.cache == nil {
		return s.loadList(ctx, filter, page)
	}

	raw, err := s.cache.Remember(ctx, listCacheKey(filter, page), func(ctx context.Context) ([]byte, error) {
		resp, err := s.loadList(ctx, filter, page)
		if err != nil {
			return nil, err
		}
		return json.Marshal(resp)
	})
	if err != nil {
		return ListResponse{}, err
	}
	var resp ListResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		s.logger.Warn("decode cached employee list failed", zap.Error(err))
		return s.loadList(ctx, filter, page)
	}
	if resp.Employees == nil {
		resp.Employees = []Employee{}
	}
	return resp, nil
}

func (s *Service) loadList(ctx context.Context, filter FilterOptions, page Page) (ListResponse, error) {
	employees, err := s.store.List(ctx, filter, page)
	if err != nil {
		return ListResponse{}, err
	}
	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return ListResponse{}, err
	}
	if employees == nil {
		employees = []Employee{}
	}
	return ListResponse{Employees: employees, TotalCount: total}, nil
}

// Export returns every employee matching the filter, newest first.
func (s *Service) Export(ctx context.Context, filter FilterOptions) ([]Employee, error) {
	filter, err := ValidateFilter(filter)
	if err != nil {
		return nil, err
	}
	return s.store.All(ctx, filter)
}

func (s *Service) Update(ctx context.Context, id int64, form FormData) (Employee, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	form, err = ValidateForm(form)
	if err != nil {
		return Employee{}, err
	}
	if err := s.ensureUniqueESSID(ctx, form.ESSID, id); err != nil {
		return Employee{}, err
	}

	next := form.ToEmployee()
	next.PhotoPath = existing.PhotoPath
	updated, err := s.store.Update(ctx, id, next)
	if err != nil {
		s.logger.Error("update employee persist failed", requestctx.Field(ctx), zap.Int64("employee_id", id), zap.Error(err))
		return Employee{}, err
	}

	s.invalidate(ctx)
	s.publish(ctx, EventUpdated, updated)
	s.logger.Info("update employee success", requestctx.Field(ctx), zap.Int64("employee_id", id))
	return updated, nil
}

// Delete removes the record and its stored photo.
func (s *Service) Delete(ctx context.Context, id int64) (Employee, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return Employee{}, err
	}
	if existing.PhotoPath != nil {
		s.deletePhotoFile(*existing.PhotoPath)
	}

	s.invalidate(ctx)
	s.publish(ctx, EventDeleted, existing)
	s.logger.Info("delete employee success", zap.Int64("employee_id", id))
	return existing, nil
}

// SetPhoto stores a new profile image named after the employee's id and
// ESSID and replaces any previous one.
func (s *Service) SetPhoto(ctx context.Context, id int64, filename string, r io.Reader) (Employee, error) {
	if s.photos == nil {
		return Employee{}, errors.New("photo storage is not configured")
	}
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return Employee{}, err
	}

	path, err := s.photos.Save(photoBaseName(existing), filepath.Ext(filename), r)
	if err != nil {
		return Employee{}, err
	}
	updated, err := s.store.SetPhotoPath(ctx, id, &path)
	if err != nil {
		s.deletePhotoFile(path)
		return Employee{}, err
	}
	if existing.PhotoPath != nil && *existing.PhotoPath != path {
		s.deletePhotoFile(*existing.PhotoPath)
	}

	s.invalidate(ctx)
	s.publish(ctx, EventUpdated, updated)
	return updated, nil
}

func (s *Service) RemovePhoto(ctx context.Context, id int64) (Employee, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	if existing.PhotoPath == nil {
		return existing, nil
	}
	updated, err := s.store.SetPhotoPath(ctx, id, nil)
	if err != nil {
		return Employee{}, err
	}
	s.deletePhotoFile(*existing.PhotoPath)

	s.invalidate(ctx)
	s.publish(ctx, EventUpdated, updated)
	return updated, nil
}

func (s *Service) OpenPhoto(ctx context.Context, id int64) (*os.File, error) {
	if s.photos == nil {
		return nil, ErrNoPhoto
	}
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.PhotoPath == nil {
		return nil, ErrNoPhoto
	}
	return s.photos.Open(*existing.PhotoPath)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	byStatus, err := s.store.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	var total int64
	for _, count := range byStatus {
		total += count
	}
	return Stats{Total: total, ByStatus: byStatus}, nil
}

func (s *Service) ensureUniqueESSID(ctx context.Context, essid *string, selfID int64) error {
	if essid == nil {
		return nil
	}
	other, err := s.store.GetByESSID(ctx, *essid)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if other.ID != selfID {
		return fmt.Errorf("%w: %s", ErrDuplicateESSID, *essid)
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate employee list cache failed", zap.Error(err))
	}
}

func (s *Service) deletePhotoFile(path string) {
	if s.photos == nil {
		return
	}
	if err := s.photos.Delete(path); err != nil {
		s.logger.Warn("delete photo file failed", zap.String("path", path), zap.Error(err))
	}
}

// photoBaseName prefixes the numeric id so two employees never share a file,
// whatever their ESSIDs look like after sanitising.
func photoBaseName(emp Employee) string {
	id := strconv.FormatInt(emp.ID, 10)
	if emp.ESSID != nil && strings.TrimSpace(*emp.ESSID) != "" {
		return id + "_" + strings.TrimSpace(*emp.ESSID)
	}
	return id
}

func listCacheKey(filter FilterOptions, page Page) string {
	raw, _ := json.Marshal(struct {
		Filter FilterOptions `json:"f"`
		Page   Page          `json:"p"`
	}{filter, page})
	sum := sha256.Sum256(raw)
	return listCacheKeyPrefix + hex.EncodeToString(sum[:12])
}
