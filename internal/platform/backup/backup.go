package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"go.uber.org/zap"

	"hrrecords/internal/domain/employee"
)

const (
	filePrefix    = "employee_records_backup_"
	fileSuffix    = ".json.br"
	timeLayout    = "20060102_150405"
	FormatName    = "hrrecords.employees"
	FormatVersion = 1
)

type Source interface {
	All(ctx context.Context, filter employee.FilterOptions) ([]employee.Employee, error)
}

type Uploader interface {
	Upload(ctx context.Context, localPath, remoteName string) error
}

// Snapshot is the decoded content of one backup file.
type Snapshot struct {
	Format    string              `json:"format"`
	Version   int                 `json:"version"`
	CreatedAt time.Time           `json:"createdAt"`
	Count     int                 `json:"count"`
	Employees []employee.Employee `json:"employees"`
}

type Result struct {
	Path     string    `json:"path"`
	Count    int       `json:"count"`
	Bytes    int64     `json:"bytes"`
	Uploaded bool      `json:"uploaded"`
	Pruned   []string  `json:"pruned,omitempty"`
	TakenAt  time.Time `json:"takenAt"`
}

type Info struct {
	Name    string    `json:"name"`
	Bytes   int64     `json:"bytes"`
	ModTime time.Time `json:"modTime"`
}

type Service struct {
	source   Source
	dir      string
	keep     int
	uploader Uploader
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(source Source, dir string, keep int, uploader Uploader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.L()
	}
	if keep <= 0 {
		keep = 10
	}
	return &Service{
		source:   source,
		dir:      dir,
		keep:     keep,
		uploader: uploader,
		logger:   logger.Named("backup"),
		now:      time.Now,
	}
}

// Run writes a compressed snapshot of every employee, uploads it when an
// uploader is configured and prunes old files down to the retention count.
func (s *Service) Run(ctx context.Context) (Result, error) {
	employees, err := s.source.All(ctx, employee.FilterOptions{})
	if err != nil {
		return Result{}, fmt.Errorf("load employees: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return Result{}, fmt.Errorf("create backup dir: %w", err)
	}

	takenAt := s.now().UTC()
	f, err := s.createFile(takenAt)
	if err != nil {
		return Result{}, err
	}
	path := f.Name()

	snapshot := Snapshot{
		Format:    FormatName,
		Version:   FormatVersion,
		CreatedAt: takenAt,
		Count:     len(employees),
		Employees: employees,
	}
	if err := writeSnapshot(f, snapshot); err != nil {
		f.Close()
		os.Remove(path)
		return Result{}, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return Result{}, err
	}

	res := Result{Path: path, Count: len(employees), TakenAt: takenAt}
	if info, err := os.Stat(path); err == nil {
		res.Bytes = info.Size()
	}

	if s.uploader != nil {
		if err := s.uploader.Upload(ctx, path, filepath.Base(path)); err != nil {
			s.logger.Error("backup upload failed", zap.String("path", path), zap.Error(err))
		} else {
			res.Uploaded = true
		}
	}

	pruned, err := s.Prune()
	if err != nil {
		s.logger.Warn("backup prune failed", zap.Error(err))
	}
	res.Pruned = pruned

	s.logger.Info("backup created",
		zap.String("path", path),
		zap.Int("employees", res.Count),
		zap.Int64("bytes", res.Bytes),
		zap.Bool("uploaded", res.Uploaded),
	)
	return res, nil
}

func (s *Service) createFile(takenAt time.Time) (*os.File, error) {
	base := filePrefix + takenAt.Format(timeLayout)
	for attempt := 0; attempt < 100; attempt++ {
		name := base
		if attempt > 0 {
			name += "-" + strconv.Itoa(attempt)
		}
		f, err := os.OpenFile(filepath.Join(s.dir, name+fileSuffix), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		return f, err
	}
	return nil, fmt.Errorf("backup file %s already exists", base)
}

// List returns the backup files in the directory, newest first.
func (s *Service) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []Info{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{Name: name, Bytes: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].ModTime.After(out[j].ModTime)
		}
		return out[i].Name > out[j].Name
	})
	return out, nil
}

// Prune keeps the newest backups and removes the rest.
func (s *Service) Prune() ([]string, error) {
	files, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(files) <= s.keep {
		return nil, nil
	}
	var removed []string
	for _, old := range files[s.keep:] {
		if err := os.Remove(filepath.Join(s.dir, old.Name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, err
		}
		removed = append(removed, old.Name)
	}
	return removed, nil
}

func writeSnapshot(w io.Writer, snapshot Snapshot) error {
	bw := brotli.NewWriterLevel(w, brotli.DefaultCompression)
	if err := json.NewEncoder(bw).Encode(snapshot); err != nil {
		bw.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return bw.Close()
}

func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.NewDecoder(brotli.NewReader(r)).Decode(&snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snapshot.Format != FormatName {
		return Snapshot{}, fmt.Errorf("unexpected backup format %q", snapshot.Format)
	}
	return snapshot, nil
}
