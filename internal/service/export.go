package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"propvest/internal/metrics"
)

// StatusStore is the redis subset used to track export progress.
type StatusStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	SAdd(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// FileStore persists a generated file and returns a URL the user can download it from.
type FileStore interface {
	Put(ctx context.Context, fileName string, data []byte) (string, error)
}

type Notifier interface {
	NotifyExportProgress(ctx context.Context, userID int64, exportID string, progress float64, stage string) error
	NotifyExportComplete(ctx context.Context, userID int64, exportID, url, filename string) error
	NotifyExportFailed(ctx context.Context, userID int64, exportID, errMsg string) error
}

type ExportStatus struct {
	Key      string    `json:"key"`
	Type     string    `json:"type"`
	UserID   int64     `json:"user_id"`
	Params   any       `json:"params"`
	Progress float64   `json:"progress"`
	Stage    string    `json:"stage"`
	FileURL  *string   `json:"file_url"`
	FileName string    `json:"file_name,omitempty"`
	Error    string    `json:"error,omitempty"`
	Created  time.Time `json:"created_at"`
}

// ExportView is an export status as returned to its owner.
type ExportView struct {
	ExportStatus
	CreatedAgo string `json:"created_ago"`
}

func userExportsKey(userID int64) string {
	return fmt.Sprintf("export_ids:%d", userID)
}

type ExportService struct {
	store    StatusStore
	files    FileStore
	notify   Notifier
	calc     *CalculatorService
	projects *PortfolioService
	metrics  *metrics.Metrics
	log      *slog.Logger
	ttl      time.Duration

	now   func() time.Time
	spawn func(func())
}

func NewExportService(
	store StatusStore,
	files FileStore,
	notify Notifier,
	calc *CalculatorService,
	projects *PortfolioService,
	m *metrics.Metrics,
	log *slog.Logger,
	ttl time.Duration,
) *ExportService {
	if ttl <= 0 {
		ttl = 20 * time.Minute
	}
	return &ExportService{
		store:    store,
		files:    files,
		notify:   notify,
		calc:     calc,
		projects: projects,
		metrics:  m,
		log:      log.With("component", "export"),
		ttl:      ttl,
		now:      time.Now,
		spawn:    func(f func()) { go f() },
	}
}

func (s *ExportService) saveStatus(ctx context.Context, st *ExportStatus) error {
	if s.store == nil {
		return nil
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, st.Key, string(data), s.ttl); err != nil {
		return err
	}
	return s.store.SAdd(ctx, userExportsKey(st.UserID), st.Key)
}

func (s *ExportService) loadStatus(ctx context.Context, key string) (*ExportStatus, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var st ExportStatus
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("failed to parse export status: %w", err)
	}
	return &st, nil
}

// GetExports lists the user's exports that have not expired, newest first.
func (s *ExportService) GetExports(ctx context.Context, userID int64) ([]ExportView, error) {
	if s.store == nil {
		return nil, errors.New("status store not configured")
	}

	keys, err := s.store.SMembers(ctx, userExportsKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get export keys: %w", err)
	}

	var statuses []ExportStatus
	for _, key := range keys {
		st, err := s.loadStatus(ctx, key)
		if err != nil {
			continue
		}
		if st.UserID == userID {
			statuses = append(statuses, *st)
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})

	out := make([]ExportView, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, s.view(st))
	}
	return out, nil
}

func (s *ExportService) GetExport(ctx context.Context, exportID string, userID int64) (ExportView, error) {
	if s.store == nil {
		return ExportView{}, errors.New("status store not configured")
	}
	st, err := s.loadStatus(ctx, exportID)
	if err != nil || st.UserID != userID {
		return ExportView{}, fmt.Errorf("export %s: %w", exportID, ErrNotFound)
	}
	return s.view(*st), nil
}

func (s *ExportService) view(st ExportStatus) ExportView {
	return ExportView{ExportStatus: st, CreatedAgo: humanize.RelTime(st.Created, s.now(), "ago", "from now")}
}
