package service

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"propvest/internal/engine"
)

const (
	exportTypeProjection = "projection"
	exportTypePortfolio  = "portfolio"
)

// StartProjectionExport validates in synchronously and renders the projection workbook in
// the background. The returned id can be polled with GetExport.
func (s *ExportService) StartProjectionExport(ctx context.Context, in engine.ProjectionInput, userID int64) (string, error) {
	if err := engine.ValidateProjection(in); err != nil {
		return "", err
	}
	st := s.newStatus(exportTypeProjection, userID, map[string]any{"years": in.Years})
	if err := s.saveStatus(ctx, st); err != nil {
		s.log.Warn("save export status failed", "export_id", st.Key, "error", err)
	}

	s.spawn(func() {
		s.run(context.Background(), st, func(ctx context.Context) (*excelize.File, string, error) {
			p, err := s.calc.Projection(ctx, in)
			if err != nil {
				return nil, "", err
			}
			currency := engine.Params(engine.RegionAU).Currency
			if in.Loan != nil {
				currency = engine.Params(in.Loan.Region).Currency
			}
			f, err := projectionWorkbook(p, currency, s.progress(ctx, st))
			return f, "projection", err
		})
	})
	return st.Key, nil
}

// StartPortfolioExport checks the portfolio belongs to the user before queueing the export.
func (s *ExportService) StartPortfolioExport(ctx context.Context, userID int64, portfolioID string, years int) (string, error) {
	if _, err := s.projects.Get(ctx, userID, portfolioID); err != nil {
		return "", err
	}
	st := s.newStatus(exportTypePortfolio, userID, map[string]any{"portfolio_id": portfolioID, "years": years})
	if err := s.saveStatus(ctx, st); err != nil {
		s.log.Warn("save export status failed", "export_id", st.Key, "error", err)
	}

	s.spawn(func() {
		s.run(context.Background(), st, func(ctx context.Context) (*excelize.File, string, error) {
			report, err := s.projects.Project(ctx, userID, portfolioID, years)
			if err != nil {
				return nil, "", err
			}
			f, err := portfolioWorkbook(report, s.progress(ctx, st))
			return f, "portfolio", err
		})
	})
	return st.Key, nil
}

func (s *ExportService) newStatus(kind string, userID int64, params map[string]any) *ExportStatus {
	return &ExportStatus{
		Key:     fmt.Sprintf("exports:%s", uuid.NewString()),
		Type:    kind,
		UserID:  userID,
		Params:  params,
		Stage:   "queued",
		Created: s.now(),
	}
}

// progress reports row generation; 100% is reserved for when the file URL is ready.
func (s *ExportService) progress(ctx context.Context, st *ExportStatus) func(done, total int) {
	return func(done, total int) {
		if total == 0 {
			return
		}
		p := math.Round(float64(done) / float64(total) * 90)
		if p > 90 {
			p = 90
		}
		s.update(ctx, st, p, "generating")
	}
}

func (s *ExportService) update(ctx context.Context, st *ExportStatus, progress float64, stage string) {
	st.Progress = progress
	st.Stage = stage
	_ = s.saveStatus(ctx, st)
	if s.notify != nil {
		_ = s.notify.NotifyExportProgress(ctx, st.UserID, st.Key, progress, stage)
	}
}

func (s *ExportService) run(ctx context.Context, st *ExportStatus, build func(context.Context) (*excelize.File, string, error)) {
	log := s.log.With("export_id", st.Key, "user_id", st.UserID, "type", st.Type)

	f, prefix, err := build(ctx)
	if err != nil {
		s.fail(ctx, st, err)
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.fail(ctx, st, fmt.Errorf("write workbook: %w", err))
		return
	}

	fileName := fmt.Sprintf("%s_%s.xlsx", prefix, s.now().Format("20060102_150405"))
	s.update(ctx, st, 95, "uploading")

	url, err := s.files.Put(ctx, fileName, buf.Bytes())
	if err != nil {
		s.fail(ctx, st, fmt.Errorf("store workbook: %w", err))
		return
	}

	st.FileURL = &url
	st.FileName = fileName
	s.update(ctx, st, 100, "ready")
	if s.notify != nil {
		_ = s.notify.NotifyExportComplete(ctx, st.UserID, st.Key, url, fileName)
	}
	s.metrics.ExportFinished(true)
	log.Info("export ready", "file", fileName, "bytes", buf.Len())
}

func (s *ExportService) fail(ctx context.Context, st *ExportStatus, err error) {
	st.Error = err.Error()
	st.Stage = "failed"
	_ = s.saveStatus(ctx, st)
	if s.notify != nil {
		_ = s.notify.NotifyExportFailed(ctx, st.UserID, st.Key, err.Error())
	}
	s.metrics.ExportFinished(false)
	s.log.Error("export failed", "export_id", st.Key, "user_id", st.UserID, "error", err)
}
