package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"surveyclean/adapters/excel"
	"surveyclean/adapters/profile"
	"surveyclean/adapters/report"
	"surveyclean/app"
	"surveyclean/domain/cleaning"
	"surveyclean/domain/stats"
	"surveyclean/internal"
	cleaner "surveyclean/internal/cleaning"
)

// cleanOptions collects the flags shared by every subcommand
type cleanOptions struct {
	ProfilePath string
	Override    cleaning.Override
	Seed        int64
	Weights     stats.WeightConfig
}

// pipeline runs files through an in-memory session service
type pipeline struct {
	reader   *excel.DataReader
	service  *app.SessionService
	renderer *report.Renderer
	override cleaning.Override
}

func newPipeline(opts cleanOptions, logger *internal.Logger) (*pipeline, error) {
	var p *profile.Profile
	if opts.ProfilePath != "" {
		loaded, err := profile.Load(opts.ProfilePath)
		if err != nil {
			return nil, err
		}
		p = loaded
	}

	noise := cleaner.DefaultNoise()
	if opts.Seed != 0 {
		noise = cleaner.NewSeededNoise(opts.Seed)
	}

	service := app.NewSessionService(app.SessionServiceOptions{
		Cleaner:  cleaner.NewCleaner(noise, logger),
		Defaults: p.Apply(cleaning.DefaultConfig()).Normalize(),
		Weights:  p.ApplyWeights(opts.Weights),
		Logger:   logger,
	})

	return &pipeline{
		reader:   excel.NewDataReader(excel.DefaultReaderConfig(), logger),
		service:  service,
		renderer: report.NewRenderer(),
		override: opts.Override,
	}, nil
}

// load ingests path into a new session with the command line override applied
func (p *pipeline) load(ctx context.Context, path string) (*app.SessionView, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ds, err := p.reader.Read(ctx, filepath.Base(path), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	v, err := p.service.Ingest(ctx, filepath.Base(path), ds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !p.override.IsEmpty() {
		if _, err := p.service.SetConfig(ctx, v.ID, p.override); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// clean loads path and runs one full pass over it
func (p *pipeline) clean(ctx context.Context, path string) (*app.SessionView, *app.CleanOutcome, error) {
	v, err := p.load(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	outcome, err := p.service.Clean(ctx, v.ID, cleaning.ModeFull)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, outcome, nil
}

// export writes the session's current dataset to out, picking the format
// from its extension
func (p *pipeline) export(ctx context.Context, v *app.SessionView, out string) error {
	format, err := excel.FormatFromName(out)
	if err != nil {
		return err
	}
	cfg := excel.DefaultWriterConfig()
	cfg.Format = format

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := p.service.Export(ctx, v.ID, f, excel.NewDataWriter(cfg)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// cleanedName maps survey.xlsx to <dir>/survey-clean.xlsx
func cleanedName(dir, path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if dir == "" {
		dir = filepath.Dir(path)
	}
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+"-clean"+ext)
}
