// Package main provides the transit command line tool.
//
//	transit make_base < base.json
//	transit process_requests < stat.json
//
// make_base loads the base requests and writes a snapshot to the file named
// by serialization_settings. process_requests restores that snapshot and
// prints the answers to the stat requests as a JSON array.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/megannnn98/transport-catalogue/internal/catalogue"
	"github.com/megannnn98/transport-catalogue/internal/mapview"
	"github.com/megannnn98/transport-catalogue/internal/requests"
	"github.com/megannnn98/transport-catalogue/internal/router"
	"github.com/megannnn98/transport-catalogue/internal/snapshot"
)

// Version is set at compile time via ldflags.
var Version = "dev"

// Modes.
const (
	modeMakeBase        = "make_base"
	modeProcessRequests = "process_requests"
)

var (
	errUsage          = errors.New("usage: transit [make_base|process_requests]")
	errNoSnapshotFile = errors.New("serialization_settings.file is required")
)

func main() {
	log := zerolog.New(os.Stderr).
		With().
		Timestamp().
		Str("service", "transit").
		Str("version", Version).
		Logger()

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, errUsage)
		os.Exit(2)
	}

	if err := run(context.Background(), os.Args[1], os.Stdin, os.Stdout, log); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, errUsage)
			os.Exit(2)
		}
		log.Error().Err(err).Str("mode", os.Args[1]).Msg("transit failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, mode string, in io.Reader, out io.Writer, log zerolog.Logger) error {
	switch mode {
	case modeMakeBase:
		return makeBase(ctx, in, log)
	case modeProcessRequests:
		return processRequests(ctx, in, out, log)
	default:
		return errUsage
	}
}

func snapshotRepository(doc *requests.Document) (*snapshot.FileRepository, error) {
	if doc.SerializationSettings == nil || doc.SerializationSettings.File == "" {
		return nil, errNoSnapshotFile
	}
	return snapshot.NewFileRepository(doc.SerializationSettings.File), nil
}

func makeBase(ctx context.Context, in io.Reader, log zerolog.Logger) error {
	doc, err := requests.Decode(in)
	if err != nil {
		return err
	}
	repo, err := snapshotRepository(doc)
	if err != nil {
		return err
	}

	cat := catalogue.New(catalogue.Config{Logger: log})
	if err := requests.Load(cat, doc.BaseRequests); err != nil {
		return fmt.Errorf("load base requests: %w", err)
	}
	if doc.RoutingSettings != nil {
		if err := doc.RoutingSettings.Validate(); err != nil {
			return err
		}
	}
	if doc.RenderSettings != nil {
		if err := doc.RenderSettings.Validate(); err != nil {
			return err
		}
	}

	snap := snapshot.FromCatalogue(cat)
	snap.Routing = doc.RoutingSettings
	snap.Render = doc.RenderSettings
	if err := repo.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	log.Info().
		Str("file", repo.Path()).
		Int("stops", len(snap.Stops)).
		Int("buses", len(snap.Buses)).
		Msg("snapshot written")
	return nil
}

func processRequests(ctx context.Context, in io.Reader, out io.Writer, log zerolog.Logger) error {
	doc, err := requests.Decode(in)
	if err != nil {
		return err
	}
	repo, err := snapshotRepository(doc)
	if err != nil {
		return err
	}

	snap, err := repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	cat, err := snap.Restore(catalogue.Config{Logger: log})
	if err != nil {
		return fmt.Errorf("restore catalogue: %w", err)
	}

	cfg := requests.HandlerConfig{Catalogue: cat, Logger: log}
	if snap.Routing != nil {
		cfg.Router, err = router.New(router.Config{
			Catalogue: cat,
			Settings:  *snap.Routing,
			Logger:    log,
		})
		if err != nil {
			return err
		}
	}
	if snap.Render != nil {
		cfg.Renderer, err = mapview.NewRenderer(*snap.Render)
		if err != nil {
			return err
		}
	}

	responses := requests.NewHandler(cfg).Process(ctx, doc.StatRequests)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "    ")
	return enc.Encode(responses)
}
