// Package storage persists simulation runs and site documents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/sitemix/sitemix/pkg/types"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrSiteNotFound = errors.New("site not found")
)

// Database defines the interface for persisting runs and site documents.
type Database interface {
	// Runs
	SaveRun(ctx context.Context, siteID string, run types.RunRecord) error
	GetRun(ctx context.Context, siteID, runID string) (types.RunRecord, error)
	ListRuns(ctx context.Context, siteID string, start, end time.Time) ([]types.RunRecord, error)
	GetLatestRun(ctx context.Context, siteID string) (*types.RunRecord, error)

	// Sites
	GetSite(ctx context.Context, siteID string) (types.SiteData, error)
	SetSite(ctx context.Context, siteID string, site types.SiteData) error

	// Lifecycle
	Close() error
}

// Configured sets up the storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "firestore", "Storage provider to use (available: firestore)")

	var p struct{ Database }

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "firestore":
			p.Database = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}
