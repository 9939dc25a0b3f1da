package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sitemix/sitemix/pkg/log"
	"github.com/sitemix/sitemix/pkg/types"
)

// FirestoreProvider implements the Database interface using Google Cloud
// Firestore. Records are stored as JSON strings for portability.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreProvider) getCollection(siteID, name string) (*firestore.CollectionRef, error) {
	if siteID == "" {
		return nil, fmt.Errorf("siteID cannot be empty")
	}
	return f.client.Collection("sites").Doc(siteID).Collection(name), nil
}

// runDocID keys run documents by creation time so document-ID range queries
// return them in chronological order; the run ID suffix keeps IDs unique.
func runDocID(run types.RunRecord) string {
	return run.CreatedAt.UTC().Format(time.RFC3339) + "_" + run.ID
}

// SaveRun adds a run record to the "runs" collection as a JSON blob.
func (f *FirestoreProvider) SaveRun(ctx context.Context, siteID string, run types.RunRecord) error {
	if run.ID == "" {
		return fmt.Errorf("run ID cannot be empty")
	}
	jsonBytes, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	coll, err := f.getCollection(siteID, "runs")
	if err != nil {
		return err
	}
	_, err = coll.Doc(runDocID(run)).Set(ctx, map[string]interface{}{
		"json":    string(jsonBytes),
		"id":      run.ID,
		"created": run.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves a single run by its run ID.
func (f *FirestoreProvider) GetRun(ctx context.Context, siteID, runID string) (types.RunRecord, error) {
	coll, err := f.getCollection(siteID, "runs")
	if err != nil {
		return types.RunRecord{}, err
	}
	iter := coll.Where("id", "==", runID).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return types.RunRecord{}, ErrRunNotFound
	}
	if err != nil {
		return types.RunRecord{}, fmt.Errorf("failed to query run %s: %w", runID, err)
	}
	return f.decodeRun(ctx, siteID, doc)
}

// ListRuns retrieves run records created within the specified time range.
// Uses document ID range queries for efficient filtering without reading all documents.
func (f *FirestoreProvider) ListRuns(ctx context.Context, siteID string, start, end time.Time) ([]types.RunRecord, error) {
	coll, err := f.getCollection(siteID, "runs")
	if err != nil {
		return nil, err
	}
	startDocID := start.UTC().Format(time.RFC3339)
	endDocID := end.UTC().Format(time.RFC3339)

	iter := coll.
		Where(firestore.DocumentID, ">=", coll.Doc(startDocID)).
		Where(firestore.DocumentID, "<", coll.Doc(endDocID)).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var runs []types.RunRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating runs: %w", err)
		}
		run, err := f.decodeRun(ctx, siteID, doc)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// GetLatestRun returns the most recently created run, or nil when the site
// has none.
func (f *FirestoreProvider) GetLatestRun(ctx context.Context, siteID string) (*types.RunRecord, error) {
	coll, err := f.getCollection(siteID, "runs")
	if err != nil {
		return nil, err
	}
	iter := coll.OrderBy(firestore.DocumentID, firestore.Desc).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	run, err := f.decodeRun(ctx, siteID, doc)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (f *FirestoreProvider) decodeRun(ctx context.Context, siteID string, doc *firestore.DocumentSnapshot) (types.RunRecord, error) {
	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "run doc missing json", slog.String("runDoc", doc.Ref.ID), slog.String("siteID", siteID), slog.Any("err", err))
		return types.RunRecord{}, fmt.Errorf("run document %s missing 'json' field: %w", doc.Ref.ID, err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "run doc json not string", slog.String("runDoc", doc.Ref.ID), slog.String("siteID", siteID))
		return types.RunRecord{}, fmt.Errorf("run document %s 'json' field is not a string", doc.Ref.ID)
	}
	var run types.RunRecord
	if err := json.Unmarshal([]byte(jsonStr), &run); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal run", slog.String("runDoc", doc.Ref.ID), slog.String("siteID", siteID), slog.Any("err", err))
		return types.RunRecord{}, fmt.Errorf("failed to unmarshal run %s: %w", doc.Ref.ID, err)
	}
	return run, nil
}

// GetSite retrieves the site document from the "config/site" document.
func (f *FirestoreProvider) GetSite(ctx context.Context, siteID string) (types.SiteData, error) {
	coll, err := f.getCollection(siteID, "config")
	if err != nil {
		return types.SiteData{}, err
	}
	doc, err := coll.Doc("site").Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.SiteData{}, ErrSiteNotFound
		}
		return types.SiteData{}, fmt.Errorf("failed to fetch site doc: %w", err)
	}

	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "site doc missing json", slog.String("siteID", siteID))
		return types.SiteData{}, fmt.Errorf("site document missing 'json' field: %w", err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "site doc json not string", slog.String("siteID", siteID))
		return types.SiteData{}, fmt.Errorf("site 'json' field is not a string")
	}

	var site types.SiteData
	if err := json.Unmarshal([]byte(jsonStr), &site); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal site json", slog.String("siteID", siteID), slog.Any("err", err))
		return types.SiteData{}, fmt.Errorf("failed to unmarshal site json: %w", err)
	}
	return site, nil
}

// SetSite saves the site document, stored as a JSON string for portability.
func (f *FirestoreProvider) SetSite(ctx context.Context, siteID string, site types.SiteData) error {
	jsonBytes, err := json.Marshal(site)
	if err != nil {
		return fmt.Errorf("failed to marshal site: %w", err)
	}

	coll, err := f.getCollection(siteID, "config")
	if err != nil {
		return err
	}
	_, err = coll.Doc("site").Set(ctx, map[string]interface{}{
		"json": string(jsonBytes),
	})
	if err != nil {
		return fmt.Errorf("failed to save site: %w", err)
	}
	return nil
}
