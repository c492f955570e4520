package store

import (
	"context"

	domainfailure "github.com/cccrawl/crawler/internal/failure"
	"github.com/cccrawl/crawler/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore backs Store with three collections: configs, integrations, submissions, each
// partitioned by id. Grounded on the ScrapeGoat example's MongoStorage,
// the only mongo-driver usage in the retrieved corpus.
type MongoStore struct {
	client       *mongo.Client
	configs      *mongo.Collection
	integrations *mongo.Collection
	submissions  *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &domainfailure.StoreError{Op: "connect", Cause: err}
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, &domainfailure.StoreError{Op: "ping", Cause: err}
	}

	db := client.Database(database)
	return &MongoStore{
		client:       client,
		configs:      db.Collection("configs"),
		integrations: db.Collection("integrations"),
		submissions:  db.Collection("submissions"),
	}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Integrations launches a background goroutine that repeatedly scans the
// integrations collection in full, sending every document found before
// looping back to the start. Store faults are reported on the error
// channel and the scan carries on (a document that fails to decode is
// skipped). It stops, closing both channels, only when ctx is cancelled.
func (s *MongoStore) Integrations(ctx context.Context) (<-chan model.Integration, <-chan error) {
	out := make(chan model.Integration)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			cursor, err := s.integrations.Find(ctx, bson.M{})
			if err != nil {
				select {
				case errs <- &domainfailure.StoreError{Op: "integrations.find", Cause: err}:
				case <-ctx.Done():
					return
				}
				continue
			}

			for cursor.Next(ctx) {
				var integration model.Integration
				if err := cursor.Decode(&integration); err != nil {
					select {
					case errs <- &domainfailure.StoreError{Op: "integrations.decode", Cause: err}:
					case <-ctx.Done():
						cursor.Close(ctx)
						return
					}
					continue
				}

				select {
				case out <- integration:
				case <-ctx.Done():
					cursor.Close(ctx)
					return
				}
			}
			cursor.Close(ctx)

			if err := cursor.Err(); err != nil {
				select {
				case errs <- &domainfailure.StoreError{Op: "integrations.cursor", Cause: err}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, errs
}

func (s *MongoStore) UpsertIntegration(ctx context.Context, integration model.Integration) error {
	filter := bson.M{"id": integration.ID}
	_, err := s.integrations.ReplaceOne(ctx, filter, integration, options.Replace().SetUpsert(true))
	if err != nil {
		return &domainfailure.StoreError{Op: "upsert_integration", Cause: err}
	}
	return nil
}

func (s *MongoStore) UpsertSubmission(ctx context.Context, submission model.Submission) error {
	filter := bson.M{"id": submission.ID}
	_, err := s.submissions.ReplaceOne(ctx, filter, submission, options.Replace().SetUpsert(true))
	if err != nil {
		return &domainfailure.StoreError{Op: "upsert_submission", Cause: err}
	}
	return nil
}

func (s *MongoStore) CollectedSubmissionIDs(ctx context.Context, integrationID string) ([]string, error) {
	cursor, err := s.submissions.Find(ctx,
		bson.M{"integration_id": integrationID},
		options.Find().SetProjection(bson.M{"id": 1}),
	)
	if err != nil {
		return nil, &domainfailure.StoreError{Op: "collected_submission_ids", Cause: err}
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, &domainfailure.StoreError{Op: "collected_submission_ids.decode", Cause: err}
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, &domainfailure.StoreError{Op: "collected_submission_ids.cursor", Cause: err}
	}

	return ids, nil
}

func (s *MongoStore) FindSubmission(ctx context.Context, id string) (model.Submission, bool, error) {
	var submission model.Submission
	err := s.submissions.FindOne(ctx, bson.M{"id": id}).Decode(&submission)
	if err == mongo.ErrNoDocuments {
		return model.Submission{}, false, nil
	}
	if err != nil {
		return model.Submission{}, false, &domainfailure.StoreError{Op: "find_submission", Cause: err}
	}
	return submission, true, nil
}

func (s *MongoStore) UpsertUserConfig(ctx context.Context, config model.UserConfig) error {
	filter := bson.M{"id": config.UID}
	_, err := s.configs.ReplaceOne(ctx, filter, config, options.Replace().SetUpsert(true))
	if err != nil {
		return &domainfailure.StoreError{Op: "upsert_config", Cause: err}
	}
	return nil
}
