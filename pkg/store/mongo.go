package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/screenloom/screenloom/pkg/errors"
	"github.com/screenloom/screenloom/pkg/flow"
	"github.com/screenloom/screenloom/pkg/screen"
)

// MongoStore persists projects, screens, and flows in MongoDB.
type MongoStore struct {
	client   *mongo.Client
	projects *mongo.Collection
	screens  *mongo.Collection
	flows    *mongo.Collection
}

// screenDoc is the stored shape of one screen. The (project_id, screen_id)
// pair carries a unique index, which is what makes UpsertScreen an atomic
// insert-or-replace.
type screenDoc struct {
	ProjectID string        `bson:"project_id"`
	ScreenID  string        `bson:"screen_id"`
	Record    screen.Record `bson:"record"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

// flowDoc groups a source screen's full edge set in one document, so
// ReplaceFlows is a single replace.
type flowDoc struct {
	ProjectID    string      `bson:"project_id"`
	FromScreenID string      `bson:"from_screen_id"`
	Edges        []flow.Edge `bson:"edges"`
	UpdatedAt    time.Time   `bson:"updated_at"`
}

// NewMongoStore connects to MongoDB and ensures the indexes the store's
// contract depends on.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "ping mongodb")
	}

	db := client.Database(database)
	s := &MongoStore{
		client:   client,
		projects: db.Collection("projects"),
		screens:  db.Collection("screens"),
		flows:    db.Collection("flows"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.screens.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "screen_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "create screen index")
	}
	_, err = s.flows.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "from_screen_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "create flow index")
	}
	return nil
}

// CreateProject creates a project with a fresh uuid.
func (s *MongoStore) CreateProject(ctx context.Context, name, platform string) (*Project, error) {
	if err := errors.ValidateProjectName(name); err != nil {
		return nil, err
	}
	if _, err := screen.ParsePlatform(platform); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := Project{
		ID:        uuid.NewString(),
		Name:      name,
		Platform:  platform,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.projects.InsertOne(ctx, p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "insert project")
	}
	return &p, nil
}

// Project looks up a project by id.
func (s *MongoStore) Project(ctx context.Context, id string) (*Project, error) {
	var p Project
	err := s.projects.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeProjectNotFound, "project %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "find project")
	}
	return &p, nil
}

// ListProjects returns all projects ordered by creation time.
func (s *MongoStore) ListProjects(ctx context.Context) ([]Project, error) {
	cur, err := s.projects.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list projects")
	}
	var out []Project
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decode projects")
	}
	return out, nil
}

// DeleteProject removes a project and everything under it.
func (s *MongoStore) DeleteProject(ctx context.Context, id string) error {
	res, err := s.projects.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete project")
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeProjectNotFound, "project %s not found", id)
	}
	if _, err := s.screens.DeleteMany(ctx, bson.M{"project_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete project screens")
	}
	if _, err := s.flows.DeleteMany(ctx, bson.M{"project_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete project flows")
	}
	return nil
}

// UpsertScreen inserts or replaces a screen record.
func (s *MongoStore) UpsertScreen(ctx context.Context, projectID string, rec screen.Record) error {
	if _, err := s.Project(ctx, projectID); err != nil {
		return err
	}
	doc := screenDoc{
		ProjectID: projectID,
		ScreenID:  rec.ID,
		Record:    rec,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.screens.ReplaceOne(ctx,
		bson.M{"project_id": projectID, "screen_id": rec.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "upsert screen %s", rec.ID)
	}
	return s.touch(ctx, projectID)
}

// Screen fetches one screen record by id.
func (s *MongoStore) Screen(ctx context.Context, projectID, screenID string) (*screen.Record, error) {
	var doc screenDoc
	err := s.screens.FindOne(ctx, bson.M{"project_id": projectID, "screen_id": screenID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeScreenNotFound, "screen %s not found", screenID)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "find screen")
	}
	return &doc.Record, nil
}

// Screens lists a project's records ordered by sortOrder.
func (s *MongoStore) Screens(ctx context.Context, projectID string) ([]screen.Record, error) {
	if _, err := s.Project(ctx, projectID); err != nil {
		return nil, err
	}
	cur, err := s.screens.Find(ctx,
		bson.M{"project_id": projectID},
		options.Find().SetSort(bson.D{{Key: "record.sort_order", Value: 1}, {Key: "screen_id", Value: 1}}),
	)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list screens")
	}
	var docs []screenDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decode screens")
	}
	out := make([]screen.Record, len(docs))
	for i, d := range docs {
		out[i] = d.Record
	}
	return out, nil
}

// ReplaceFlows atomically swaps the edge set originating from one screen.
func (s *MongoStore) ReplaceFlows(ctx context.Context, projectID, fromScreenID string, edges []flow.Edge) error {
	if _, err := s.Project(ctx, projectID); err != nil {
		return err
	}
	filter := bson.M{"project_id": projectID, "from_screen_id": fromScreenID}
	if len(edges) == 0 {
		if _, err := s.flows.DeleteOne(ctx, filter); err != nil {
			return errors.Wrap(errors.ErrCodeStore, err, "clear flows for %s", fromScreenID)
		}
		return s.touch(ctx, projectID)
	}
	doc := flowDoc{
		ProjectID:    projectID,
		FromScreenID: fromScreenID,
		Edges:        edges,
		UpdatedAt:    time.Now().UTC(),
	}
	_, err := s.flows.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "replace flows for %s", fromScreenID)
	}
	return s.touch(ctx, projectID)
}

// Flows lists every edge in a project, grouped by source screen in stable
// order.
func (s *MongoStore) Flows(ctx context.Context, projectID string) ([]flow.Edge, error) {
	if _, err := s.Project(ctx, projectID); err != nil {
		return nil, err
	}
	cur, err := s.flows.Find(ctx,
		bson.M{"project_id": projectID},
		options.Find().SetSort(bson.D{{Key: "from_screen_id", Value: 1}}),
	)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list flows")
	}
	var docs []flowDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decode flows")
	}
	var out []flow.Edge
	for _, d := range docs {
		out = append(out, d.Edges...)
	}
	return out, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "disconnect mongodb")
	}
	return nil
}

func (s *MongoStore) touch(ctx context.Context, projectID string) error {
	_, err := s.projects.UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "touch project")
	}
	return nil
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
