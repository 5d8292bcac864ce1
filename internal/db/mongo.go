package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tasklist/backend/internal/config"
	"github.com/tasklist/backend/internal/model"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const maxUpdateAttempts = 5

// Mongo stores each user, list and task as one document. User updates replace the
// whole document guarded by its version field.
type Mongo struct {
	client *mongo.Client
	users  *mongo.Collection
	lists  *mongo.Collection
	tasks  *mongo.Collection
}

type userDocument struct {
	ID           string          `bson:"_id"`
	Email        string          `bson:"email"`
	PasswordHash string          `bson:"password_hash"`
	Sessions     []model.Session `bson:"sessions"`
	Version      int64           `bson:"version"`
	CreatedAt    time.Time       `bson:"created_at"`
	UpdatedAt    time.Time       `bson:"updated_at"`
}

type listDocument struct {
	ID      string    `bson:"_id"`
	UserID  string    `bson:"user_id"`
	Title   string    `bson:"title"`
	Created time.Time `bson:"created"`
}

type taskDocument struct {
	ID        string     `bson:"_id"`
	ListID    string     `bson:"list_id"`
	Title     string     `bson:"title"`
	Completed bool       `bson:"completed"`
	Created   time.Time  `bson:"created"`
	Updated   *time.Time `bson:"updated,omitempty"`
}

func NewMongo(ctx context.Context, cfg config.MongoConfig) (*Mongo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	database := client.Database(cfg.Database)
	return &Mongo{
		client: client,
		users:  database.Collection("users"),
		lists:  database.Collection("lists"),
		tasks:  database.Collection("tasks"),
	}, nil
}

func (m *Mongo) Close() {
	_ = m.client.Disconnect(context.Background())
}

func (m *Mongo) EnsureSchema(ctx context.Context) error {
	if _, err := m.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	if _, err := m.lists.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created", Value: 1}},
	}); err != nil {
		return err
	}
	_, err := m.tasks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "list_id", Value: 1}, {Key: "created", Value: 1}},
	})
	return err
}

func (m *Mongo) CreateUser(ctx context.Context, user *model.User) error {
	_, err := m.users.InsertOne(ctx, toUserDocument(user))
	return mapMongoError(err)
}

func (m *Mongo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return m.findUser(ctx, bson.M{"_id": id})
}

func (m *Mongo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findUser(ctx, bson.M{"email": email})
}

func (m *Mongo) UpdateUser(ctx context.Context, id string, fn func(*model.User) error) (*model.User, error) {
	return updateVersioned(ctx, id, fn, m.GetUserByID, m.replaceUser)
}

// replaceUser writes user only if the stored document still has version loaded.
func (m *Mongo) replaceUser(ctx context.Context, user *model.User, loaded int64) (bool, error) {
	res, err := m.users.ReplaceOne(ctx, bson.M{"_id": user.ID, "version": loaded}, toUserDocument(user))
	if err != nil {
		return false, mapMongoError(err)
	}
	return res.MatchedCount == 1, nil
}

// updateVersioned runs load, fn and a compare-and-swap replace, starting over
// while another writer wins the race.
func updateVersioned(
	ctx context.Context,
	id string,
	fn func(*model.User) error,
	load func(context.Context, string) (*model.User, error),
	replace func(context.Context, *model.User, int64) (bool, error),
) (*model.User, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		user, err := load(ctx, id)
		if err != nil {
			return nil, err
		}
		loaded := user.Version

		if err := fn(user); err != nil {
			return nil, err
		}

		user.Version = loaded + 1
		ok, err := replace(ctx, user, loaded)
		if err != nil {
			return nil, err
		}
		if ok {
			return user, nil
		}
	}
	return nil, fmt.Errorf("%w: user %s", ErrConcurrentUpdate, id)
}

func (m *Mongo) DeleteUser(ctx context.Context, id string) error {
	res, err := m.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapMongoError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	cursor, err := m.lists.Find(ctx, bson.M{"user_id": id})
	if err != nil {
		return err
	}
	var lists []listDocument
	if err := cursor.All(ctx, &lists); err != nil {
		return err
	}
	if len(lists) == 0 {
		return nil
	}

	listIDs := make([]string, 0, len(lists))
	for _, l := range lists {
		listIDs = append(listIDs, l.ID)
	}
	if _, err := m.tasks.DeleteMany(ctx, bson.M{"list_id": bson.M{"$in": listIDs}}); err != nil {
		return err
	}
	_, err = m.lists.DeleteMany(ctx, bson.M{"user_id": id})
	return err
}

func (m *Mongo) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDocument
	if err := m.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapMongoError(err)
	}
	return doc.toModel(), nil
}

func (m *Mongo) ListLists(ctx context.Context, userID string) ([]model.List, error) {
	cursor, err := m.lists.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.D{{Key: "created", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []listDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]model.List, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (m *Mongo) GetList(ctx context.Context, userID, listID string) (*model.List, error) {
	var doc listDocument
	if err := m.lists.FindOne(ctx, bson.M{"_id": listID, "user_id": userID}).Decode(&doc); err != nil {
		return nil, mapMongoError(err)
	}
	l := doc.toModel()
	return &l, nil
}

func (m *Mongo) CreateList(ctx context.Context, list *model.List) error {
	_, err := m.lists.InsertOne(ctx, listDocument{
		ID:      list.ID,
		UserID:  list.UserID,
		Title:   list.Title,
		Created: list.Created,
	})
	return mapMongoError(err)
}

func (m *Mongo) UpdateListTitle(ctx context.Context, userID, listID, title string) (*model.List, error) {
	var doc listDocument
	err := m.lists.FindOneAndUpdate(ctx,
		bson.M{"_id": listID, "user_id": userID},
		bson.M{"$set": bson.M{"title": title}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, mapMongoError(err)
	}
	l := doc.toModel()
	return &l, nil
}

func (m *Mongo) DeleteList(ctx context.Context, userID, listID string) (*model.List, error) {
	var doc listDocument
	if err := m.lists.FindOneAndDelete(ctx, bson.M{"_id": listID, "user_id": userID}).Decode(&doc); err != nil {
		return nil, mapMongoError(err)
	}
	if _, err := m.tasks.DeleteMany(ctx, bson.M{"list_id": listID}); err != nil {
		return nil, fmt.Errorf("list %s deleted but its tasks were not: %w", listID, err)
	}
	l := doc.toModel()
	return &l, nil
}

func (m *Mongo) ListTasks(ctx context.Context, listID string) ([]model.Task, error) {
	cursor, err := m.tasks.Find(ctx, bson.M{"list_id": listID}, options.Find().SetSort(bson.D{{Key: "created", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]model.Task, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (m *Mongo) CreateTask(ctx context.Context, task *model.Task) error {
	_, err := m.tasks.InsertOne(ctx, taskDocument{
		ID:        task.ID,
		ListID:    task.ListID,
		Title:     task.Title,
		Completed: task.Completed,
		Created:   task.Created,
		Updated:   task.Updated,
	})
	return mapMongoError(err)
}

func (m *Mongo) UpdateTask(ctx context.Context, listID, taskID string, patch model.TaskPatch, updated time.Time) (*model.Task, error) {
	set := bson.M{"updated": updated}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
	}

	var doc taskDocument
	err := m.tasks.FindOneAndUpdate(ctx,
		bson.M{"_id": taskID, "list_id": listID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, mapMongoError(err)
	}
	t := doc.toModel()
	return &t, nil
}

func (m *Mongo) DeleteTask(ctx context.Context, listID, taskID string) (*model.Task, error) {
	var doc taskDocument
	if err := m.tasks.FindOneAndDelete(ctx, bson.M{"_id": taskID, "list_id": listID}).Decode(&doc); err != nil {
		return nil, mapMongoError(err)
	}
	t := doc.toModel()
	return &t, nil
}

func toUserDocument(u *model.User) userDocument {
	sessions := u.Sessions()
	if sessions == nil {
		sessions = []model.Session{}
	}
	return userDocument{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Sessions:     sessions,
		Version:      u.Version,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDocument) toModel() *model.User {
	u := &model.User{
		ID:           d.ID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Version:      d.Version,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	u.RestoreSessions(d.Sessions)
	return u
}

func (d listDocument) toModel() model.List {
	return model.List{ID: d.ID, UserID: d.UserID, Title: d.Title, Created: d.Created}
}

func (d taskDocument) toModel() model.Task {
	return model.Task{
		ID:        d.ID,
		ListID:    d.ListID,
		Title:     d.Title,
		Completed: d.Completed,
		Created:   d.Created,
		Updated:   d.Updated,
	}
}

func mapMongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}
