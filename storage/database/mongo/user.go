package mongorepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/studydesk/core/user"
)

type userDoc struct {
	ID           string     `bson:"_id"`
	Name         string     `bson:"name"`
	Email        string     `bson:"email"`
	IsActive     bool       `bson:"is_active"`
	PasswordHash []byte     `bson:"password_hash,omitempty"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
	LastLogin    *time.Time `bson:"last_login,omitempty"`
}

func toUserDoc(usr user.User) userDoc {
	doc := userDoc{
		ID:           usr.ID,
		Name:         usr.Name,
		Email:        usr.Email,
		IsActive:     usr.IsActive,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
	}
	if !usr.LastLogin.IsZero() {
		last := usr.LastLogin.UTC()
		doc.LastLogin = &last
	}
	return doc
}

func (doc userDoc) user() user.User {
	usr := user.User{
		ID:           doc.ID,
		Name:         doc.Name,
		Email:        doc.Email,
		IsActive:     doc.IsActive,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    utc(doc.CreatedAt),
		UpdatedAt:    utc(doc.UpdatedAt),
	}
	if doc.LastLogin != nil {
		usr.LastLogin = doc.LastLogin.UTC()
	}
	return usr
}

type userRepository struct {
	coll *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *mongo.Database) user.Repository {
	return &userRepository{coll: db.Collection(usersCollection)}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	filter := bson.M{"email": email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		filter["_id"] = bson.M{"$nin": ids}
	}

	n, err := repo.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if n > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	if _, err := repo.coll.InsertOne(ctx, toUserDoc(usr)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := repo.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	var docs []userDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "reading users")
	}
	users := make([]user.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.user())
	}
	return users, nil
}

func (repo *userRepository) getUser(ctx context.Context, filter bson.M) (user.User, error) {
	var doc userDoc
	if err := repo.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return user.User{}, trapNoDocsErr(err, user.ErrNotFound, "finding user")
	}
	return doc.user(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, bson.M{"_id": id})
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, bson.M{"email": email})
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	doc := toUserDoc(usr)
	set := bson.M{
		"name":          doc.Name,
		"email":         doc.Email,
		"is_active":     doc.IsActive,
		"password_hash": doc.PasswordHash,
		"updated_at":    doc.UpdatedAt,
		"last_login":    doc.LastLogin,
	}
	res, err := repo.coll.UpdateByID(ctx, usr.ID, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if res.MatchedCount == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID)
}
