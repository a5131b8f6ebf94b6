package userstore

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/usersvc/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateUID is returned by Insert when the uid already has a record.
var ErrDuplicateUID = errors.New("a user with this uid already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// projection keeps _id out of decoded records.
var projection = bson.M{"_id": 0, "uid": 1, "role": 1, "img": 1, "phone": 1}

// GetByUID loads a user by uid. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	var u models.User
	opts := options.FindOne().SetProjection(projection)
	if err := s.c.FindOne(ctx, bson.M{"uid": strings.ToLower(uid)}, opts).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Insert creates a record. The uid is lowercased and an empty role becomes
// the default role. Returns ErrDuplicateUID if the uid is taken.
func (s *Store) Insert(ctx context.Context, u models.User) (models.User, error) {
	u.UID = strings.ToLower(u.UID)
	if u.Role == "" {
		u.Role = models.DefaultRole
	}
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateUID
		}
		return models.User{}, err
	}
	return u, nil
}

// SetRole changes a user's role. Returns mongo.ErrNoDocuments if the uid has
// no record.
func (s *Store) SetRole(ctx context.Context, uid, role string) error {
	return s.set(ctx, uid, bson.M{"role": role})
}

// SetPhone replaces the phone number; nil clears it.
func (s *Store) SetPhone(ctx context.Context, uid string, phone *string) error {
	return s.set(ctx, uid, bson.M{"phone": phone})
}

// SetProfileData replaces image and phone together; nil clears a field.
func (s *Store) SetProfileData(ctx context.Context, uid string, img, phone *string) error {
	return s.set(ctx, uid, bson.M{"img": img, "phone": phone})
}

func (s *Store) set(ctx context.Context, uid string, fields bson.M) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"uid": strings.ToLower(uid)}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListByRole returns every user with role, ordered by uid.
func (s *Store) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	opts := options.Find().
		SetProjection(projection).
		SetSort(bson.D{{Key: "uid", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"role": role}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UIDsWithoutImage returns those of uids whose record has no image, ordered
// by uid. Uids without a record are not returned.
func (s *Store) UIDsWithoutImage(ctx context.Context, uids []string) ([]string, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(uids))
	for i, u := range uids {
		lowered[i] = strings.ToLower(u)
	}

	filter := bson.M{
		"uid": bson.M{"$in": lowered},
		"$or": bson.A{bson.M{"img": nil}, bson.M{"img": ""}},
	}
	opts := options.Find().
		SetProjection(bson.M{"_id": 0, "uid": 1}).
		SetSort(bson.D{{Key: "uid", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var row struct {
			UID string `bson:"uid"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, row.UID)
	}
	return out, cur.Err()
}
