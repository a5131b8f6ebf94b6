// Package clubstore reads the clubs and members collections, which are
// owned by the clubs service. Nothing here writes to them.
package clubstore

import (
	"context"
	"sort"

	"github.com/dalemusser/usersvc/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StateActive is the club state the report considers.
const StateActive = "active"

type Store struct {
	clubs   *mongo.Collection
	members *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		clubs:   db.Collection("clubs"),
		members: db.Collection("members"),
	}
}

// ActiveClubIDs returns the cids of all active clubs, sorted.
func (s *Store) ActiveClubIDs(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 0, "cid": 1})
	cur, err := s.clubs.Find(ctx, bson.M{"state": StateActive}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var clubs []models.Club
	if err := cur.All(ctx, &clubs); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(clubs))
	for _, c := range clubs {
		out = append(out, c.CID)
	}
	sort.Strings(out)
	return out, nil
}

// CurrentMemberUIDs returns the distinct uids of members of the given clubs
// holding at least one role that is ongoing or ends in year or later.
// The result is sorted.
func (s *Store) CurrentMemberUIDs(ctx context.Context, cids []string, year int) ([]string, error) {
	if len(cids) == 0 {
		return []string{}, nil
	}
	filter := bson.M{
		"cid": bson.M{"$in": cids},
		"roles": bson.M{"$elemMatch": bson.M{"$or": bson.A{
			bson.M{"end_year": nil},
			bson.M{"end_year": bson.M{"$gte": year}},
		}}},
	}
	opts := options.Find().SetProjection(bson.M{"_id": 0, "cid": 1, "uid": 1, "roles": 1})
	cur, err := s.members.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	seen := make(map[string]struct{})
	out := []string{}
	for cur.Next(ctx) {
		var m models.Member
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		if !m.IsCurrent(year) {
			continue
		}
		if _, dup := seen[m.UID]; dup {
			continue
		}
		seen[m.UID] = struct{}{}
		out = append(out, m.UID)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
