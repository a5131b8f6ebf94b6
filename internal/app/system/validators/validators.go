// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/usersvc/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// collections lists what usersvc owns. A nil schema only ensures the
// collection exists.
var collections = []struct {
	name   string
	schema func() bson.M
}{
	{"users", usersSchema},
	{"audit_events", nil},
}

// EnsureAll creates the owned collections and attaches their JSON-Schema
// validators. Servers without collMod validator support (some DocumentDB
// versions) are logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	var problems []string
	for _, c := range collections {
		if err := ensureCollection(ctx, db, c.name, logger); err != nil {
			problems = append(problems, c.name+": "+err.Error())
			continue
		}
		if c.schema == nil {
			continue
		}
		err := setValidator(ctx, db, c.name, c.schema())
		switch {
		case err == nil:
			logger.Info("validator ensured", zap.String("collection", c.name))
		case unsupported(err):
			logger.Info("validator skipped (unsupported)", zap.String("collection", c.name))
		default:
			problems = append(problems, c.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, logger *zap.Logger) error {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err == nil && len(names) > 0 {
		return nil
	}
	// Listing failed or the collection is missing; create and tolerate a race.
	if err := db.CreateCollection(ctx, name); err != nil {
		if namespaceExists(err) {
			return nil
		}
		logger.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return err
	}
	logger.Info("created collection", zap.String("collection", name))
	return nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	return db.RunCommand(ctx, cmd).Err()
}

/* ------------------------- error classification ------------------------- */

// commandError reports whether err is a server command error with one of
// codes, or whose text contains one of phrases.
func commandError(err error, codes []int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		for _, c := range codes {
			if ce.Code == c {
				return true
			}
		}
	}
	msg := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// NamespaceExists (48).
func namespaceExists(err error) bool {
	return commandError(err, []int32{48}, "already exists", "namespace exists")
}

// CommandNotFound (59) or CommandNotSupported (115).
func unsupported(err error) bool {
	return commandError(err, []int32{59, 115}, "no such command", "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

// usersSchema mirrors the record invariants: lowercase uid, role from the
// fixed enumeration, optional img/phone.
func usersSchema() bson.M {
	roleEnum := bson.A{}
	for _, r := range models.AllRoles() {
		roleEnum = append(roleEnum, r)
	}

	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"uid", "role"},
			"properties": bson.M{
				"uid":   bson.M{"bsonType": "string", "minLength": 1, "pattern": "^[^A-Z]+$"},
				"role":  bson.M{"enum": roleEnum},
				"img":   bson.M{"bsonType": bson.A{"string", "null"}},
				"phone": bson.M{"bsonType": bson.A{"string", "null"}},
			},
		},
	}
}
