package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/ukane-philemon/srms/internal/student"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	// Collections
	studentCollection = "students"

	// Keys
	dbIDKey = "_id"

	// Operators
	opNotIn = "$nin"
)

// Check that *MongoDB implements student.Persister.
var _ student.Persister = (*MongoDB)(nil)

// MongoDB implements student.Persister.
type MongoDB struct {
	db                *mongo.Database
	studentCollection *mongo.Collection
	log               *zap.Logger
}

// New connects to a mongo database and returns a new instance of *MongoDB.
func New(ctx context.Context, dbName string, connectionURL string, logger *zap.Logger) (*MongoDB, error) {
	if connectionURL == "" {
		return nil, errors.New("missing mongodb database connection URL")
	}

	if dbName == "" {
		return nil, errors.New("database name is required")
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("mongodb")

	// Set server API version for the client.
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(connectionURL).SetServerAPIOptions(serverAPI)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}

	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("client.Ping error: %w", err)
	}

	logger.Info("Database has been connected and pinged successfully", zap.String("database", dbName))

	db := client.Database(dbName)
	return &MongoDB{
		db:                db,
		studentCollection: db.Collection(studentCollection),
		log:               logger,
	}, nil
}

// Shutdown attempts to shutdown the database.
func (mdb *MongoDB) Shutdown(ctx context.Context) error {
	err := mdb.db.Client().Disconnect(ctx)
	if err != nil {
		return fmt.Errorf("client.Disconnect error: %w", err)
	}

	mdb.log.Info("Database has been shutdown successfully")

	return nil
}
