package mongodb

import (
	"context"
	"fmt"

	"github.com/ukane-philemon/srms/internal/student"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Load implements student.Persister. Documents that fail validation or
// repeat an id already in repo are skipped and logged.
func (mdb *MongoDB) Load(ctx context.Context, repo student.Repository) error {
	opts := options.Find().SetSort(bson.D{{Key: dbIDKey, Value: 1}})
	cur, err := mdb.studentCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("studentCollection.Find error: %w", err)
	}

	var students []*dbStudent
	if err = cur.All(ctx, &students); err != nil {
		return fmt.Errorf("failed to decode student records: %w", err)
	}

	var skipped int
	for _, ds := range students {
		s, err := student.FromRecord(ds.Record())
		if err == nil {
			err = repo.Add(s)
		}
		if err != nil {
			skipped++
			mdb.log.Warn("Skipping invalid record", zap.Int("id", ds.ID), zap.Error(err))
		}
	}

	mdb.log.Debug("Load completed", zap.Int("records", len(students)-skipped), zap.Int("skipped", skipped))
	return nil
}

// Save implements student.Persister. Every student is upserted and
// documents for students no longer in repo are deleted.
func (mdb *MongoDB) Save(ctx context.Context, repo student.Repository) error {
	students := repo.Students()

	ids := make([]int, 0, len(students))
	models := make([]mongo.WriteModel, 0, len(students))
	for _, s := range students {
		r := s.Record()
		ids = append(ids, r.ID)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{dbIDKey: r.ID}).
			SetReplacement(newDBStudent(r)).
			SetUpsert(true))
	}

	if len(models) > 0 {
		_, err := mdb.studentCollection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
		if err != nil {
			return fmt.Errorf("studentCollection.BulkWrite error: %w", err)
		}
	}

	res, err := mdb.studentCollection.DeleteMany(ctx, bson.M{dbIDKey: bson.M{opNotIn: ids}})
	if err != nil {
		return fmt.Errorf("studentCollection.DeleteMany error: %w", err)
	}

	mdb.log.Debug("Save completed", zap.Int("records", len(students)), zap.Int64("deleted", res.DeletedCount))
	return nil
}
