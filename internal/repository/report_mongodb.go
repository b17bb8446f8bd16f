package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"tracc-api/internal/model"
)

// MongoReportRepository implements ReportRepository for MongoDB.
type MongoReportRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewMongoReportRepository connects to MongoDB and prepares the report collection.
func NewMongoReportRepository(uri, database, collection string, logger *zap.Logger) (*MongoReportRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("report_repository")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(10).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(database).Collection(collection)

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "as_of", Value: -1}},
	}
	if _, err := coll.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Warn("failed to create index", zap.Error(err))
	}

	logger.Info("connected", zap.String("database", database), zap.String("collection", collection))
	return &MongoReportRepository{
		client:     client,
		collection: coll,
		logger:     logger,
	}, nil
}

// InsertReport stores a report. Decimal totals are written as strings.
func (r *MongoReportRepository) InsertReport(ctx context.Context, report *model.StockReport) error {
	report.TotalLevelKg = report.TotalLevel.String()
	report.TotalCapacityKg = report.TotalCapacity.String()

	if _, err := r.collection.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to insert stock report: %w", err)
	}
	return nil
}

// ListReports returns archived reports with pagination, newest first.
func (r *MongoReportRepository) ListReports(ctx context.Context, limit, offset int) ([]model.StockReport, int64, error) {
	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "as_of", Value: -1}})
	findOptions.SetLimit(int64(limit))
	findOptions.SetSkip(int64(offset))

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find stock reports: %w", err)
	}
	defer cursor.Close(ctx)

	var reports []model.StockReport
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, 0, fmt.Errorf("failed to decode stock reports: %w", err)
	}

	// Ensure not nil slice for JSON
	if reports == nil {
		reports = []model.StockReport{}
	}
	for i := range reports {
		restoreTotals(&reports[i])
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count stock reports: %w", err)
	}

	return reports, count, nil
}

// Close closes the MongoDB connection.
func (r *MongoReportRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func restoreTotals(report *model.StockReport) {
	if v, err := decimal.NewFromString(report.TotalLevelKg); err == nil {
		report.TotalLevel = v
	}
	if v, err := decimal.NewFromString(report.TotalCapacityKg); err == nil {
		report.TotalCapacity = v
	}
}

// Ensure MongoReportRepository implements ReportRepository
var _ ReportRepository = (*MongoReportRepository)(nil)
