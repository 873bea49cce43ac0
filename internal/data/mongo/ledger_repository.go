package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/card-authorization-gateway/internal/domain/ledger"
)

const (
	// TransactionRecordsCollection holds the published transaction log
	TransactionRecordsCollection = "transaction_records"
)

// recordDocument is the stored shape of a ledger.TransactionRecord. Ids are kept
// as strings and amounts as Decimal128 so documents stay readable from the shell.
type recordDocument struct {
	TransactionID string               `bson:"transaction_id"`
	RequestID     string               `bson:"request_id,omitempty"`
	MerchantName  string               `bson:"merchant_name"`
	CardSuffix    string               `bson:"card_suffix"`
	Amount        primitive.Decimal128 `bson:"amount"`
	Approved      bool                 `bson:"approved"`
	ErrorReason   string               `bson:"error_reason,omitempty"`
	CorrelationID string               `bson:"correlation_id,omitempty"`
	CreatedAt     time.Time            `bson:"created_at"`
}

func toDocument(record *ledger.TransactionRecord) (*recordDocument, error) {
	amount, err := primitive.ParseDecimal128(record.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("failed to encode amount %s: %w", record.Amount, err)
	}

	return &recordDocument{
		TransactionID: record.TransactionID.String(),
		RequestID:     record.RequestID,
		MerchantName:  record.MerchantName,
		CardSuffix:    record.CardSuffix,
		Amount:        amount,
		Approved:      record.Approved,
		ErrorReason:   record.ErrorReason,
		CorrelationID: record.CorrelationID,
		CreatedAt:     record.CreatedAt,
	}, nil
}

func (d *recordDocument) toRecord() (*ledger.TransactionRecord, error) {
	id, err := uuid.Parse(d.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction id %q: %w", d.TransactionID, err)
	}
	amount, err := decimal.NewFromString(d.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("invalid amount for transaction %s: %w", d.TransactionID, err)
	}

	return &ledger.TransactionRecord{
		TransactionID: id,
		RequestID:     d.RequestID,
		MerchantName:  d.MerchantName,
		CardSuffix:    d.CardSuffix,
		Amount:        amount,
		Approved:      d.Approved,
		ErrorReason:   d.ErrorReason,
		CorrelationID: d.CorrelationID,
		CreatedAt:     d.CreatedAt.UTC(),
	}, nil
}

// LedgerRepository implements the ledger.Repository interface for MongoDB
type LedgerRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewLedgerRepository creates a new MongoDB ledger repository
func NewLedgerRepository(logger *slog.Logger, db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{
		db:     db,
		logger: logger,
	}
}

func (r *LedgerRepository) collection() *mongo.Collection {
	return r.db.Collection(TransactionRecordsCollection)
}

// EnsureIndexes creates the unique transaction id index and the index used by
// merchant history queries. It is safe to call on every start.
func (r *LedgerRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transaction_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "merchant_name", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create transaction record indexes: %w", err)
	}
	return nil
}

// Create stores a transaction record. The unique index on transaction_id turns a
// second publication of the same record into ErrDuplicateRecord.
func (r *LedgerRepository) Create(ctx context.Context, record *ledger.TransactionRecord) error {
	doc, err := toDocument(record)
	if err != nil {
		return err
	}

	if _, err := r.collection().InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrDuplicateRecord{TransactionID: record.TransactionID}
		}
		r.logger.Error("Failed to create transaction record",
			"transaction_id", record.TransactionID.String(),
			"error", err)
		return fmt.Errorf("failed to create transaction record: %w", err)
	}

	return nil
}

// GetByTransactionID retrieves a record by its transaction ID.
// Returns ErrRecordNotFound if no record exists for the given transaction.
func (r *LedgerRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*ledger.TransactionRecord, error) {
	filter := bson.M{"transaction_id": transactionID.String()}

	var doc recordDocument
	if err := r.collection().FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrRecordNotFound{TransactionID: transactionID}
		}
		r.logger.Error("Failed to get transaction record",
			"transaction_id", transactionID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get transaction record: %w", err)
	}

	return doc.toRecord()
}

// GetByMerchant retrieves paginated records for a merchant.
// Results are sorted by creation time in descending order (newest first).
func (r *LedgerRepository) GetByMerchant(ctx context.Context, merchantName string, limit, offset int) ([]*ledger.TransactionRecord, error) {
	filter := bson.M{"merchant_name": merchantName}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get transaction records",
			"merchant_name", merchantName,
			"error", err)
		return nil, fmt.Errorf("failed to get transaction records: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []recordDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode transaction records",
			"merchant_name", merchantName,
			"error", err)
		return nil, fmt.Errorf("failed to decode transaction records: %w", err)
	}

	records := make([]*ledger.TransactionRecord, 0, len(docs))
	for i := range docs {
		record, err := docs[i].toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// CountByMerchant counts the total number of records for a merchant
func (r *LedgerRepository) CountByMerchant(ctx context.Context, merchantName string) (int64, error) {
	count, err := r.collection().CountDocuments(ctx, bson.M{"merchant_name": merchantName})
	if err != nil {
		r.logger.Error("Failed to count transaction records",
			"merchant_name", merchantName,
			"error", err)
		return 0, fmt.Errorf("failed to count transaction records: %w", err)
	}

	return count, nil
}
