// Package mongolog keeps an append-only log of payment gateway callbacks in
// MongoDB, separate from the relational order state.
package mongolog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yungbote/shopfront-backend/internal/platform/envutil"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

const CollectionPaymentEvents = "payment_events"

const (
	SourceReturn = "return"
	SourceIPN    = "ipn"
)

var ErrNotConfigured = errors.New("mongolog: missing MONGO_URI")

type PaymentEvent struct {
	ID           string            `bson:"_id,omitempty" json:"id,omitempty"`
	Source       string            `bson:"source" json:"source"`
	TxnRef       string            `bson:"txn_ref" json:"txn_ref"`
	OrderID      string            `bson:"order_id,omitempty" json:"order_id,omitempty"`
	OrderCode    string            `bson:"order_code,omitempty" json:"order_code,omitempty"`
	Amount       int64             `bson:"amount" json:"amount"`
	ResponseCode string            `bson:"response_code" json:"response_code"`
	Outcome      string            `bson:"outcome" json:"outcome"`
	ValidSig     bool              `bson:"valid_signature" json:"valid_signature"`
	Params       map[string]string `bson:"params" json:"params"`
	Timestamp    time.Time         `bson:"timestamp" json:"timestamp"`
}

type EventLog interface {
	Append(ctx context.Context, evt PaymentEvent) error
	ListByTxnRef(ctx context.Context, txnRef string, limit int) ([]PaymentEvent, error)
	Close(ctx context.Context) error
}

type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

func ConfigFromEnv(log *logger.Logger) Config {
	return Config{
		URI:      envutil.String("MONGO_URI", "", nil),
		Database: envutil.String("MONGO_DB", "shopfront", log),
		Timeout:  envutil.Seconds("MONGO_TIMEOUT_SECONDS", 5*time.Second),
	}
}

type mongoLog struct {
	log    *logger.Logger
	client *mongo.Client
	coll   *mongo.Collection
	tmo    time.Duration
}

func NewFromEnv(ctx context.Context, log *logger.Logger) (EventLog, error) {
	return New(ctx, log, ConfigFromEnv(log))
}

// New connects, pings and makes sure the txn_ref index exists.
func New(ctx context.Context, log *logger.Logger, cfg Config) (EventLog, error) {
	if cfg.URI == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Database == "" {
		cfg.Database = "shopfront"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	cctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(CollectionPaymentEvents)
	_, err = coll.Indexes().CreateOne(cctx, mongo.IndexModel{
		Keys: bson.D{{Key: "txn_ref", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo index: %w", err)
	}

	l := log.With("client", "MongoPaymentLog")
	l.Info("Mongo payment event log ready", "database", cfg.Database, "collection", CollectionPaymentEvents)
	return &mongoLog{log: l, client: client, coll: coll, tmo: cfg.Timeout}, nil
}

func (m *mongoLog) Append(ctx context.Context, evt PaymentEvent) error {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	cctx, cancel := context.WithTimeout(ctx, m.tmo)
	defer cancel()
	if _, err := m.coll.InsertOne(cctx, evt); err != nil {
		return fmt.Errorf("append payment event: %w", err)
	}
	return nil
}

func (m *mongoLog) ListByTxnRef(ctx context.Context, txnRef string, limit int) ([]PaymentEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	cctx, cancel := context.WithTimeout(ctx, m.tmo)
	defer cancel()

	cur, err := m.coll.Find(cctx,
		bson.M{"txn_ref": txnRef},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, fmt.Errorf("find payment events: %w", err)
	}
	defer cur.Close(cctx)

	var out []PaymentEvent
	if err := cur.All(cctx, &out); err != nil {
		return nil, fmt.Errorf("decode payment events: %w", err)
	}
	return out, nil
}

func (m *mongoLog) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
