package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Mongo implementa Store sobre as coleções marketDefs, marketStatuses e priceUpdates
type Mongo struct {
	client   *mongo.Client
	defs     *mongo.Collection
	statuses *mongo.Collection
	prices   *mongo.Collection
}

// NewMongo retorna o adaptador usando uma conexão já aberta pelo chamador
func NewMongo(client *mongo.Client, database string) *Mongo {
	db := client.Database(database)
	return &Mongo{
		client:   client,
		defs:     db.Collection(CollectionDefinitions),
		statuses: db.Collection(CollectionStatuses),
		prices:   db.Collection(CollectionPrices),
	}
}

// EnsureIndexes cria os índices únicos que tornam a ingestão idempotente.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	if _, err := m.defs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "changeId", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "marketId", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "eventId", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("create %s indexes: %w", CollectionDefinitions, err)
	}

	if _, err := m.statuses.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "changeId", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "eventId", Value: 1}, {Key: "timestamp", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("create %s indexes: %w", CollectionStatuses, err)
	}

	if _, err := m.prices.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "changeId", Value: 1}, {Key: "runnerId", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "marketId", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "eventId", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("create %s indexes: %w", CollectionPrices, err)
	}
	return nil
}

func (m *Mongo) InsertDefinition(ctx context.Context, rec *MarketDefinitionRecord) error {
	if _, err := m.defs.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert market definition %s: %w", rec.ChangeID, err)
	}
	return nil
}

func (m *Mongo) InsertStatus(ctx context.Context, rec *MarketStatusRecord) error {
	if _, err := m.statuses.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert market status %s: %w", rec.ChangeID, err)
	}
	return nil
}

// InsertPrices usa insertMany não ordenado: o servidor grava todas as linhas
// válidas e reporta as duplicadas em WriteErrors.
func (m *Mongo) InsertPrices(ctx context.Context, recs []PriceUpdateRecord) (BulkResult, error) {
	if len(recs) == 0 {
		return BulkResult{}, nil
	}
	docs := make([]interface{}, len(recs))
	for i := range recs {
		docs[i] = recs[i]
	}

	res, err := m.prices.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return BulkResult{Inserted: len(res.InsertedIDs)}, nil
	}

	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil {
		return BulkResult{}, fmt.Errorf("insert price updates: %w", err)
	}
	out := BulkResult{}
	for _, we := range bwe.WriteErrors {
		if !isDuplicateCode(we.Code) {
			return BulkResult{}, fmt.Errorf("insert price updates: %w", err)
		}
		out.Duplicates = append(out.Duplicates, we.Index)
	}
	out.Inserted = len(recs) - len(out.Duplicates)
	return out, nil
}

func (m *Mongo) LatestDefinition(ctx context.Context, marketID string) (*MarketDefinitionRecord, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	var rec MarketDefinitionRecord
	err := m.defs.FindOne(ctx, bson.M{"marketId": marketID}, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find latest definition %s: %w", marketID, err)
	}
	return &rec, nil
}

// EventSummary pede ao banco o status mais recente de cada mercado ($sort + $first)
// em vez de varrer todos os status em memória.
func (m *Mongo) EventSummary(ctx context.Context, eventID string) (*EventSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "eventId", Value: eventID}}}},
		{{Key: "$sort", Value: bson.D{{Key: "timestamp", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$marketId"},
			{Key: "status", Value: bson.D{{Key: "$first", Value: "$status"}}},
			{Key: "eventName", Value: bson.D{{Key: "$first", Value: "$eventName"}}},
			{Key: "firstSeen", Value: bson.D{{Key: "$min", Value: "$timestamp"}}},
			{Key: "lastSeen", Value: bson.D{{Key: "$max", Value: "$timestamp"}}},
		}}},
	}

	cur, err := m.statuses.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate statuses for event %s: %w", eventID, err)
	}
	defer cur.Close(ctx)

	var rows []marketLatest
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode status aggregate: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	n, err := m.prices.CountDocuments(ctx, bson.M{"eventId": eventID})
	if err != nil {
		return nil, fmt.Errorf("count price updates for event %s: %w", eventID, err)
	}
	return foldSummary(eventID, rows, n), nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// E11000 e variantes antigas
func isDuplicateCode(code int) bool {
	return code == 11000 || code == 11001 || code == 12582
}

// marketLatest é uma linha por mercado com o status mais recente.
type marketLatest struct {
	MarketID  string    `bson:"_id"`
	Status    string    `bson:"status"`
	EventName string    `bson:"eventName"`
	FirstSeen time.Time `bson:"firstSeen"`
	LastSeen  time.Time `bson:"lastSeen"`
}

func foldSummary(eventID string, rows []marketLatest, priceUpdates int64) *EventSummary {
	out := &EventSummary{
		EventID:      eventID,
		Markets:      len(rows),
		StatusCounts: make(map[string]int),
		PriceUpdates: priceUpdates,
	}
	var lastEventName time.Time
	for i, r := range rows {
		out.StatusCounts[r.Status]++
		if i == 0 || r.FirstSeen.Before(out.FirstSeen) {
			out.FirstSeen = r.FirstSeen
		}
		if r.LastSeen.After(out.LastSeen) {
			out.LastSeen = r.LastSeen
		}
		// nome do evento vem do mercado atualizado mais recentemente
		if r.EventName != "" && r.LastSeen.After(lastEventName) {
			out.EventName = r.EventName
			lastEventName = r.LastSeen
		}
	}
	return out
}
