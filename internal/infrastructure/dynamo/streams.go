package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	streamtypes "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
	"github.com/turo-backend/internal/domain"
)

// ChangeHandler receives decoded change-feed records.
type ChangeHandler func(ctx context.Context, ev domain.ChangeEvent) error

// StreamWatcher polls a table's DynamoDB stream and hands each record to a
// handler. Records present before Watch starts are skipped; shards opened
// afterwards are read from their beginning. Handler errors are logged and the
// record is not redelivered.
type StreamWatcher struct {
	ddb     *dynamodb.Client
	streams *dynamodbstreams.Client
	poll    time.Duration
}

func NewStreamWatcher(ddb *dynamodb.Client, streams *dynamodbstreams.Client, poll time.Duration) *StreamWatcher {
	return &StreamWatcher{ddb: ddb, streams: streams, poll: poll}
}

type shardCursor struct {
	iterator *string
	lastSeq  *string
	closed   bool
}

// Watch blocks until ctx is cancelled or the stream cannot be resolved.
func (w *StreamWatcher) Watch(ctx context.Context, table string, handle ChangeHandler) error {
	desc, err := w.ddb.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
	if err != nil {
		return fmt.Errorf("describe table %s: %w", table, err)
	}
	if desc.Table == nil || desc.Table.LatestStreamArn == nil {
		return fmt.Errorf("table %s has no stream enabled", table)
	}
	streamARN := desc.Table.LatestStreamArn

	cursors := map[string]*shardCursor{}
	first := true
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		if err := w.discoverShards(ctx, streamARN, cursors, first); err != nil {
			slog.Warn("stream shard discovery failed", "table", table, "err", err)
		}
		first = false

		for shardID, cur := range cursors {
			if cur.closed {
				continue
			}
			w.drainShard(ctx, table, streamARN, shardID, cur, handle)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// discoverShards registers shards not seen before. On the first pass open
// shards start at LATEST and already-closed shards are ignored.
func (w *StreamWatcher) discoverShards(ctx context.Context, streamARN *string, cursors map[string]*shardCursor, first bool) error {
	var start *string
	for {
		out, err := w.streams.DescribeStream(ctx, &dynamodbstreams.DescribeStreamInput{
			StreamArn:             streamARN,
			ExclusiveStartShardId: start,
		})
		if err != nil {
			return err
		}
		for _, sh := range out.StreamDescription.Shards {
			shardID := aws.ToString(sh.ShardId)
			if _, known := cursors[shardID]; known {
				continue
			}
			closed := sh.SequenceNumberRange != nil && sh.SequenceNumberRange.EndingSequenceNumber != nil
			if first && closed {
				cursors[shardID] = &shardCursor{closed: true}
				continue
			}
			iterType := streamtypes.ShardIteratorTypeTrimHorizon
			if first {
				iterType = streamtypes.ShardIteratorTypeLatest
			}
			it, err := w.streams.GetShardIterator(ctx, &dynamodbstreams.GetShardIteratorInput{
				StreamArn:         streamARN,
				ShardId:           sh.ShardId,
				ShardIteratorType: iterType,
			})
			if err != nil {
				return fmt.Errorf("shard iterator %s: %w", shardID, err)
			}
			cursors[shardID] = &shardCursor{iterator: it.ShardIterator}
		}
		start = out.StreamDescription.LastEvaluatedShardId
		if start == nil {
			return nil
		}
	}
}

func (w *StreamWatcher) drainShard(ctx context.Context, table string, streamARN *string, shardID string, cur *shardCursor, handle ChangeHandler) {
	for cur.iterator != nil {
		out, err := w.streams.GetRecords(ctx, &dynamodbstreams.GetRecordsInput{ShardIterator: cur.iterator})
		if err != nil {
			var expired *streamtypes.ExpiredIteratorException
			if errors.As(err, &expired) && cur.lastSeq != nil {
				cur.iterator = w.resume(ctx, streamARN, shardID, cur.lastSeq)
				continue
			}
			slog.Warn("stream read failed", "table", table, "shard", shardID, "err", err)
			return
		}

		for _, rec := range out.Records {
			ev, err := decodeRecord(table, rec)
			if err != nil {
				slog.Error("decode stream record", "table", table, "err", err)
			} else if err := handle(ctx, ev); err != nil {
				slog.Error("stream handler failed", "table", table, "kind", ev.Kind, "err", err)
			}
			if rec.Dynamodb != nil {
				cur.lastSeq = rec.Dynamodb.SequenceNumber
			}
		}

		cur.iterator = out.NextShardIterator
		if cur.iterator == nil {
			cur.closed = true
			return
		}
		if len(out.Records) == 0 {
			return
		}
	}
}

func (w *StreamWatcher) resume(ctx context.Context, streamARN *string, shardID string, after *string) *string {
	it, err := w.streams.GetShardIterator(ctx, &dynamodbstreams.GetShardIteratorInput{
		StreamArn:         streamARN,
		ShardId:           aws.String(shardID),
		ShardIteratorType: streamtypes.ShardIteratorTypeAfterSequenceNumber,
		SequenceNumber:    after,
	})
	if err != nil {
		slog.Warn("stream resume failed", "shard", shardID, "err", err)
		return nil
	}
	return it.ShardIterator
}

func decodeRecord(table string, rec streamtypes.Record) (domain.ChangeEvent, error) {
	ev := domain.ChangeEvent{Table: table, Kind: domain.ChangeKind(rec.EventName)}
	if rec.Dynamodb == nil {
		return ev, nil
	}
	var err error
	if ev.Keys, err = decodeImage(rec.Dynamodb.Keys); err != nil {
		return ev, fmt.Errorf("keys: %w", err)
	}
	if ev.OldImage, err = decodeImage(rec.Dynamodb.OldImage); err != nil {
		return ev, fmt.Errorf("old image: %w", err)
	}
	if ev.NewImage, err = decodeImage(rec.Dynamodb.NewImage); err != nil {
		return ev, fmt.Errorf("new image: %w", err)
	}
	return ev, nil
}

func decodeImage(img map[string]streamtypes.AttributeValue) (domain.Document, error) {
	if img == nil {
		return nil, nil
	}
	av, err := attributevalue.FromDynamoDBStreamsMap(img)
	if err != nil {
		return nil, err
	}
	doc := domain.Document{}
	if err := attributevalue.UnmarshalMap(av, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
