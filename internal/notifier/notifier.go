// Package notifier delivers keyword-processed events to the owner's live
// connection. Delivery is best effort: a user with no open connection, or a
// push that fails mid-flight, never affects the processing pipeline.
package notifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/serpwatch/serpwatch/internal/keyword"
	"github.com/serpwatch/serpwatch/internal/report"
	"github.com/serpwatch/serpwatch/internal/telemetry"
)

// EventKeywordProcessed is the event name pushed when a keyword finishes
// processing.
const EventKeywordProcessed = "keyword-processed"

// Notifier looks up the owner's most recent connection and pushes the
// finished keyword's report over it. It implements keyword.Notifier.
type Notifier struct {
	connections keyword.ConnectionStore
	reports     *report.Service
	pusher      keyword.Pusher
	logger      *zap.Logger
}

// New constructs a Notifier.
func New(
	connections keyword.ConnectionStore,
	reports *report.Service,
	pusher keyword.Pusher,
	logger *zap.Logger,
) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		connections: connections,
		reports:     reports,
		pusher:      pusher,
		logger:      logger,
	}
}

// Notify pushes the keyword's report to the owner's latest connection.
// Every failure path logs and returns; nothing here mutates keyword state
// and nothing propagates back to the worker.
func (n *Notifier) Notify(ctx context.Context, ownerID string, keywordID int64) {
	logger := n.logger.With(
		zap.String("user_id", ownerID),
		zap.Int64("keyword_id", keywordID),
	)

	conn, err := n.connections.LatestByUserID(ctx, ownerID)
	if err != nil {
		if keyword.IsNotFound(err) {
			logger.Warn("can not get user connection")
			telemetry.IncPush(telemetry.PushNoConnection)
			return
		}
		logger.Error("look up user connection failed", zap.Error(err))
		telemetry.IncPush(telemetry.PushFailed)
		return
	}

	payload, err := n.reports.GetScrapedResult(ctx, keywordID)
	if err != nil {
		logger.Error("build keyword report failed", zap.Error(err))
		telemetry.IncPush(telemetry.PushFailed)
		return
	}

	if err := n.pusher.Push(ctx, conn.ConnectionID, EventKeywordProcessed, payload); err != nil {
		logger.Warn("push keyword-processed event failed", zap.Error(err))
		telemetry.IncPush(telemetry.PushFailed)
		return
	}
	telemetry.IncPush(telemetry.PushDelivered)
	logger.Debug("keyword-processed event delivered",
		zap.String("connection_id", conn.ConnectionID))
}
