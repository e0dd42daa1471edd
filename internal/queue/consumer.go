package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/pathik-bd/pathik-api/internal/logger"
)

// ActivityConsumer drains the contribution queue into an append-only
// activity log (one line per event).  The log is what the admin dashboard
// tails to show recent moderation activity.
type ActivityConsumer struct {
	url     string
	logPath string
}

func NewActivityConsumer(url, logPath string) *ActivityConsumer {
	if logPath == "" {
		logPath = filepath.Join("logs", "activity.log")
	}
	return &ActivityConsumer{url: url, logPath: logPath}
}

// Run connects to the broker and consumes until ctx is cancelled.  Dial
// failures back off exponentially up to 30s; a dropped channel reconnects.
func (c *ActivityConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			logger.WithError(err).Warnf("activity-consumer: dial failed; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.WithError(err).Warn("activity-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *ActivityConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.WithError(err).Warn("activity-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(ContributionQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(ContributionQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				logger.WithError(err).Error("activity-consumer: handle message failed")
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *ActivityConsumer) handle(body []byte) error {
	var ev ContributionEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if err := WriteActivity(f, ev); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	logger.WithFields(logrus.Fields{"event": ev.Type, "user_id": ev.UserID}).Debug("activity recorded")
	return nil
}

// WriteActivity formats one event as a single human-readable line.
func WriteActivity(w io.Writer, ev ContributionEvent) error {
	var line string
	switch ev.Type {
	case EventApproved:
		line = fmt.Sprintf("[%s] Contribution approved | id=%s | user=%s | category=%s | title=%q | +%d pts | total=%d | reviewer=%s\n",
			ev.OccurredAt, ev.ContributionID, ev.UserID, ev.Category, ev.Title, ev.Points, ev.TotalPoints, ev.ReviewerID)
	case EventRejected:
		line = fmt.Sprintf("[%s] Contribution rejected | id=%s | user=%s | category=%s | title=%q | reason=%q | reviewer=%s\n",
			ev.OccurredAt, ev.ContributionID, ev.UserID, ev.Category, ev.Title, ev.Reason, ev.ReviewerID)
	case EventGuideCreated:
		line = fmt.Sprintf("[%s] Guide created | guide=%s | tour=%s | user=%s | title=%q | +%d pts | total=%d\n",
			ev.OccurredAt, ev.GuideID, ev.TourID, ev.UserID, ev.Title, ev.Points, ev.TotalPoints)
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	_, err := io.WriteString(w, line)
	return err
}
