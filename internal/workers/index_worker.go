package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Phoenix-070/Edutranscribe/internal/models"
)

// IndexWorkerPool consumes index jobs from a Redis stream consumer group.
type IndexWorkerPool struct {
	Redis      *redis.Client
	Indexer    *Indexer
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *IndexWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Indexer == nil {
		return errors.New("IndexWorkerPool missing dependency: Redis/Indexer must be set")
	}
	if p.Stream == "" {
		p.Stream = DefaultStream
	}
	if p.Group == "" {
		p.Group = DefaultGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}
	if p.Indexer.Notify == nil {
		p.Indexer.Notify = p.publish
	}
	if p.Indexer.Logger == nil {
		p.Indexer.Logger = p.Logger
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	p.Logger.WithFields(logrus.Fields{"stream": p.Stream, "workers": p.NumWorkers}).Info("index workers started")
	return nil
}

func (p *IndexWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).Warn("xreadgroup failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *IndexWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	job, ok := decodeJob(msg.Values)
	if !ok {
		p.Logger.WithField("redis_id", msg.ID).Warn("dropping malformed index job")
		return
	}
	// Failures are recorded on the document; the entry is acked either way.
	_ = p.Indexer.Index(ctx, job)
}

func (p *IndexWorkerPool) publish(ctx context.Context, st models.IndexStatus) {
	b, err := json.Marshal(st)
	if err != nil {
		return
	}
	if err := p.Redis.Publish(ctx, StatusChannel(st.PdfID), string(b)).Err(); err != nil {
		p.Logger.WithError(err).WithField("pdf_id", st.PdfID).Warn("status publish failed")
	}
}
