package broker

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/softex1/tably-paket1/hub"
	"github.com/softex1/tably-paket1/utils"
)

// Publisher forwards hub messages to the exchange. Publish only enqueues;
// Run owns the connection.
type Publisher struct {
	URL      string
	Exchange string

	queue   chan hub.Message
	dropped atomic.Int64
}

func NewPublisher(url, exchange string, buffer int) *Publisher {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if buffer < 1 {
		buffer = 256
	}
	return &Publisher{URL: url, Exchange: exchange, queue: make(chan hub.Message, buffer)}
}

func (p *Publisher) Publish(msg hub.Message) {
	select {
	case p.queue <- msg:
	default:
		p.dropped.Add(1)
		utils.ErrorLogger.Errorf("broker: queue full, dropped %s", msg.Event)
	}
}

func (p *Publisher) Dropped() int64 { return p.dropped.Load() }

// Run publishes queued messages until ctx is cancelled, reconnecting when
// the channel fails.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		conn, ch, err := dial(ctx, p.URL, p.Exchange)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		utils.InfoLogger.Infof("broker: publishing to exchange %s", p.Exchange)

		err = p.pump(ctx, ch)
		_ = ch.Close()
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		utils.ErrorLogger.Errorf("broker: publisher stopped: %v; reconnecting", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (p *Publisher) pump(ctx context.Context, ch *amqp.Channel) error {
	closed := ch.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			return errors.Errorf("channel closed: %v", amqpErr)
		case msg := <-p.queue:
			body, err := json.Marshal(msg)
			if err != nil {
				utils.ErrorLogger.Errorf("broker: marshal %s: %v", msg.Event, err)
				continue
			}
			pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = ch.PublishWithContext(pubCtx, p.Exchange, "", false, false, amqp.Publishing{
				ContentType: "application/json",
				Timestamp:   time.Now(),
				Type:        msg.Event,
				Body:        body,
			})
			cancel()
			if err != nil {
				return errors.Wrapf(err, "publish %s", msg.Event)
			}
		}
	}
}
