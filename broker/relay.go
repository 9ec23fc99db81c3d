package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/softex1/tably-paket1/hub"
	"github.com/softex1/tably-paket1/utils"
)

// Sink receives messages consumed from the exchange.
type Sink interface {
	Publish(msg hub.Message)
}

// Relay consumes the exchange through a private queue and hands every
// message to the local hub, including ones this instance published.
type Relay struct {
	URL      string
	Exchange string
	Sink     Sink
}

func NewRelay(url, exchange string, sink Sink) *Relay {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &Relay{URL: url, Exchange: exchange, Sink: sink}
}

type wireMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (r *Relay) Run(ctx context.Context) error {
	for {
		conn, ch, err := dial(ctx, r.URL, r.Exchange)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		err = r.consume(ctx, ch)
		_ = ch.Close()
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		utils.ErrorLogger.Errorf("broker: relay stopped: %v; reconnecting", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (r *Relay) consume(ctx context.Context, ch *amqp.Channel) error {
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return errors.Wrap(err, "declare relay queue")
	}
	if err := ch.QueueBind(q.Name, "", r.Exchange, false, nil); err != nil {
		return errors.Wrap(err, "bind relay queue")
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "consume relay queue")
	}
	utils.InfoLogger.Infof("broker: relaying %s into live feed", r.Exchange)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := r.handle(d.Body); err != nil {
				utils.ErrorLogger.Errorf("broker: %v", err)
			}
		}
	}
}

func (r *Relay) handle(body []byte) error {
	var msg wireMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return errors.Wrap(err, "decode relayed message")
	}
	if msg.Event == "" {
		return errors.New("relayed message has no event")
	}
	r.Sink.Publish(hub.Message{Event: msg.Event, Data: msg.Data})
	return nil
}
