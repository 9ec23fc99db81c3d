// Package broker shares live feed events between instances over a
// RabbitMQ fanout exchange.
package broker

import (
	"context"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/softex1/tably-paket1/utils"
)

const DefaultExchange = "tably.calls"

// dial connects and declares the fanout exchange, retrying with backoff
// until ctx is done.
func dial(ctx context.Context, url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	var (
		conn *amqp.Connection
		ch   *amqp.Channel
	)
	err := retry.Do(
		func() error {
			c, err := amqp.Dial(url)
			if err != nil {
				return err
			}
			channel, err := c.Channel()
			if err != nil {
				_ = c.Close()
				return err
			}
			if err := channel.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
				_ = c.Close()
				return err
			}
			conn, ch = c, channel
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(10),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			utils.ErrorLogger.Errorf("broker: dial attempt %d failed: %v", n+1, err)
		}),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dial amqp")
	}
	return conn, ch, nil
}

// sleepCtx waits d or until ctx is done, reporting whether to continue.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
