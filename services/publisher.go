package services

import "github.com/softex1/tably-paket1/hub"

// Publisher delivers domain events to admin viewers. Implementations must
// not block the caller.
type Publisher interface {
	Publish(msg hub.Message)
}

type nopPublisher struct{}

func (nopPublisher) Publish(hub.Message) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
