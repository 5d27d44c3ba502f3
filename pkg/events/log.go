package events

import "github.com/sirupsen/logrus"

// LogPublisher writes events to the log. It is useful in tests and in
// deployments without any websocket consumers.
type LogPublisher struct {
	logger logrus.FieldLogger
}

// NewLogPublisher returns a new LogPublisher.
func NewLogPublisher(logger logrus.FieldLogger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(topic string, event Event) {
	p.logger.WithFields(logrus.Fields{
		"topic":  topic,
		"type":   event.Type,
		"gameId": event.GameID,
	}).Debug("event published")
}
