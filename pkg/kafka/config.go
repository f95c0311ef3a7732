package kafka

import "time"

type config struct {
	Brokers      []string
	Topic        string
	Compression  string
	MaxAttempts  int
	RequiredAcks int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
}

func defaultConfig() config {
	return config{
		Compression:  "snappy",
		MaxAttempts:  3,
		RequiredAcks: 1,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}
}

type Option func(*config)

func WithBrokers(brokers ...string) Option {
	return func(c *config) { c.Brokers = brokers }
}

func WithTopic(topic string) Option {
	return func(c *config) { c.Topic = topic }
}

func WithCompression(name string) Option {
	return func(c *config) { c.Compression = name }
}

func WithMaxAttempts(n int) Option {
	return func(c *config) { c.MaxAttempts = n }
}

func WithRequiredAcks(acks int) Option {
	return func(c *config) { c.RequiredAcks = acks }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(c *config) { c.WriteTimeout = d }
}
