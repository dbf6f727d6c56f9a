package ical

// Config holds the small set of values the translator needs from its
// caller rather than from the wire format itself: the organizer
// address used when an event carries no explicit replyTo, and the
// PRODID stamped on generated VCALENDARs.
type Config struct {
	ProdID              string
	CalendarUserAddress string
}

// Option configures a Converter.
type Option func(*Config)

// WithProdID overrides the PRODID written on generated VCALENDARs.
func WithProdID(prodID string) Option {
	return func(c *Config) { c.ProdID = prodID }
}

// WithCalendarUserAddress sets the CAL-ADDRESS used for the organizer
// and default email-alert ATTENDEE when an event supplies none.
func WithCalendarUserAddress(address string) Option {
	return func(c *Config) { c.CalendarUserAddress = address }
}

func defaultConfig() *Config {
	return &Config{ProdID: "-//jmapio//jscal//EN"}
}

func newConfig(opts []Option) *Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
