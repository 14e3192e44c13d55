package services

import (
	"sort"
	"strings"
	"time"

	"insproduce-backend/internal/apierr"
)

// CommodityPolicy blocks retired commodity codes regardless of their stored
// active flag.
type CommodityPolicy struct {
	denied map[string]bool
}

func NewCommodityPolicy(codes []string) *CommodityPolicy {
	denied := make(map[string]bool, len(codes))
	for _, c := range codes {
		if c = NormalizeCode(c); c != "" {
			denied[c] = true
		}
	}
	return &CommodityPolicy{denied: denied}
}

// Codes lists the denied codes in sorted order.
func (p *CommodityPolicy) Codes() []string {
	codes := make([]string, 0, len(p.denied))
	for c := range p.denied {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

func (p *CommodityPolicy) Denied(code string) bool {
	return p.denied[NormalizeCode(code)]
}

// Check returns a validation error for a deny-listed code.
func (p *CommodityPolicy) Check(code string) error {
	if p.Denied(code) {
		return apierr.Validation("commodity %s is disabled", NormalizeCode(code))
	}
	return nil
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Clock returns the current time. Services store every timestamp in UTC.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

type options struct {
	clock    Clock
	location *time.Location
}

type Option func(*options)

func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLocation sets the zone used for calendar dates (history filters and
// report dates).
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.location = loc }
}

func buildOptions(opts []Option) options {
	o := options{clock: systemClock, location: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}
	if o.location == nil {
		o.location = time.UTC
	}
	return o
}

func (o options) now() time.Time {
	return o.clock().UTC()
}
