package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	domsel "github.com/autorovers/autorovers/internal/domain/selection"
	compareuc "github.com/autorovers/autorovers/internal/usecase/compare"
)

// SelectionEvent is published on <prefix>.selection.<owner> after every change.
type SelectionEvent struct {
	Owner       string    `json:"owner"`
	VehicleType string    `json:"vehicleType,omitempty"`
	IDs         []int64   `json:"ids"`
	At          time.Time `json:"at"`
}

// CompareEvent is published on <prefix>.compare.<owner> after every comparison.
type CompareEvent struct {
	Owner        string           `json:"owner"`
	VehicleType  string           `json:"vehicleType,omitempty"`
	IDs          []int64          `json:"ids"`
	Dropped      []compareuc.Drop `json:"dropped"`
	Insufficient bool             `json:"insufficient"`
	At           time.Time        `json:"at"`
}

// Publisher emits selection and comparison events to NATS.
type Publisher struct {
	nc     *nats.Conn
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

// Connect dials NATS and returns a publisher owning the connection.
func Connect(url, prefix string, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	nc, err := nats.Connect(url,
		nats.Name("autorovers"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return New(nc, prefix, logger), nil
}

// New wraps an existing connection.
func New(nc *nats.Conn, prefix string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{nc: nc, prefix: prefix, logger: logger, now: time.Now}
}

// SelectionSubject returns the subject selection events for owner go to.
func (p *Publisher) SelectionSubject(owner string) string {
	return p.prefix + ".selection." + subjectToken(owner)
}

// CompareSubject returns the subject comparison events for owner go to.
func (p *Publisher) CompareSubject(owner string) string {
	return p.prefix + ".compare." + subjectToken(owner)
}

// PublishSelection implements selection.Publisher.
func (p *Publisher) PublishSelection(ctx context.Context, owner string, s domsel.State) error {
	return p.publish(ctx, p.SelectionSubject(owner), SelectionEvent{
		Owner:       owner,
		VehicleType: s.Locked().String(),
		IDs:         s.IDs(),
		At:          p.now().UTC(),
	})
}

// PublishComparison implements compare.Publisher.
func (p *Publisher) PublishComparison(ctx context.Context, owner string, r compareuc.Result) error {
	ids := make([]int64, 0, len(r.Vehicles))
	for _, v := range r.Vehicles {
		ids = append(ids, v.Common().ID)
	}
	return p.publish(ctx, p.CompareSubject(owner), CompareEvent{
		Owner:        owner,
		VehicleType:  r.Line.String(),
		IDs:          ids,
		Dropped:      r.Dropped,
		Insufficient: r.Insufficient,
		At:           p.now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := nats.NewMsg(subject)
	msg.Data = data
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(http.Header(msg.Header)))

	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.Debug("Published event", zap.String("subject", subject), zap.Int("bytes", len(data)))
	return nil
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() error {
	if err := p.nc.Drain(); err != nil {
		return fmt.Errorf("drain nats: %w", err)
	}
	return nil
}

// subjectToken makes owner safe as a single subject token.
func subjectToken(owner string) string {
	if owner == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, owner)
}
