package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	dealTransitions   metric.Int64Counter
	incentiveComputed metric.Int64Counter
	payoutsSettled    metric.Int64Counter
	rulesTriggered    metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "incentra"
	}
	meter := provider.Meter(name)

	dealTransitions, err := meter.Int64Counter("incentra_deal_transitions_total")
	if err != nil {
		return nil, err
	}
	incentiveComputed, err := meter.Int64Counter("incentra_incentive_computed_total")
	if err != nil {
		return nil, err
	}
	payoutsSettled, err := meter.Int64Counter("incentra_payouts_settled_total")
	if err != nil {
		return nil, err
	}
	rulesTriggered, err := meter.Int64Counter("incentra_rules_triggered_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		dealTransitions:   dealTransitions,
		incentiveComputed: incentiveComputed,
		payoutsSettled:    payoutsSettled,
		rulesTriggered:    rulesTriggered,
	}, nil
}

// RecordDealTransition increments deal state transition counts.
func (m *Metrics) RecordDealTransition(ctx context.Context, transition string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("transition", strings.TrimSpace(transition)))
	m.dealTransitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordIncentiveComputed increments incentive computation counts.
func (m *Metrics) RecordIncentiveComputed(ctx context.Context, matched bool) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.Bool("policy_matched", matched))
	m.incentiveComputed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPayoutSettled increments settled payout counts.
func (m *Metrics) RecordPayoutSettled(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.payoutsSettled.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRuleTriggered increments alert rule trigger counts.
func (m *Metrics) RecordRuleTriggered(ctx context.Context, action string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("action", strings.TrimSpace(action)))
	m.rulesTriggered.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"org_id":         {},
	"endpoint":       {},
	"status_code":    {},
	"transition":     {},
	"outcome":        {},
	"action":         {},
	"policy_matched": {},
	"reason":         {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
