package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/minopeef/prompting/internal/metrics"
	"github.com/minopeef/prompting/protocol"
)

// DefaultTimeout bounds a call when neither the dispatch options nor the
// request template carry a timeout.
const DefaultTimeout = 12 * time.Second

// ErrKindMismatch is returned when the request kind does not match the
// streaming mode of the dispatch. This is a caller contract violation and
// fails before any target is queried.
var ErrKindMismatch = errors.New("transport: request kind does not match streaming mode")

// Options control one dispatch fan-out.
type Options struct {
	// Timeout bounds each target call. Zero falls back to the request
	// template's timeout, then to DefaultTimeout.
	Timeout time.Duration
	// Concurrent launches all target calls at once and joins them;
	// otherwise unary targets resolve strictly in input order.
	Concurrent bool
	// Streaming selects the chunked exchange; the request must be a
	// *protocol.StreamPromptRequest when set and a *protocol.PromptRequest
	// when not.
	Streaming bool
}

// Result is the index-aligned outcome of one dispatch. Exactly one of the
// two slices is populated, matching Options.Streaming. Ordering always
// follows the input target order regardless of completion order.
type Result struct {
	Responses []*protocol.Response        // unary mode, one resolved record per target
	Streams   []<-chan *protocol.Response // streaming mode, one lazy stream per target
}

// Dispatcher fans one request template out to many targets over the
// simulated transport.
type Dispatcher struct {
	unary     *UnarySimulator
	stream    *StreamSimulator
	clock     Clock
	logger    *zap.Logger
	collector *metrics.Collector
	tracer    trace.Tracer
}

// NewDispatcher creates a dispatcher over the two call simulators. Nil
// simulators get default construction; a nil logger falls back to nop.
func NewDispatcher(unary *UnarySimulator, stream *StreamSimulator, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if unary == nil {
		unary = NewUnarySimulator(nil, nil, nil, logger)
	}
	if stream == nil {
		stream = NewStreamSimulator(nil, nil, logger)
	}
	return &Dispatcher{
		unary:  unary,
		stream: stream,
		clock:  SystemClock(),
		logger: logger,
		tracer: otel.Tracer("prompting/transport"),
	}
}

// WithClock overrides the dispatch clock.
func (d *Dispatcher) WithClock(c Clock) *Dispatcher {
	if c != nil {
		d.clock = c
	}
	return d
}

// WithMetrics attaches a collector recording dispatch and response counts.
func (d *Dispatcher) WithMetrics(c *metrics.Collector) *Dispatcher {
	d.collector = c
	d.stream.WithMetrics(c)
	return d
}

// Dispatch sends one clone of req to every target and returns one result
// per target, index-aligned with targets. Timeouts surface as 408 records,
// never as errors; the only error is the fail-fast kind check.
func (d *Dispatcher) Dispatch(ctx context.Context, targets []protocol.Endpoint, req protocol.Request, opts Options) (*Result, error) {
	if err := checkKind(req, opts.Streaming); err != nil {
		return nil, err
	}
	timeout := d.resolveTimeout(req, opts)

	ctx, span := d.tracer.Start(ctx, "transport.Dispatch", trace.WithAttributes(
		attribute.String("dispatch.kind", string(req.Kind())),
		attribute.Int("dispatch.targets", len(targets)),
		attribute.Bool("dispatch.concurrent", opts.Concurrent),
	))
	defer span.End()

	started := d.clock.Now()
	res := &Result{}

	if opts.Streaming {
		// Streaming launches are non-blocking either way: each entry is a
		// lazy stream that resolves as it is consumed.
		res.Streams = make([]<-chan *protocol.Response, len(targets))
		for i, target := range targets {
			sreq := prepare(req, target).(*protocol.StreamPromptRequest)
			res.Streams[i] = d.stream.CallStream(ctx, sreq, timeout)
		}
		d.record(req.Kind(), opts, nil, d.clock.Now().Sub(started))
		return res, nil
	}

	res.Responses = make([]*protocol.Response, len(targets))
	if !opts.Concurrent {
		for i, target := range targets {
			res.Responses[i] = d.callOne(i, target, req, timeout)
		}
	} else {
		g, _ := errgroup.WithContext(ctx)
		for i, target := range targets {
			g.Go(func() error {
				// Failures resolve into their own records; never
				// short-circuit sibling targets.
				res.Responses[i] = d.callOne(i, target, req, timeout)
				return nil
			})
		}
		_ = g.Wait()
	}

	d.record(req.Kind(), opts, res.Responses, d.clock.Now().Sub(started))
	d.logger.Debug("dispatch complete",
		zap.String("trace_id", req.Envelope().TraceID),
		zap.Int("targets", len(targets)),
		zap.Bool("concurrent", opts.Concurrent),
		zap.Duration("elapsed", d.clock.Now().Sub(started)),
	)
	return res, nil
}

// DispatchAs runs a unary dispatch and applies fn to every record,
// returning the transformed values index-aligned with targets. fn must be
// a pure transform.
func DispatchAs[T any](ctx context.Context, d *Dispatcher, targets []protocol.Endpoint, req *protocol.PromptRequest, opts Options, fn func(*protocol.Response) T) ([]T, error) {
	opts.Streaming = false
	res, err := d.Dispatch(ctx, targets, req, opts)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(res.Responses))
	for i, r := range res.Responses {
		out[i] = fn(r)
	}
	return out, nil
}

// callOne clones the template for one target and resolves a unary call.
func (d *Dispatcher) callOne(index int, target protocol.Endpoint, tmpl protocol.Request, timeout time.Duration) *protocol.Response {
	start := d.clock.Now()
	preq := prepare(tmpl, target).(*protocol.PromptRequest)
	return d.unary.Call(index, start, preq, timeout)
}

// prepare clones the template and attaches the target's addressing
// metadata, so no mutable state is shared between targets.
func prepare(tmpl protocol.Request, target protocol.Endpoint) protocol.Request {
	req := tmpl.Clone()
	req.Envelope().Endpoint = target
	return req
}

func checkKind(req protocol.Request, streaming bool) error {
	want := protocol.KindUnary
	if streaming {
		want = protocol.KindStream
	}
	if req == nil || req.Kind() != want {
		return fmt.Errorf("%w: want %s", ErrKindMismatch, want)
	}
	return nil
}

func (d *Dispatcher) resolveTimeout(req protocol.Request, opts Options) time.Duration {
	if opts.Timeout > 0 {
		return opts.Timeout
	}
	if t := req.Envelope().Timeout; t > 0 {
		return t
	}
	return DefaultTimeout
}

func (d *Dispatcher) record(kind protocol.Kind, opts Options, responses []*protocol.Response, elapsed time.Duration) {
	if d.collector == nil {
		return
	}
	d.collector.RecordDispatch(string(kind), opts.Concurrent, elapsed)
	for _, r := range responses {
		d.collector.RecordResponse(r.StatusCode)
	}
}
