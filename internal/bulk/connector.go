package bulk

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/FloThinksPi-Forks/vstutils/internal/util"
	"github.com/google/uuid"
	"github.com/shopmonkeyus/go-common/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultWindow is the debounce window used when none is configured.
const DefaultWindow = 100 * time.Millisecond

var tracer = otel.Tracer("github.com/FloThinksPi-Forks/vstutils/internal/bulk")

// ConnectorConfig configures a Connector.
type ConnectorConfig struct {
	Context   context.Context
	Logger    logger.Logger
	Transport Transport

	// Window is how long the connector waits after the last enqueue before sending.
	Window time.Duration

	// Version is set on requests which do not carry their own.
	Version string
}

type part struct {
	req      Request
	future   *Future
	enqueued time.Time
}

// Connector collects logical requests and sends them as one transaction once no
// new request arrived for the window duration.
type Connector struct {
	ctx       context.Context
	cancel    context.CancelFunc
	logger    logger.Logger
	transport Transport
	window    time.Duration
	version   string

	pending   []*part
	timer     *time.Timer
	closed    bool
	mutex     sync.Mutex
	waitGroup sync.WaitGroup
	once      sync.Once
}

// NewConnector returns a new Connector.
func NewConnector(config ConnectorConfig) *Connector {
	parent := config.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	window := config.Window
	if window <= 0 {
		window = DefaultWindow
	}
	return &Connector{
		ctx:       ctx,
		cancel:    cancel,
		logger:    config.Logger.WithPrefix("[bulk]"),
		transport: config.Transport,
		window:    window,
		version:   config.Version,
	}
}

// Window returns the debounce window.
func (c *Connector) Window() time.Duration {
	return c.window
}

// Enqueue adds the request to the pending transaction and restarts the window.
// It never blocks on the network.
func (c *Connector) Enqueue(req Request) *Future {
	future := newFuture()
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed {
		future.reject(ErrClosed)
		return future
	}
	if req.Version == "" {
		req.Version = c.version
	}
	c.pending = append(c.pending, &part{req: req, future: future, enqueued: time.Now()})
	PendingParts.Inc()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.window, c.flush)
	c.logger.Trace("enqueued %s (%d pending)", req, len(c.pending))
	return future
}

// Query enqueues the request and waits for its response.
func (c *Connector) Query(ctx context.Context, req Request) (*Response, error) {
	return c.Enqueue(req).Wait(ctx)
}

// Flush sends the pending requests now instead of waiting for the window.
func (c *Connector) Flush() {
	c.mutex.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mutex.Unlock()
	c.flush()
}

func (c *Connector) flush() {
	c.mutex.Lock()
	parts := c.pending
	c.pending = nil
	if len(parts) == 0 {
		c.mutex.Unlock()
		return
	}
	c.waitGroup.Add(1)
	c.mutex.Unlock()
	defer c.waitGroup.Done()
	c.send(parts)
}

func (c *Connector) do(ctx context.Context, reqs []Request) (resps []Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = util.PanicError(r)
		}
	}()
	return c.transport.Do(ctx, reqs)
}

func (c *Connector) send(parts []*part) {
	id := uuid.NewString()
	ctx, span := tracer.Start(c.ctx, "bulk.transaction", trace.WithAttributes(
		attribute.String("bulk.transaction_id", id),
		attribute.Int("bulk.parts", len(parts)),
	))
	defer span.End()

	reqs := make([]Request, len(parts))
	for i, p := range parts {
		reqs[i] = p.req
	}
	started := time.Now()
	c.logger.Debug("sending transaction %s with %d parts (oldest waited %v)", id, len(parts), started.Sub(parts[0].enqueued))
	resps, err := c.do(ctx, reqs)
	TransactionDuration.Observe(time.Since(started).Seconds())
	TransactionParts.Observe(float64(len(parts)))
	PendingParts.Sub(float64(len(parts)))

	if err == nil && len(resps) != len(reqs) {
		err = fmt.Errorf("response has %d items for %d requests", len(resps), len(reqs))
	}
	if err != nil {
		terr := &TransportError{TransactionID: id, Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		Transactions.WithLabelValues("failed").Inc()
		c.logger.Error("transaction %s failed: %s", id, err)
		for _, p := range parts {
			p.future.reject(terr)
		}
		return
	}
	Transactions.WithLabelValues("ok").Inc()
	var failed int
	for i, p := range parts {
		resp := resps[i]
		PartStatus.WithLabelValues(strconv.Itoa(resp.Status)).Inc()
		if resp.OK() {
			p.future.resolve(&resp)
			continue
		}
		failed++
		p.future.reject(newStatusError(p.req, &resp))
	}
	span.SetAttributes(attribute.Int("bulk.failed_parts", failed))
	c.logger.Debug("transaction %s completed in %v (%d failed)", id, time.Since(started), failed)
}

// Close sends whatever is pending, waits for in flight transactions and
// rejects any later request with ErrClosed.
func (c *Connector) Close() error {
	c.once.Do(func() {
		c.mutex.Lock()
		c.closed = true
		if c.timer != nil {
			c.timer.Stop()
		}
		parts := c.pending
		c.pending = nil
		if len(parts) > 0 {
			c.waitGroup.Add(1)
		}
		c.mutex.Unlock()
		if len(parts) > 0 {
			c.send(parts)
			c.waitGroup.Done()
		}
		c.waitGroup.Wait()
		c.cancel()
	})
	return nil
}

// Do sends req through the connector and decodes the response data into T.
func Do[T any](ctx context.Context, c *Connector, req Request) (T, error) {
	var res T
	resp, err := c.Query(ctx, req)
	if err != nil {
		return res, err
	}
	if err := resp.Decode(&res); err != nil {
		return res, err
	}
	return res, nil
}
