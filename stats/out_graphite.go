package stats

import (
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/balaghali/N26Statistics/clock"
	"github.com/jpillora/backoff"
	log "github.com/sirupsen/logrus"
)

var (
	queueItems    *Gauge32
	genDuration   *LatencyHistogram15s32
	flushDuration *LatencyHistogram15s32
	messageSize   *Meter32
	connected     *Bool
)

var errPeerClosed = errors.New("graphite closed the connection")

type GraphiteMetric interface {
	// Report the measurements in graphite format and reset measurements for the next interval if needed
	ReportGraphite(prefix []byte, buf []byte, now time.Time) []byte
}

// Graphite serializes all registered metrics every interval and ships them to a
// carbon plaintext endpoint. While the endpoint is down, up to bufferSize intervals are queued.
type Graphite struct {
	prefix  []byte
	addr    string
	timeout time.Duration
	queue   chan []byte

	conn    net.Conn
	closed  chan struct{} // closed once conn is unusable
	backoff *backoff.Backoff
}

func NewGraphite(prefix, addr string, interval, bufferSize int, timeout time.Duration) {
	// metric stats.graphite.write_queue.size is the capacity of the queue of messages to graphite
	NewGauge32("stats.graphite.write_queue.size").Set(bufferSize)
	// metric stats.graphite.write_queue.items is how many messages are waiting in the queue to graphite
	queueItems = NewGauge32("stats.graphite.write_queue.items")
	// metric stats.generate_message is how long it takes to serialize all metrics
	genDuration = NewLatencyHistogram15s32("stats.generate_message")
	// metric stats.graphite.flush is how long it takes to write a message to graphite
	flushDuration = NewLatencyHistogram15s32("stats.graphite.flush")
	// metric stats.message_size is the size of the messages sent to graphite
	messageSize = NewMeter32("stats.message_size")
	// metric stats.graphite.connected is whether we have a connection to graphite
	connected = NewBool("stats.graphite.connected")

	g := newGraphite(prefix, addr, bufferSize, timeout)
	go g.writer()
	go g.reporter(time.Duration(interval) * time.Second)
}

func newGraphite(prefix, addr string, bufferSize int, timeout time.Duration) *Graphite {
	if prefix != "" && !strings.HasSuffix(prefix, ".") {
		prefix += "."
	}
	return &Graphite{
		prefix:  []byte(prefix),
		addr:    addr,
		timeout: timeout,
		queue:   make(chan []byte, bufferSize),
		backoff: &backoff.Backoff{
			Min:    time.Second,
			Max:    time.Minute,
			Factor: 2,
			Jitter: true,
		},
	}
}

// collect renders every registered metric as one plaintext message
func (g *Graphite) collect(now time.Time) []byte {
	var buf, name []byte
	for n, metric := range registry.list() {
		name = append(name[:0], g.prefix...)
		name = append(name, n...)
		name = append(name, '.')
		buf = metric.ReportGraphite(name, buf, now)
	}
	return buf
}

func (g *Graphite) reporter(interval time.Duration) {
	for now := range clock.AlignedTickLossy(interval, nil) {
		queueItems.Set(len(g.queue))
		if cap(g.queue) != 0 && len(g.queue) == cap(g.queue) {
			log.Debugf("stats: graphite queue full, dropping stats for %s", now)
			continue
		}
		pre := time.Now()
		buf := g.collect(now)
		genDuration.Value(time.Since(pre))
		messageSize.Value(len(buf))
		g.queue <- buf
	}
}

func (g *Graphite) writer() {
	for buf := range g.queue {
		queueItems.Set(len(g.queue))
		for {
			g.connect()
			err := g.write(buf)
			if err == nil {
				break
			}
			log.Warnf("stats: failed to write to graphite: %s. will retry", err)
			g.disconnect()
		}
	}
}

// connect dials until it has a connection, backing off between attempts
func (g *Graphite) connect() {
	for g.conn == nil {
		conn, err := net.DialTimeout("tcp", g.addr, g.timeout)
		if err != nil {
			wait := g.backoff.Duration()
			log.Warnf("stats: dialing %s failed: %s. retrying in %s", g.addr, err, wait)
			time.Sleep(wait)
			continue
		}
		log.Infof("stats: connected to %s", g.addr)
		g.backoff.Reset()
		g.conn = conn
		g.closed = make(chan struct{})
		go watchConn(conn, g.closed)
		connected.Set(true)
	}
}

func (g *Graphite) write(buf []byte) error {
	select {
	case <-g.closed:
		return errPeerClosed
	default:
	}
	g.conn.SetWriteDeadline(time.Now().Add(g.timeout))
	pre := time.Now()
	if _, err := g.conn.Write(buf); err != nil {
		return err
	}
	flushDuration.Value(time.Since(pre))
	return nil
}

func (g *Graphite) disconnect() {
	g.conn.Close()
	<-g.closed
	g.conn = nil
	connected.Set(false)
}

// watchConn reads from conn until that fails, then closes it and signals closed.
// carbon never writes back, but a hangup only shows up on the read side:
// writes keep succeeding locally while the peer answers with RST.
func watchConn(conn net.Conn, closed chan struct{}) {
	defer close(closed)
	b := make([]byte, 512)
	for {
		n, err := conn.Read(b)
		if n > 0 {
			log.Warnf("stats: unexpected data from graphite: %q", b[:n])
		}
		if err == nil {
			continue
		}
		if err == io.EOF {
			log.Info("stats: graphite closed the connection")
		} else if !errors.Is(err, net.ErrClosed) {
			log.Warnf("stats: graphite connection failed: %s", err)
		}
		conn.Close()
		return
	}
}
