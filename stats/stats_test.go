package stats

import (
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistry(t *testing.T) {
	Convey("Given a clean registry", t, func() {
		Clear()
		Reset(Clear)

		Convey("registering the same name twice returns the same metric", func() {
			a := NewCounter32("test.counter")
			a.Inc()
			b := NewCounter32("test.counter")
			So(b, ShouldEqual, a)
			So(b.Peek(), ShouldEqual, 1)
		})

		Convey("registering a name with another type panics", func() {
			NewCounter32("test.metric")
			So(func() { NewGauge32("test.metric") }, ShouldPanic)
		})
	})
}

func TestReportGraphite(t *testing.T) {
	now := time.Unix(1546300800, 0)
	cases := []struct {
		metric GraphiteMetric
		setup  func(GraphiteMetric)
		exp    string
	}{
		{
			&Counter32{},
			func(m GraphiteMetric) { m.(*Counter32).Add(3) },
			"pre.counter32 3 1546300800\n",
		},
		{
			&Gauge32{},
			func(m GraphiteMetric) { m.(*Gauge32).Set(5); m.(*Gauge32).Add(-2) },
			"pre.gauge32 3 1546300800\n",
		},
		{
			&Bool{},
			func(m GraphiteMetric) { m.(*Bool).Set(true) },
			"pre.gauge1 1 1546300800\n",
		},
		{
			&Meter32{bins: make(map[uint32]uint32)},
			func(m GraphiteMetric) {
				for _, v := range []int{8, 4, 12, 28, 8} {
					m.(*Meter32).Value(v)
				}
			},
			"pre.min.gauge32 4 1546300800\n" +
				"pre.median.gauge32 8 1546300800\n" +
				"pre.p90.gauge32 28 1546300800\n" +
				"pre.max.gauge32 28 1546300800\n" +
				"pre.mean.gauge32 12 1546300800\n" +
				"pre.sum.gauge64 60 1546300800\n" +
				"pre.values.count32 5 1546300800\n",
		},
		{
			&KafkaPartition{},
			func(m GraphiteMetric) { m.(*KafkaPartition).Newest(1 << 40); m.(*KafkaPartition).Consumed(1<<40 - 3) },
			"pre.offset.gauge64 1099511627773 1546300800\n" +
				"pre.log_size.gauge64 1099511627776 1546300800\n" +
				"pre.lag.gauge64 3 1546300800\n",
		},
	}
	for i, c := range cases {
		c.setup(c.metric)
		got := string(c.metric.ReportGraphite([]byte("pre."), nil, now))
		if got != c.exp {
			t.Fatalf("case %d: expected %q, got %q", i, c.exp, got)
		}
	}
}

func TestMeter32ResetsAfterReport(t *testing.T) {
	m := &Meter32{bins: make(map[uint32]uint32)}
	m.Value(100)
	m.ReportGraphite(nil, nil, time.Now())
	if out := m.ReportGraphite(nil, nil, time.Now()); len(out) != 0 {
		t.Fatalf("expected nothing reported without new values, got %q", out)
	}
	m.Value(3)
	if m.min != 3 || m.max != 3 {
		t.Fatalf("expected min and max to restart from the new value, got %d and %d", m.min, m.max)
	}
}

func TestGauge32Add(t *testing.T) {
	g := &Gauge32{}
	g.Set(10)
	g.Add(5)
	g.Add(-12)
	if g.Peek() != 3 {
		t.Fatalf("expected 3, got %d", g.Peek())
	}
}

func TestKafkaLagNeverNegative(t *testing.T) {
	k := NewKafka("test.kafka", []int32{0, 3})
	if len(k) != 2 {
		t.Fatalf("expected stats for 2 partitions, got %d", len(k))
	}
	// a consumed offset can briefly run ahead of the last log size we fetched
	k[3].Newest(10)
	k[3].Consumed(12)
	if k[3].Lag() != 0 {
		t.Fatalf("expected lag 0, got %d", k[3].Lag())
	}
	if again := NewKafka("test.kafka", []int32{3}); again[3] != k[3] {
		t.Fatalf("expected the registered partition stats to be reused")
	}
}

func TestRuntimeReporter(t *testing.T) {
	r := &RuntimeReporter{}
	out := string(r.ReportGraphite([]byte("runtime."), nil, time.Unix(1546300800, 0)))
	for _, key := range []string{"runtime.heap_bytes.gauge64 ", "runtime.goroutines.gauge32 ", "runtime.gc.cycles.counter32 "} {
		if !strings.Contains(out, key) {
			t.Fatalf("expected %q in report, got %q", key, out)
		}
	}
}
