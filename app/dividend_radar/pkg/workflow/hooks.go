package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// NodeEvent 节点进入或离开事件
type NodeEvent struct {
	RunID    string
	Node     string
	Phase    Phase
	Next     Phase // 仅在离开时有值
	Duration time.Duration
	Time     time.Time
}

// Hooks 节点生命周期回调，可用于日志和指标
type Hooks struct {
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
}

// Metrics 工作流指标
type Metrics struct {
	NodeVisits   *prometheus.CounterVec
	NodeDuration *prometheus.HistogramVec
	Runs         *prometheus.CounterVec
}

// NewMetrics 创建并注册指标，重复注册时复用已有的采集器
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dividend_radar_node_visits_total",
				Help: "Total number of workflow node visits",
			},
			[]string{"node"},
		),
		NodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dividend_radar_node_duration_seconds",
				Help:    "Duration of workflow node executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"node"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dividend_radar_workflow_runs_total",
				Help: "Total number of workflow runs by input type and final status",
			},
			[]string{"input_type", "status"},
		),
	}
	if reg == nil {
		return m
	}
	m.NodeVisits = register(reg, m.NodeVisits)
	m.NodeDuration = register(reg, m.NodeDuration)
	m.Runs = register(reg, m.Runs)
	return m
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Hooks 返回记录指标的回调
func (m *Metrics) Hooks() Hooks {
	return Hooks{
		OnNodeEnter: func(_ context.Context, e *NodeEvent) {
			m.NodeVisits.WithLabelValues(e.Node).Inc()
		},
		OnNodeLeave: func(_ context.Context, e *NodeEvent) {
			m.NodeDuration.WithLabelValues(e.Node).Observe(e.Duration.Seconds())
		},
	}
}

// Chain 依次调用多组回调
func Chain(hooks ...Hooks) Hooks {
	return Hooks{
		OnNodeEnter: func(ctx context.Context, e *NodeEvent) {
			for _, h := range hooks {
				if h.OnNodeEnter != nil {
					h.OnNodeEnter(ctx, e)
				}
			}
		},
		OnNodeLeave: func(ctx context.Context, e *NodeEvent) {
			for _, h := range hooks {
				if h.OnNodeLeave != nil {
					h.OnNodeLeave(ctx, e)
				}
			}
		},
	}
}
