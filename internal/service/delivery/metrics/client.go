// Package metrics 为发送客户端添加指标收集的装饰器
package metrics

import (
	"context"
	"time"

	"gitee.com/flycash/alert-engine/internal/domain"
	"gitee.com/flycash/alert-engine/internal/service/delivery"
	"github.com/prometheus/client_golang/prometheus"
)

// Client 为发送客户端添加指标收集的装饰器
type Client struct {
	client              delivery.Client
	sendDurationSummary *prometheus.SummaryVec
	sendCounter         *prometheus.CounterVec
	sendErrorCounter    *prometheus.CounterVec
}

// NewClient 创建一个新的带有指标收集的发送客户端
func NewClient(c delivery.Client) *Client {
	sendDurationSummary := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "alert_send_duration_seconds",
			Help:       "告警短信发送耗时统计（秒）",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001},
			MaxAge:     time.Minute * 5,
		},
		[]string{"provider"},
	)

	sendCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_send_total",
			Help: "告警短信发送总数",
		},
		[]string{"provider"},
	)

	sendErrorCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_send_error_total",
			Help: "告警短信发送失败分类统计",
		},
		[]string{"provider", "kind"},
	)

	prometheus.MustRegister(sendDurationSummary, sendCounter, sendErrorCounter)

	return &Client{
		client:              c,
		sendDurationSummary: sendDurationSummary,
		sendCounter:         sendCounter,
		sendErrorCounter:    sendErrorCounter,
	}
}

// Send 发送并记录指标
func (c *Client) Send(ctx context.Context, provider domain.ProviderAccount, recipient, body string) (delivery.Result, error) {
	startTime := time.Now()

	c.sendCounter.WithLabelValues(provider.Name).Inc()

	result, err := c.client.Send(ctx, provider, recipient, body)

	duration := time.Since(startTime).Seconds()
	c.sendDurationSummary.WithLabelValues(provider.Name).Observe(duration)

	if err != nil {
		c.sendErrorCounter.WithLabelValues(provider.Name, string(domain.ErrorKindOf(err))).Inc()
	}

	return result, err
}
