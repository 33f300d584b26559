// internal/pkg/httpclient/client.go
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"paddock/internal/pkg/nacos"
)

// Client 是一个可追踪的服务间 HTTP 客户端。
// 目标服务通过 Nacos 按注册名解析，每次调用自动注入追踪上下文。
type Client struct {
	Tracer     trace.Tracer
	Nacos      *nacos.Client
	HTTPClient *http.Client
}

// NewClient 创建一个新的客户端实例。
// 不设置全局 Timeout，超时完全由每次请求传入的 context 控制。
func NewClient(tracer trace.Tracer, nacosClient *nacos.Client) *Client {
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
	}
	return &Client{
		Tracer:     tracer,
		Nacos:      nacosClient,
		HTTPClient: httpClient,
	}
}

// GetJSON 对目标服务发起 GET 请求并解码 JSON 响应体。
// 返回 HTTP 状态码，调用方据此区分 404 之类的业务性响应与传输错误。
func (c *Client) GetJSON(ctx context.Context, serviceName, path string, params url.Values, out interface{}) (int, error) {
	ctx, span := c.Tracer.Start(ctx, fmt.Sprintf("call-%s", serviceName), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	targetURL, err := c.resolve(serviceName, path, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	span.SetAttributes(
		attribute.String("http.url", targetURL),
		attribute.String("http.method", http.MethodGet),
		attribute.String("peer.service", serviceName),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusOK && out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			span.RecordError(err)
			return resp.StatusCode, fmt.Errorf("failed to decode response from %s: %w", serviceName, err)
		}
	}
	return resp.StatusCode, nil
}

// CallService 对目标服务发起 POST 请求，参数通过 query string 传递。
// 非 200 响应视为调用失败。
func (c *Client) CallService(ctx context.Context, serviceName, path string, params url.Values) error {
	ctx, span := c.Tracer.Start(ctx, fmt.Sprintf("call-%s", serviceName), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	targetURL, err := c.resolve(serviceName, path, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, nil)
	if err != nil {
		span.RecordError(err)
		return err
	}

	span.SetAttributes(
		attribute.String("http.url", targetURL),
		attribute.String("http.method", http.MethodPost),
		attribute.String("peer.service", serviceName),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("service %s returned status %s", serviceName, resp.Status)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// resolve 通过 Nacos 把服务名解析成一个具体实例的 URL。
func (c *Client) resolve(serviceName, path string, params url.Values) (string, error) {
	ip, port, err := c.Nacos.DiscoverServiceInstance(serviceName)
	if err != nil {
		return "", err
	}
	u := url.URL{
		Scheme:   "http",
		Host:     fmt.Sprintf("%s:%d", ip, port),
		Path:     path,
		RawQuery: params.Encode(),
	}
	return u.String(), nil
}
