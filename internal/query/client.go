package query

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// maxBodySize 响应体读取上限
const maxBodySize = 5 * 1024 * 1024

// Options 描述一个上游HTTP客户端
type Options struct {
	Timeout            time.Duration
	UserAgent          string
	InsecureSkipVerify bool    // 跳过证书校验，仅应对权重页面开启
	Retries            int     // 频率限制类错误的重试次数
	RateLimit          float64 // 每秒最大请求数，0 表示不限制
}

// Client 带超时、UA、可选限速与重试的GET客户端
type Client struct {
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
	retries   int
	backoff   time.Duration
}

// StatusError 非2xx响应
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	if e.Code == http.StatusTooManyRequests {
		return fmt.Sprintf("unexpected status %s: too many requests", e.Status)
	}
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// NewClient 创建客户端
func NewClient(opts Options) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: opts.Timeout,
	}
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	c := &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		userAgent: opts.UserAgent,
		retries:   opts.Retries,
		backoff:   3 * time.Second,
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return c
}

// Get 发起GET请求并返回响应体，非2xx视为错误
func (c *Client) Get(ctx context.Context, platform, rawURL string, header http.Header) ([]byte, string, error) {
	type response struct {
		body        []byte
		contentType string
	}

	resp, err := retryWithBackoff(ctx, platform, rawURL, c.retries+1, c.backoff, func() (response, error) {
		body, ct, err := c.get(ctx, rawURL, header)
		return response{body: body, contentType: ct}, err
	})
	if err != nil {
		return nil, "", err
	}
	return resp.body, resp.contentType, nil
}

func (c *Client) get(ctx context.Context, rawURL string, header http.Header) ([]byte, string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("request creation failed: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, "", fmt.Errorf("read response failed: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}
