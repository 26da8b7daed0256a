// Package document 加载网页正文，供 AI 顾问对话引用。
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/go-shiori/go-readability"
)

const (
	userAgent      = "Mozilla/5.0 (compatible; DividendRadar/1.0)"
	maxBodyBytes   = 5 << 20
	defaultMaxChar = 4000
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"')]+`)

var (
	// ErrUnsupportedURL 链接不在允许加载的范围内
	ErrUnsupportedURL = errors.New("unsupported document url")
	// ErrBlockedAddress 链接解析到回环、内网或链路本地地址
	ErrBlockedAddress = errors.New("document address is not public")
)

// 允许加载网页的基金公司域名，其他站点只加载 .txt / .md 文档
var documentHosts = []string{"vanguard.com", "blackrock.com", "fidelity.com"}

var documentExtensions = []string{".txt", ".md"}

const maxRedirects = 5

// Document 加载后的正文
type Document struct {
	URL     string
	Title   string
	Content string
}

// Loader 网页正文加载器，只连接公网地址
type Loader struct {
	client   *http.Client
	maxChars int
	hosts    []string

	// allowPrivate 允许连接非公网地址，仅测试使用
	allowPrivate bool
}

// NewLoader 创建加载器
func NewLoader(timeout time.Duration) *Loader {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	l := &Loader{
		maxChars: defaultMaxChar,
		hosts:    documentHosts,
	}
	dialer := &net.Dialer{Timeout: timeout, Control: l.checkAddress}
	l.client = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			// 不走代理，保证拨号地址就是目标地址
			Proxy:               nil,
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: timeout,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return l.checkURL(req.URL)
		},
	}
	return l
}

// checkAddress 在拨号前检查 DNS 解析后的 IP
func (l *Loader) checkAddress(_, address string, _ syscall.RawConn) error {
	if l.allowPrivate {
		return nil
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	ip, err := netip.ParseAddr(host)
	if err != nil || !publicAddr(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	return nil
}

func publicAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsGlobalUnicast() && !ip.IsPrivate() && !ip.IsLoopback() &&
		!ip.IsLinkLocalUnicast() && !cgnat.Contains(ip)
}

var cgnat = netip.MustParsePrefix("100.64.0.0/10")

// checkURL 只允许 http(s)，且为 .txt / .md 文档或基金公司站点
func (l *Loader) checkURL(u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %s", ErrUnsupportedURL, u)
	}
	path := strings.ToLower(u.Path)
	if strings.HasSuffix(path, ".pdf") {
		return fmt.Errorf("%w: pdf documents are not supported", ErrUnsupportedURL)
	}
	for _, ext := range documentExtensions {
		if strings.HasSuffix(path, ext) {
			return nil
		}
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range l.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedURL, u)
}

// ExtractURLs 提取文本中的链接，去掉句末标点
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimRight(m, ".,;:!?"))
	}
	return out
}

// Load 抓取链接并提取正文，纯文本与 Markdown 原样返回，HTML 交给 readability 处理
func (l *Loader) Load(ctx context.Context, rawURL string) (*Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, rawURL)
	}
	if err := l.checkURL(u); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("document returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	doc := &Document{URL: u.String()}
	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "text/plain") || strings.HasPrefix(contentType, "text/markdown") {
		doc.Content = string(body)
	} else {
		article, err := readability.FromReader(bytes.NewReader(body), u)
		if err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}
		doc.Title = article.Title
		doc.Content = article.TextContent
	}

	doc.Content = truncate(strings.Join(strings.Fields(doc.Content), " "), l.maxChars)
	if doc.Content == "" {
		return nil, fmt.Errorf("document has no readable content: %s", rawURL)
	}
	return doc, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
