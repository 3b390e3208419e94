package client

import "sync"

// proxyPool hands out configured proxies round-robin. A dead proxy is
// not detected here: it surfaces as a retryable transport failure and
// the fetcher rotates to the next one.
type proxyPool struct {
	mu      sync.Mutex
	proxies []string
	current int
}

func newProxyPool(proxies []string) *proxyPool {
	return &proxyPool{proxies: proxies}
}

func (p *proxyPool) next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}
	proxyURL := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)
	return proxyURL
}
