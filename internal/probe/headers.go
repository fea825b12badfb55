package probe

import (
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/backscan/backscan/internal/useragent"
)

// browserHeaders are included independently with headerProbability each
// when header spoofing is enabled, to blend in with ordinary browser
// traffic.
var browserHeaders = [][2]string{
	{"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"},
	{"Accept-Language", "en-US,en;q=0.9,zh-CN;q=0.8,zh;q=0.7"},
	{"Accept-Encoding", "gzip, deflate, br"},
	{"Connection", "keep-alive"},
	{"Upgrade-Insecure-Requests", "1"},
	{"Pragma", "no-cache"},
	{"Cache-Control", "no-cache"},
}

const headerProbability = 0.8

var (
	headerRng   = rand.New(rand.NewSource(time.Now().UnixNano() + 1))
	headerRngMu sync.Mutex
)

// synthesizeHeaders builds the header set for one request. Randomness is
// drawn fresh on every call: UA choice, per-header inclusion, and the
// spoofed X-Forwarded-For octets are all independent between requests.
func (c *Client) synthesizeHeaders() http.Header {
	h := make(http.Header)

	ua := c.userAgent
	if c.randomHeaders {
		ua = useragent.Pick(c.userAgents)
	} else if ua == "" {
		ua = useragent.Random()
	}
	h.Set("User-Agent", ua)

	headerRngMu.Lock()
	defer headerRngMu.Unlock()

	if c.randomHeaders {
		for _, hdr := range browserHeaders {
			if headerRng.Float64() < headerProbability {
				h.Set(hdr[0], hdr[1])
			}
		}
	}

	if c.randomIP {
		h.Set("X-Forwarded-For", fmt.Sprintf("%d.%d.%d.%d",
			1+headerRng.Intn(254),
			1+headerRng.Intn(254),
			1+headerRng.Intn(254),
			1+headerRng.Intn(254)))
	}

	return h
}
