package api

import (
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// backoffPolicy describes when a key gets locked out and for how long.
type backoffPolicy struct {
	// maxFailures is the number of consecutive failures before lockout begins.
	maxFailures int
	// baseLockout is the initial lockout once maxFailures is reached.
	baseLockout time.Duration
	// maxLockout caps the exponential backoff.
	maxLockout time.Duration
}

var (
	cedulaPolicy = backoffPolicy{maxFailures: 5, baseLockout: time.Minute, maxLockout: 15 * time.Minute}
	ipPolicy     = backoffPolicy{maxFailures: 20, baseLockout: time.Minute, maxLockout: 30 * time.Minute}
)

// attemptExpiry is how long after the last failure before a record is
// garbage-collected.
const attemptExpiry = 1 * time.Hour

// lockout is baseLockout * 2^(failures - maxFailures), capped.
func (p backoffPolicy) lockout(failures int) time.Duration {
	if failures < p.maxFailures {
		return 0
	}
	d := p.baseLockout
	for i := 0; i < failures-p.maxFailures; i++ {
		d *= 2
		if d >= p.maxLockout {
			return p.maxLockout
		}
	}
	return d
}

// loginRateLimiter tracks failed password attempts per key (a cedula or a
// client IP) and enforces exponential backoff.
type loginRateLimiter struct {
	policy   backoffPolicy
	mu       sync.Mutex
	attempts map[string]*attemptRecord
}

type attemptRecord struct {
	failures    int
	lastFailure time.Time
	lockedUntil time.Time
}

func newLoginRateLimiter(policy backoffPolicy) *loginRateLimiter {
	return &loginRateLimiter{
		policy:   policy,
		attempts: make(map[string]*attemptRecord),
	}
}

// check returns true if key is currently locked out, along with how long
// the caller should wait.
func (rl *loginRateLimiter) check(key string) (blocked bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rec, ok := rl.attempts[key]
	if !ok {
		return false, 0
	}
	if time.Since(rec.lastFailure) > attemptExpiry {
		delete(rl.attempts, key)
		return false, 0
	}
	if time.Now().Before(rec.lockedUntil) {
		return true, time.Until(rec.lockedUntil)
	}
	return false, 0
}

func (rl *loginRateLimiter) recordFailure(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rec, ok := rl.attempts[key]
	if !ok {
		rec = &attemptRecord{}
		rl.attempts[key] = rec
	}
	rec.failures++
	rec.lastFailure = time.Now()
	if d := rl.policy.lockout(rec.failures); d > 0 {
		rec.lockedUntil = rec.lastFailure.Add(d)
	}
}

func (rl *loginRateLimiter) recordSuccess(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, key)
}

// sweep removes expired records.
func (rl *loginRateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, rec := range rl.attempts {
		if now.Sub(rec.lastFailure) > attemptExpiry {
			delete(rl.attempts, key)
		}
	}
}

// newAuthLimiter bounds the overall rate of unauthenticated auth requests.
func newAuthLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// throttle rejects requests beyond the shared auth budget with 429.
func (a *API) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := a.authLimiter.Reserve()
		delay := time.Second
		if res.OK() {
			if delay = res.Delay(); delay == 0 {
				next.ServeHTTP(w, r)
				return
			}
			res.Cancel()
		}
		a.audit.logFailure(AuditRateLimited, r, "global auth budget exhausted")
		writeRateLimited(w, delay)
	})
}

// writeRateLimited sends a 429 Too Many Requests response.
func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	w.Header().Set("Retry-After", retryAfterString(retryAfter))
	writeError(w, http.StatusTooManyRequests, "Demasiados intentos fallidos. Intente más tarde.")
}

func retryAfterString(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// clientIP returns the client address for rate limiting. Proxy headers are
// honored only when RemoteAddr is inside one of the trusted prefixes.
func (a *API) clientIP(r *http.Request) string {
	return extractClientIPWithProxies(r, a.trustedProxies)
}

// extractClientIPWithProxies returns the best-effort client IP. With a
// trusted peer the first valid X-Forwarded-For entry wins, then X-Real-IP,
// then RemoteAddr.
func extractClientIPWithProxies(r *http.Request, trustedProxies []netip.Prefix) string {
	remoteIP, _ := parseIPCandidate(r.RemoteAddr)

	proxyTrusted := false
	if addr, err := netip.ParseAddr(remoteIP); err == nil {
		for _, prefix := range trustedProxies {
			if prefix.Contains(addr) {
				proxyTrusted = true
				break
			}
		}
	}

	if proxyTrusted {
		for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
			if ip, ok := parseIPCandidate(part); ok {
				return ip
			}
		}
		if ip, ok := parseIPCandidate(r.Header.Get("X-Real-IP")); ok {
			return ip
		}
	}
	return remoteIP
}

func parseIPCandidate(raw string) (string, bool) {
	s := strings.Trim(strings.TrimSpace(raw), "\"")
	if s == "" {
		return "", false
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if i := strings.IndexByte(s, '%'); i >= 0 {
		s = s[:i]
	}
	if addr, err := netip.ParseAddr(s); err == nil {
		return addr.String(), true
	}
	return "", false
}
