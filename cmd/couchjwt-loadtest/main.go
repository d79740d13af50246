package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	couchjwt "github.com/MrEthical07/couchjwt"
	"github.com/MrEthical07/couchjwt/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type tokenState struct {
	mu    sync.Mutex
	token string
}

func main() {
	var (
		sessions    = flag.Int("sessions", 10000, "number of logins to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per phase (info, renew)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", session.DefaultRedisPrefix, "session key prefix")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var cleanup func()
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		cleanup = mr.Close
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		cleanup = func() {}
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	defer client.Close()

	cfg := couchjwt.DefaultConfig()
	cfg.Token.Secret = []byte("loadtest-secret-loadtest-secret-loadtest")
	cfg.Session.Backend = string(session.BackendRedis)
	cfg.Session.Redis.Prefix = *prefix
	cfg.RoleRefresh.Enabled = false
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	engine, err := couchjwt.New().
		WithConfig(cfg).
		WithRedis(client).
		WithAuthenticator(couchjwt.AuthenticatorFunc(stubAuthenticate)).
		BuildContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	states := make([]tokenState, *sessions)
	fmt.Printf("seeding %d sessions...\n", *sessions)
	loginStats := runPhase(*sessions, *concurrency, 7919, func(i int, _ *rand.Rand) error {
		res, err := engine.Login(ctx, fmt.Sprintf("user-%d", i), "pw")
		if err != nil {
			return err
		}
		states[i].token = res.Token
		return nil
	})

	infoStats := runPhase(*ops, *concurrency, 6151, func(_ int, r *rand.Rand) error {
		state := &states[r.Intn(len(states))]
		state.mu.Lock()
		token := state.token
		state.mu.Unlock()
		_, err := engine.Info(ctx, token)
		return err
	})

	renewStats := runPhase(*ops, *concurrency, 4999, func(_ int, r *rand.Rand) error {
		state := &states[r.Intn(len(states))]
		state.mu.Lock()
		defer state.mu.Unlock()
		res, err := engine.Renew(ctx, state.token)
		if err != nil {
			return err
		}
		state.token = res.Token
		return nil
	})

	logoutStats := runPhase(len(states), *concurrency, 3571, func(i int, _ *rand.Rand) error {
		_, err := engine.Logout(ctx, states[i].token)
		return err
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("info", infoStats)
	printStats("renew", renewStats)
	printStats("logout", logoutStats)
}

func stubAuthenticate(_ context.Context, name, password string) (couchjwt.UserContext, error) {
	if password != "pw" {
		return couchjwt.UserContext{}, couchjwt.ErrBadAuth
	}
	return couchjwt.UserContext{Name: name, Roles: []string{"member"}}, nil
}

// runPhase calls fn ops times across concurrency workers. fn receives the
// operation index and a per-worker random source.
func runPhase(ops, concurrency int, seed int64, fn func(int, *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := fn(i, r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
