package redis

import (
	"context"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	var nilCfg *Config
	assert.ErrorIs(t, nilCfg.Validate(), ErrNilConfig)
	assert.False(t, nilCfg.Enabled())

	assert.ErrorIs(t, (&Config{}).Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, (&Config{
		Standalone: &NodeConfig{Host: "localhost", Port: 6379},
		Cluster:    &ClusterConfig{Addrs: []string{"a:1"}},
	}).Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, (&Config{Cluster: &ClusterConfig{}}).Validate(), ErrInvalidConfig)

	ok := &Config{Standalone: &NodeConfig{Host: "localhost", Port: 6379}}
	assert.NoError(t, ok.Validate())
	assert.True(t, ok.Enabled())
}

func TestClient_Key(t *testing.T) {
	c, err := NewClient(&Config{Standalone: &NodeConfig{Host: "localhost", Port: 6379}, KeyPrefix: "animeplay"})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "animeplay:job:trade_expiry", c.Key("job:trade_expiry"))
}

// integrationClient 需要 ANIMEPLAY_TEST_REDIS_PORT 指向本地 Redis
func integrationClient(t *testing.T) *Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	port, err := strconv.Atoi(os.Getenv("ANIMEPLAY_TEST_REDIS_PORT"))
	if err != nil {
		t.Skip("ANIMEPLAY_TEST_REDIS_PORT not set")
	}

	c, err := NewClient(&Config{
		Standalone: &NodeConfig{Host: "localhost", Port: port},
		Pool:       PoolConfig{DialTimeout: time.Second},
		KeyPrefix:  "animeplay-test-" + strconv.FormatInt(time.Now().UnixNano(), 36),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Ping(context.Background()))
	return c
}

func TestLock_Integration(t *testing.T) {
	c := integrationClient(t)
	ctx := context.Background()

	first := NewLock(c, "lock", 5*time.Second)
	second := NewLock(c, "lock", 5*time.Second)

	ok, err := first.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, second.Unlock(ctx), ErrLockNotHeld)

	require.NoError(t, first.Refresh(ctx))
	require.NoError(t, first.Unlock(ctx))

	held, err := c.Exists(ctx, "lock")
	require.NoError(t, err)
	assert.False(t, held)
}

func TestTryWithLock_SingleRunner(t *testing.T) {
	c := integrationClient(t)
	ctx := context.Background()

	var runs atomic.Int32
	var attempted, wg sync.WaitGroup
	release := make(chan struct{})
	for i := 0; i < 5; i++ {
		attempted.Add(1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			ran, err := c.TryWithLock(ctx, "job", 5*time.Second, func(context.Context) error {
				runs.Add(1)
				attempted.Done()
				<-release
				return nil
			})
			assert.NoError(t, err)
			if !ran {
				attempted.Done()
			}
		}()
	}

	attempted.Wait()
	close(release)
	wg.Wait()
	assert.EqualValues(t, 1, runs.Load())
}
