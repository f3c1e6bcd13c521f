package monitor

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rileyhilliard/gpugraph/internal/logger"
	"github.com/rileyhilliard/gpugraph/internal/monitor/parsers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner returns canned output and records what it was asked to run.
type fakeRunner struct {
	mu       sync.Mutex
	out      string
	err      error
	commands []string
	closed   bool
}

func (f *fakeRunner) Run(ctx context.Context, command string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, command)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.out), nil
}

func (f *fakeRunner) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// blockingRunner waits for ctx and reports how it ended.
type blockingRunner struct{}

func (blockingRunner) Run(ctx context.Context, command string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

const rocmTwoCards = `

============================ ROCm System Management Interface ============================
=================================== % time GPU is busy ===================================
GPU[0]		: GPU use (%): 37
GPU[1]		: GPU use (%): 100
==========================================================================================
================================== End of ROCm SMI Log ===================================
`

func TestScanBatch(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxSlots int
		expected Batch
	}{
		{
			name:     "two cards two slots",
			input:    rocmTwoCards,
			maxSlots: 2,
			expected: Batch{0.37, 1.0},
		},
		{
			name:     "fewer cards than slots",
			input:    "GPU[0]\t\t: GPU use (%): 42\n",
			maxSlots: 3,
			expected: Batch{0.42, Unavailable, Unavailable},
		},
		{
			name:     "more cards than slots stops early",
			input:    "GPU use (%): 10\nGPU use (%): 20\nGPU use (%): 30\n",
			maxSlots: 2,
			expected: Batch{0.10, 0.20},
		},
		{
			name:     "encounter order, not device id",
			input:    "GPU[3]\t\t: GPU use (%): 70\nGPU[1]\t\t: GPU use (%): 5\n",
			maxSlots: 2,
			expected: Batch{0.70, 0.05},
		},
		{
			name:     "malformed lines skipped",
			input:    "GPU use (%): \nGPU use (%): abc\nGPU use (%): 15\n",
			maxSlots: 2,
			expected: Batch{0.15, Unavailable},
		},
		{
			name:     "no matches",
			input:    "command not found\n",
			maxSlots: 2,
			expected: Batch{Unavailable, Unavailable},
		},
		{
			name:     "empty output",
			input:    "",
			maxSlots: 1,
			expected: Batch{Unavailable},
		},
		{
			name:     "last line without newline",
			input:    "GPU use (%): 8",
			maxSlots: 1,
			expected: Batch{0.08},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScanBatch(strings.NewReader(tt.input), parsers.ROCm, tt.maxSlots)
			require.Len(t, got, len(tt.expected))
			for i := range tt.expected {
				assert.InDelta(t, tt.expected[i], got[i], 1e-9, "slot %d", i)
			}
		})
	}
}

func TestCommandSamplerSample(t *testing.T) {
	runner := &fakeRunner{out: rocmTwoCards}
	s := NewCommandSampler(CommandSamplerOptions{
		Name:    "rocm",
		Runner:  runner,
		Command: "rocm-smi --showuse",
	})

	batch := s.Sample(context.Background(), 2)

	assert.Equal(t, "rocm", s.Name())
	assert.InDelta(t, 0.37, batch[0], 1e-9)
	assert.InDelta(t, 1.0, batch[1], 1e-9)
	assert.Equal(t, []string{"rocm-smi --showuse"}, runner.commands)
}

func TestCommandSamplerStartFailure(t *testing.T) {
	log := logger.NewBufferLogger()
	s := NewCommandSampler(CommandSamplerOptions{
		Runner: &fakeRunner{err: errors.New("exec: \"rocm-smi\": not found")},
		Logger: log,
	})

	batch := s.Sample(context.Background(), 2)

	assert.Equal(t, Batch{Unavailable, Unavailable}, batch)
	assert.True(t, log.HasLevel("debug"))

	// A failed start leaves history alone.
	h := NewHistory(2, 4)
	assert.False(t, h.Append(batch))
	assert.Equal(t, 0, h.Count())
}

func TestCommandSamplerZeroSlots(t *testing.T) {
	runner := &fakeRunner{out: rocmTwoCards}
	s := NewCommandSampler(CommandSamplerOptions{Runner: runner})

	assert.Empty(t, s.Sample(context.Background(), 0))
	assert.Empty(t, runner.commands, "nothing to fill, nothing to run")
}

func TestCommandSamplerTimeout(t *testing.T) {
	s := NewCommandSampler(CommandSamplerOptions{
		Runner:  blockingRunner{},
		Timeout: 20 * time.Millisecond,
	})

	start := time.Now()
	batch := s.Sample(context.Background(), 1)

	assert.Equal(t, Batch{Unavailable}, batch)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCommandSamplerDefaults(t *testing.T) {
	s := NewCommandSampler(CommandSamplerOptions{})

	assert.Equal(t, "command", s.Name())
	assert.IsType(t, &LocalRunner{}, s.runner)
	assert.NotNil(t, s.parse)
	assert.NoError(t, s.Close(), "local runner has nothing to close")
}

func TestCommandSamplerCloseClosesRunner(t *testing.T) {
	runner := &fakeRunner{}
	s := NewCommandSampler(CommandSamplerOptions{Runner: runner})

	require.NoError(t, s.Close())
	assert.True(t, runner.closed)
}

func TestLocalRunner(t *testing.T) {
	r := &LocalRunner{}

	t.Run("captures stdout", func(t *testing.T) {
		out, err := r.Run(context.Background(), "printf 'GPU use (%%): 12\\n'")
		require.NoError(t, err)
		assert.Equal(t, "GPU use (%): 12\n", string(out))
	})

	t.Run("non-zero exit still returns output", func(t *testing.T) {
		out, err := r.Run(context.Background(), "echo partial; exit 3")
		require.NoError(t, err)
		assert.Equal(t, "partial\n", string(out))
	})

	t.Run("missing shell is a start failure", func(t *testing.T) {
		bad := &LocalRunner{Shell: "/nonexistent/shell"}
		_, err := bad.Run(context.Background(), "true")
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := r.Run(ctx, "sleep 5")
		assert.Error(t, err)
	})
}

func TestLocalRunnerEndToEnd(t *testing.T) {
	s := NewCommandSampler(CommandSamplerOptions{
		Command: "printf 'GPU[0]\\t\\t: GPU use (%%): 25\\nGPU[1]\\t\\t: GPU use (%%): 75\\n'",
	})

	batch := s.Sample(context.Background(), 2)
	assert.InDelta(t, 0.25, batch[0], 1e-9)
	assert.InDelta(t, 0.75, batch[1], 1e-9)
}

// fakeClient stands in for an SSH connection.
type fakeClient struct {
	out    string
	err    error
	closed bool
}

func (c *fakeClient) ExecContext(ctx context.Context, cmd string) ([]byte, int, error) {
	if c.err != nil {
		return nil, -1, c.err
	}
	return []byte(c.out), 0, nil
}

func (c *fakeClient) Close() error {
	c.closed = true
	return nil
}

func TestRemoteRunnerReusesConnection(t *testing.T) {
	dials := 0
	client := &fakeClient{out: "GPU use (%): 5\n"}

	r := NewRemoteRunner("gpu-box", 0)
	r.dial = func(host string, timeout time.Duration) (remoteClient, error) {
		dials++
		assert.Equal(t, "gpu-box", host)
		assert.Equal(t, 10*time.Second, timeout)
		return client, nil
	}

	for i := 0; i < 3; i++ {
		out, err := r.Run(context.Background(), "rocm-smi --showuse")
		require.NoError(t, err)
		assert.Equal(t, "GPU use (%): 5\n", string(out))
	}

	assert.Equal(t, 1, dials)
	assert.Equal(t, "gpu-box", r.Host())

	require.NoError(t, r.Close())
	assert.True(t, client.closed)
}

func TestRemoteRunnerRedialsAfterFailure(t *testing.T) {
	broken := &fakeClient{err: errors.New("connection reset")}
	healthy := &fakeClient{out: "ok\n"}
	clients := []*fakeClient{broken, healthy}

	r := NewRemoteRunner("gpu-box", time.Second)
	r.dial = func(host string, timeout time.Duration) (remoteClient, error) {
		c := clients[0]
		clients = clients[1:]
		return c, nil
	}

	_, err := r.Run(context.Background(), "true")
	require.Error(t, err)
	assert.True(t, broken.closed, "failed connection is dropped")

	out, err := r.Run(context.Background(), "true")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", string(out))
}

func TestRemoteRunnerDialFailure(t *testing.T) {
	r := NewRemoteRunner("gpu-box", time.Second)
	r.dial = func(host string, timeout time.Duration) (remoteClient, error) {
		return nil, errors.New("no route to host")
	}

	s := NewCommandSampler(CommandSamplerOptions{Runner: r})
	assert.Equal(t, Batch{Unavailable, Unavailable}, s.Sample(context.Background(), 2))
	assert.NoError(t, s.Close(), "nothing was ever connected")
}

func TestRemoteSamplerLive(t *testing.T) {
	host := os.Getenv("GPUGRAPH_TEST_SSH_HOST")
	if host == "" {
		t.Skip("Skipping SSH test: GPUGRAPH_TEST_SSH_HOST not set")
	}

	r := NewRemoteRunner(host, 10*time.Second)
	s := NewCommandSampler(CommandSamplerOptions{
		Runner:  r,
		Command: "printf 'GPU use (%%): 12\\nGPU use (%%): 34\\n'",
		Timeout: 10 * time.Second,
	})
	defer s.Close()

	assert.Equal(t, Batch{0.12, 0.34}, s.Sample(context.Background(), 2))
	assert.Equal(t, Batch{0.12, 0.34}, s.Sample(context.Background(), 2), "connection is reused")
}
