package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/automata/internal/adapters/file"
	"github.com/aretw0/automata/internal/logging"
	"github.com/aretw0/automata/pkg/adapters/memory"
)

const evenAs = `
name: even_as
initial: EVEN
transitions:
  - {from: EVEN, on: a, to: ODD}
  - {from: EVEN, on: b, to: EVEN}
  - {from: ODD, on: a, to: EVEN}
  - {from: ODD, on: b, to: ODD}
outputs:
  EVEN: true
  ODD: false
`

func writeDef(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("AUTOMATA_PORT", "9090")
	t.Setenv("AUTOMATA_STORE", "memory")
	t.Setenv("REDIS_PREFIX", "test:")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, ".", cfg.Dir)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
	assert.Equal(t, "test:", cfg.Redis.Prefix)

	t.Setenv("AUTOMATA_PORT", "not-a-port")
	_, err = LoadConfig()
	assert.ErrorIs(t, err, ErrParsingConfig)
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "even_as.yaml", evenAs)
	writeDef(t, dir, "broken.yaml", "transitions: [")

	cat, err := LoadCatalog(file.NewLoader(dir), logging.NewNop())
	assert.Error(t, err, "broken definitions are reported")
	require.NotNil(t, cat)

	assert.Equal(t, []string{"even_as", "mod3", "parity", "trap"}, cat.Names())

	m, err := cat.New("even_as")
	require.NoError(t, err)
	out, err := m.Calculate(context.Background(), "abab")
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestCatalog_Reload(t *testing.T) {
	dir := t.TempDir()
	path := writeDef(t, dir, "even_as.yaml", evenAs)

	cat, err := LoadCatalog(file.NewLoader(dir), logging.NewNop())
	require.NoError(t, err)

	// A broken edit keeps the previous version.
	writeDef(t, dir, "even_as.yaml", "transitions: [")
	assert.Error(t, cat.Reload("even_as"))
	_, err = cat.Get("even_as")
	assert.NoError(t, err)

	require.NoError(t, os.Remove(path))
	require.NoError(t, cat.Reload("even_as"))
	_, err = cat.Get("even_as")
	assert.Error(t, err)
}

func TestCatalog_Resolve(t *testing.T) {
	dir := t.TempDir()
	path := writeDef(t, dir, "even_as.yaml", evenAs)

	cat, err := LoadCatalog(nil, logging.NewNop())
	require.NoError(t, err)

	bp, err := cat.Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, "even_as", bp.Name)

	bp, err = cat.Resolve("mod3")
	require.NoError(t, err)
	assert.Equal(t, "S0", bp.Initial.Name)

	_, err = cat.Resolve("nope")
	assert.Error(t, err)
}

func TestRun_Headless(t *testing.T) {
	cat, err := LoadCatalog(nil, logging.NewNop())
	require.NoError(t, err)

	var out bytes.Buffer
	err = Run(context.Background(), cat, nil, RunOptions{
		Machine:  "mod3",
		Headless: true,
		Input:    strings.NewReader("110\n111\n12\n"),
		Output:   &out,
	}, logging.NewNop())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "**S0** `0`", lines[0])
	assert.Equal(t, "**S1** `1`", lines[1])
	assert.Contains(t, lines[2], "error: No transition")
}

func TestRun_JSON(t *testing.T) {
	cat, err := LoadCatalog(nil, logging.NewNop())
	require.NoError(t, err)

	var out bytes.Buffer
	err = Run(context.Background(), cat, nil, RunOptions{
		Machine: "trap",
		JSON:    true,
		Input:   strings.NewReader("1\n100\n"),
		Output:  &out,
	}, logging.NewNop())
	require.NoError(t, err)

	dec := json.NewDecoder(&out)
	var first, second Result
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))

	assert.Equal(t, "S0", first.State)
	assert.Equal(t, float64(0), first.Output)
	assert.Empty(t, first.Error)

	assert.Equal(t, "TRAP", second.State)
	assert.Contains(t, second.Error, "trapped")
}

func TestRun_JSONLongLines(t *testing.T) {
	cat, err := LoadCatalog(nil, logging.NewNop())
	require.NoError(t, err)

	long := strings.Repeat("0", 70*1024)
	tooLong := strings.Repeat("0", 200*1024)

	var out bytes.Buffer
	err = Run(context.Background(), cat, nil, RunOptions{
		Machine:  "mod3",
		JSON:     true,
		MaxInput: 100 * 1024,
		Input:    strings.NewReader(long + "\n" + tooLong + "\n110\n"),
		Output:   &out,
	}, logging.NewNop())
	require.NoError(t, err)

	dec := json.NewDecoder(&out)
	var results []Result
	for dec.More() {
		var r Result
		require.NoError(t, dec.Decode(&r))
		results = append(results, r)
	}
	require.Len(t, results, 3, "every line gets a result")

	assert.Empty(t, results[0].Error)
	assert.Equal(t, "S0", results[0].State)
	assert.Contains(t, results[1].Error, "input exceeds maximum allowed size")
	assert.Equal(t, "110", results[2].Input)
	assert.Equal(t, float64(0), results[2].Output)
}

func TestRun_SessionLongLine(t *testing.T) {
	cat, err := LoadCatalog(nil, logging.NewNop())
	require.NoError(t, err)
	cfg := Config{Store: "memory", LockTTL: time.Second, HistorySize: 4}
	backend, err := OpenBackend(context.Background(), cfg)
	require.NoError(t, err)
	mgr := NewSessionManager(backend, cat, cfg, logging.NewNop())

	var out bytes.Buffer
	err = Run(context.Background(), cat, mgr, RunOptions{
		Machine:   "mod3",
		Headless:  true,
		SessionID: "long",
		Input:     strings.NewReader(strings.Repeat("1", 80*1024) + "\n1\n"),
		Output:    &out,
	}, logging.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"S0 error: input exceeds maximum allowed size: size=81920 limit=4096",
		"S1 1",
	}, strings.Split(strings.TrimSpace(out.String()), "\n"))
}

func TestRun_Session(t *testing.T) {
	cfg := Config{Store: "memory", LockTTL: time.Second, HistorySize: 8}
	cat, err := LoadCatalog(nil, logging.NewNop())
	require.NoError(t, err)
	backend, err := OpenBackend(context.Background(), cfg)
	require.NoError(t, err)
	mgr := NewSessionManager(backend, cat, cfg, logging.NewNop())

	run := func(input string) string {
		var out bytes.Buffer
		err := Run(context.Background(), cat, mgr, RunOptions{
			Machine:   "mod3",
			Headless:  true,
			SessionID: "s1",
			Input:     strings.NewReader(input),
			Output:    &out,
		}, logging.NewNop())
		require.NoError(t, err)
		return out.String()
	}

	assert.Equal(t, "S1 1\n", run("1\n"))
	// The second invocation continues from S1: "1" then "0" reads as 110.
	assert.Equal(t, "S0 0\nS0 0\n", run("1\n0\n"))
	assert.Contains(t, run("x\n"), "S0 error:")

	loaded, err := mgr.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Steps)

	err = Run(context.Background(), cat, mgr, RunOptions{
		Machine: "parity", Headless: true, SessionID: "s1",
		Input: strings.NewReader(""), Output: &bytes.Buffer{},
	}, logging.NewNop())
	assert.Error(t, err)
}

func TestValidate_Plain(t *testing.T) {
	dir := t.TempDir()
	path := writeDef(t, dir, "gaps.yaml", `
initial: A
transitions:
  - {from: A, on: x, to: B}
  - {from: C, on: y, to: A}
`)
	cat, err := LoadCatalog(nil, logging.NewNop())
	require.NoError(t, err)

	var out bytes.Buffer
	ok, err := Validate(cat, ValidateOptions{Target: "mod3", Output: &out})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "mod3 is valid\n", out.String())

	out.Reset()
	ok, err = Validate(cat, ValidateOptions{Target: path, Output: &out})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, out.String(), "Unreachable state: C")
	assert.Contains(t, out.String(), "Missing transition: state=A, input=y")
}

func TestValidate_JSON(t *testing.T) {
	cat, err := LoadCatalog(nil, logging.NewNop())
	require.NoError(t, err)

	var out bytes.Buffer
	ok, err := Validate(cat, ValidateOptions{Target: "parity", JSON: true, Output: &out})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[]`, out.String())
}

func TestWatchValidate(t *testing.T) {
	dir := t.TempDir()
	path := writeDef(t, dir, "even_as.yaml", evenAs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- WatchValidate(ctx, ValidateOptions{Target: path, Output: out}, logging.NewNop())
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Waiting for changes")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "even_as is valid")

	ambiguous := strings.Replace(evenAs, "transitions:\n", "transitions:\n  - {from: EVEN, on: a, to: EVEN}\n", 1)
	writeDef(t, dir, "even_as.yaml", ambiguous)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Ambiguous transition: state=EVEN, input=a")
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestWatchValidate_NeedsFile(t *testing.T) {
	err := WatchValidate(context.Background(), ValidateOptions{Target: "mod3", Output: &bytes.Buffer{}}, logging.NewNop())
	assert.Error(t, err)
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("File", func(t *testing.T) {
		b, err := OpenBackend(ctx, Config{Dir: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &file.Store{}, b.Store)
		assert.Nil(t, b.Locker)
		assert.NoError(t, b.Close())
	})

	t.Run("Memory", func(t *testing.T) {
		b, err := OpenBackend(ctx, Config{Store: "memory"})
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, b.Store)
	})

	t.Run("Redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := Config{Store: "redis"}
		cfg.Redis.ConnectionURL = "redis://" + mr.Addr()
		cfg.Redis.ConnectTimeout = time.Second
		cfg.Redis.RetryAttempts = 1
		cfg.Redis.Prefix = "test:"

		b, err := OpenBackend(ctx, cfg)
		require.NoError(t, err)
		defer b.Close()
		assert.NotNil(t, b.Locker)

		cat, err := LoadCatalog(nil, logging.NewNop())
		require.NoError(t, err)
		mgr := NewSessionManager(b, cat, Config{LockTTL: time.Second, HistorySize: 4}, logging.NewNop())
		res, err := mgr.Feed(ctx, "r1", "parity", "1")
		require.NoError(t, err)
		assert.Equal(t, true, res.Output)
		assert.True(t, mr.Exists("test:r1"))
	})

	t.Run("Encrypted", func(t *testing.T) {
		dir := t.TempDir()
		key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
		cfg := Config{Dir: dir, StoreKey: key, HistorySize: 8}

		b, err := OpenBackend(ctx, cfg)
		require.NoError(t, err)

		cat, err := LoadCatalog(nil, logging.NewNop())
		require.NoError(t, err)
		mgr := NewSessionManager(b, cat, cfg, logging.NewNop())
		_, err = mgr.Feed(ctx, "e1", "mod3", "11")
		require.NoError(t, err)

		raw, err := file.New(filepath.Join(dir, ".automata", "sessions")).Load(ctx, "e1")
		require.NoError(t, err)
		assert.NotEmpty(t, raw.Sealed)
		assert.Empty(t, raw.State.Name)

		run, err := mgr.Load(ctx, "e1")
		require.NoError(t, err)
		assert.Equal(t, "S0", run.State.Name)

		_, err = OpenBackend(ctx, Config{Dir: dir, StoreKey: "short"})
		assert.ErrorContains(t, err, "AUTOMATA_STORE_KEY")
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := OpenBackend(ctx, Config{Store: "sqlite"})
		assert.Error(t, err)
	})
}
