package collect

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swoga/moto-exporter/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var errUnreachable = errors.New("modem unreachable")

type fakeDevice struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (d *fakeDevice) record(call string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
	return d.fail[call]
}

func (d *fakeDevice) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *fakeDevice) Login(context.Context) error {
	return d.record("login")
}

func (d *fakeDevice) GetConnectionInfo(context.Context) (model.Raw, error) {
	if err := d.record("connection_info"); err != nil {
		return nil, err
	}
	return model.Raw{
		"MotoConnSystemUpTime":              "1 days 00h:00m:10s",
		"MotoConnNetworkAccess":             "Allowed",
		"GetMotoStatusConnectionInfoResult": "OK",
	}, nil
}

func (d *fakeDevice) GetConnectionHome(context.Context) (model.Raw, error) {
	if err := d.record("connection_home"); err != nil {
		return nil, err
	}
	return model.Raw{
		"MotoHomeOnline":          "Connected",
		"GetHomeConnectionResult": "OK",
		"MotoHomeDownNum":         "2",
		"MotoHomeUpNum":           "1",
	}, nil
}

func (d *fakeDevice) GetConnectionAddress(context.Context) (model.Raw, error) {
	if err := d.record("connection_address"); err != nil {
		return nil, err
	}
	return model.Raw{
		"MotoHomeMacAddress":   "00:11:22:33:44:55",
		"MotoHomeIpAddress":    "10.0.0.2",
		"MotoHomeIpv6Address":  "2001:db8::2",
		"MotoHomeSfVer":        "8600-19.3.18",
		"GetHomeAddressResult": "OK",
	}, nil
}

func (d *fakeDevice) GetDownstreamChannels(context.Context) ([]model.Raw, error) {
	if err := d.record("downstream_channels"); err != nil {
		return nil, err
	}
	channel := func(n string) model.Raw {
		return model.Raw{
			"Channel": n, "LockStatus": "Locked", "Modulation": "QAM256", "ChannelID": n,
			"Frequency": "573.0", "Power": "2.8", "SNR": "40.9", "Corrected": "24", "Uncorrected": "0",
		}
	}
	return []model.Raw{channel("2"), channel("1")}, nil
}

func (d *fakeDevice) GetUpstreamChannels(context.Context) ([]model.Raw, error) {
	if err := d.record("upstream_channels"); err != nil {
		return nil, err
	}
	return []model.Raw{{
		"Channel": "1", "LockStatus": "Locked", "ChannelType": "SC-QAM", "ChannelID": "4",
		"SymbolRate": "5120", "Frequency": "16.4", "Power": "44.0",
	}}, nil
}

func (d *fakeDevice) GetLogs(context.Context) ([]model.Raw, error) {
	if err := d.record("logs"); err != nil {
		return nil, err
	}
	return []model.Raw{{
		"Time": "10:35:01", "Date": "Tue Mar 05 2024", "Level": "Notice (6)", "Message": "hello",
	}}, nil
}

type recordingEmitter struct {
	mu      sync.Mutex
	emitted []string
	fail    map[string]error
}

func (e *recordingEmitter) record(what string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.fail[what]; err != nil {
		return err
	}
	e.emitted = append(e.emitted, what)
	return nil
}

func (e *recordingEmitter) Emitted() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.emitted...)
}

func (e *recordingEmitter) ConnectionInfo(context.Context, model.ConnectionInfo) error {
	return e.record("connection_info")
}

func (e *recordingEmitter) ConnectionHome(context.Context, model.ConnectionHome) error {
	return e.record("connection_home")
}

func (e *recordingEmitter) ConnectionAddress(context.Context, model.ConnectionAddress) error {
	return e.record("connection_address")
}

func (e *recordingEmitter) DownstreamChannels(context.Context, []model.DownstreamChannel) error {
	return e.record("downstream_channels")
}

func (e *recordingEmitter) UpstreamChannels(context.Context, []model.UpstreamChannel) error {
	return e.record("upstream_channels")
}

func (e *recordingEmitter) Logs(context.Context, []model.LogEntry) error {
	return e.record("logs")
}

type recordingObserver struct {
	events []string
}

func (o *recordingObserver) StepStarted(step Step) {
	o.events = append(o.events, "start "+string(step))
}

func (o *recordingObserver) StepFinished(result StepResult) {
	state := "ok"
	if !result.OK() {
		state = "failed"
	}
	o.events = append(o.events, state+" "+string(result.Step))
}

func steps(report Report) []Step {
	var out []Step
	for _, step := range report.Steps {
		out = append(out, step.Step)
	}
	return out
}

func TestRunOnce_ChannelsOnly(t *testing.T) {
	device := &fakeDevice{}
	emitter := &recordingEmitter{}
	c := New(zap.NewNop(), device, emitter)

	err := c.RunOnce(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"login", "downstream_channels", "upstream_channels"}, device.Calls())
	assert.Equal(t, []string{"downstream_channels", "upstream_channels"}, emitter.Emitted())
}

func TestCollectOnce_AllGroups(t *testing.T) {
	device := &fakeDevice{}
	emitter := &recordingEmitter{}
	c := New(zap.NewNop(), device, emitter)

	report := c.CollectOnce(context.Background(), Options{Info: true, Logs: true}, BestEffort)

	assert.Equal(t, []Step{
		StepLogin, StepConnectionHome, StepConnectionInfo, StepConnectionAddress,
		StepDownstreamChannels, StepUpstreamChannels, StepLogs,
	}, steps(report))
	assert.Empty(t, report.Failed())
	assert.NoError(t, report.Err())
	// home, info, address, 2 downstream, 1 upstream, 1 log
	assert.Equal(t, 7, report.Records())
	assert.False(t, report.Finished.Before(report.Started))
}

func TestCollectOnce_LoginFailureEndsCycle(t *testing.T) {
	for _, policy := range []Policy{BestEffort, Strict} {
		device := &fakeDevice{fail: map[string]error{"login": errUnreachable}}
		emitter := &recordingEmitter{}
		c := New(zap.NewNop(), device, emitter)

		report := c.CollectOnce(context.Background(), Options{Info: true, Logs: true}, policy)

		assert.Equal(t, []string{"login"}, device.Calls())
		assert.Empty(t, emitter.Emitted())
		require.Len(t, report.Failed(), 1)
		assert.ErrorIs(t, report.Err(), errUnreachable)
		assert.Contains(t, report.Err().Error(), "failed to log in")
	}
}

func TestCollectOnce_BestEffortIsolatesFailures(t *testing.T) {
	device := &fakeDevice{fail: map[string]error{"connection_info": errUnreachable}}
	emitter := &recordingEmitter{fail: map[string]error{"upstream_channels": errors.New("sink down")}}
	core, logs := observer.New(zap.InfoLevel)
	c := New(zap.New(core), device, emitter)

	report := c.CollectOnce(context.Background(), Options{Info: true, Logs: true}, BestEffort)

	assert.Len(t, report.Steps, 7)
	failed := report.Failed()
	require.Len(t, failed, 2)
	assert.Equal(t, StepConnectionInfo, failed[0].Step)
	assert.Equal(t, StepUpstreamChannels, failed[1].Step)
	assert.Equal(t, []string{"connection_home", "connection_address", "downstream_channels", "logs"}, emitter.Emitted())

	assert.Equal(t, 1, logs.FilterMessage("failed to get connection info").Len())
	assert.Equal(t, 1, logs.FilterMessage("failed to get upstream channels").Len())
}

func TestCollectOnce_ParseFailureIsolated(t *testing.T) {
	device := &badHomeDevice{fakeDevice: &fakeDevice{}}
	emitter := &recordingEmitter{}
	c := New(zap.NewNop(), device, emitter)

	report := c.CollectOnce(context.Background(), Options{Info: true}, BestEffort)

	failed := report.Failed()
	require.Len(t, failed, 1)
	var parseErr *model.ParseError
	require.ErrorAs(t, failed[0].Err, &parseErr)
	assert.Equal(t, "MotoHomeDownNum", parseErr.Key)
	assert.Equal(t, []string{"connection_info", "connection_address", "downstream_channels", "upstream_channels"}, emitter.Emitted())
}

type badHomeDevice struct {
	*fakeDevice
}

func (d *badHomeDevice) GetConnectionHome(ctx context.Context) (model.Raw, error) {
	raw, err := d.fakeDevice.GetConnectionHome(ctx)
	if err != nil {
		return nil, err
	}
	raw["MotoHomeDownNum"] = "lots"
	return raw, nil
}

func TestRunOnce_StrictStopsAtFirstFailure(t *testing.T) {
	device := &fakeDevice{fail: map[string]error{"connection_info": errUnreachable}}
	emitter := &recordingEmitter{}
	obs := &recordingObserver{}
	c := New(zap.NewNop(), device, emitter, WithObserver(obs))

	err := c.RunOnce(context.Background(), Options{Info: true, Logs: true})

	require.Error(t, err)
	assert.ErrorIs(t, err, errUnreachable)
	assert.Contains(t, err.Error(), "failed to get connection info")
	assert.Equal(t, []string{"login", "connection_home", "connection_info"}, device.Calls())
	assert.Equal(t, []string{
		"start login", "ok login",
		"start connection_home", "ok connection_home",
		"start connection_info", "failed connection_info",
	}, obs.events)
}

func TestCollectOnce_Metrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	device := &fakeDevice{fail: map[string]error{"logs": errUnreachable}}
	c := New(zap.NewNop(), device, &recordingEmitter{}, WithMetrics(metrics))

	c.CollectOnce(context.Background(), Options{Logs: true}, BestEffort)
	c.CollectOnce(context.Background(), Options{Logs: true}, BestEffort)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.cycles))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.stepFailures.WithLabelValues("logs")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.stepFailures.WithLabelValues("login")))
}

type fakeTrigger struct {
	ch      chan time.Time
	stopped bool
}

func (t *fakeTrigger) C() <-chan time.Time { return t.ch }
func (t *fakeTrigger) Stop()               { t.stopped = true }

func TestRun_ContinuesAfterFailures(t *testing.T) {
	device := &fakeDevice{fail: map[string]error{"connection_info": errUnreachable}}
	emitter := &recordingEmitter{}
	core, logs := observer.New(zap.InfoLevel)
	c := New(zap.New(core), device, emitter)
	trigger := &fakeTrigger{ch: make(chan time.Time)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- c.Run(ctx, trigger, func() Options { return Options{Info: true} })
	}()

	trigger.ch <- time.Now()
	trigger.ch <- time.Now()
	// the third send is only received once the second cycle has completed
	trigger.ch <- time.Now()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.True(t, trigger.stopped)
	assert.GreaterOrEqual(t, logs.FilterMessage("failed to get connection info").Len(), 2)

	perCycle := []string{"connection_home", "connection_address", "downstream_channels", "upstream_channels"}
	emitted := emitter.Emitted()
	require.GreaterOrEqual(t, len(emitted), 2*len(perCycle))
	assert.Equal(t, perCycle, emitted[:len(perCycle)])
	assert.Equal(t, perCycle, emitted[len(perCycle):2*len(perCycle)])
	assert.NotContains(t, emitted, "connection_info")
}

func TestRun_ReadsOptionsEveryCycle(t *testing.T) {
	device := &fakeDevice{}
	c := New(zap.NewNop(), device, &recordingEmitter{})
	trigger := &fakeTrigger{ch: make(chan time.Time)}

	cycle := 0
	options := func() Options {
		cycle++
		return Options{Logs: cycle > 1}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- c.Run(ctx, trigger, options)
	}()

	trigger.ch <- time.Now()
	trigger.ch <- time.Now()
	trigger.ch <- time.Now()
	cancel()
	<-done

	calls := device.Calls()
	require.GreaterOrEqual(t, len(calls), 7)
	assert.Equal(t, []string{"login", "downstream_channels", "upstream_channels"}, calls[:3])
	assert.Equal(t, []string{"login", "downstream_channels", "upstream_channels", "logs"}, calls[3:7])
}

func TestStep_Descriptions(t *testing.T) {
	assert.Equal(t, "logging in", StepLogin.Action())
	assert.Equal(t, "failed to log in", StepLogin.Failure())
	assert.Equal(t, "getting downstream channels", StepDownstreamChannels.Action())
	assert.Equal(t, "failed to get connection address", StepConnectionAddress.Failure())
}
