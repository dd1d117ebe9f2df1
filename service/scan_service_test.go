package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Aashish23092/id-document-scanner/config"
	"github.com/Aashish23092/id-document-scanner/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	name      string
	available bool
	candidate dto.Candidate
	err       error
	delay      time.Duration
	availableDelay time.Duration
	panicMsg   string

	calls    atomic.Int32
	inits    atomic.Int32
	closes   atomic.Int32
	initErr  error
	closeErr error
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Available(ctx context.Context) bool {
	if f.availableDelay > 0 {
		time.Sleep(f.availableDelay)
	}
	return f.available
}

func (f *fakeBackend) Scan(ctx context.Context, img []byte) (dto.Candidate, error) {
	f.calls.Add(1)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.candidate, f.err
}

type lifecycleBackend struct{ *fakeBackend }

func (l lifecycleBackend) Init(ctx context.Context) error {
	l.inits.Add(1)
	return l.initErr
}

func (l lifecycleBackend) Close() error {
	l.closes.Add(1)
	return l.closeErr
}

func conf(v float64) *float64 { return &v }

func recordWithName(name string) dto.ExtractedRecord {
	return dto.ExtractedRecord{Name: dto.StringPtr(name), RawText: "NAME " + name}
}

var localGate = GatePolicy{MinConfidence: 40}
var noFloorGate = GatePolicy{}

func TestScanFallsBackAfterGateRejection(t *testing.T) {
	first := &fakeBackend{
		name:      "tesseract",
		available: true,
		candidate: dto.Candidate{Record: dto.ExtractedRecord{RawText: "~~ noise ~~"}, Confidence: conf(30)},
	}
	second := &fakeBackend{
		name:      "passport-eye",
		available: true,
		candidate: dto.Candidate{Record: recordWithName("JANE DOE"), Confidence: conf(12)},
	}

	svc := NewScanService(time.Second,
		BackendConfig{Backend: first, Policy: localGate, Timeout: time.Second},
		BackendConfig{Backend: second, Policy: noFloorGate, Timeout: time.Second},
	)

	result, err := svc.Scan(context.Background(), []byte("img"))
	require.NoError(t, err)

	assert.Equal(t, "passport-eye", result.Provenance)
	assert.Equal(t, "JANE DOE", dto.Deref(result.Record.Name))
	require.Len(t, result.Attempts, 2)
	assert.Equal(t, dto.OutcomeRejected, result.Attempts[0].Outcome)
	assert.ErrorIs(t, result.Attempts[0].Err, dto.ErrLowConfidence)
	assert.Equal(t, dto.OutcomeAccepted, result.Attempts[1].Outcome)
}

func TestScanStopsAtFirstAcceptedBackend(t *testing.T) {
	first := &fakeBackend{name: "tesseract", available: true, candidate: dto.Candidate{Record: recordWithName("JOHN SAMPLE"), Confidence: conf(88)}}
	second := &fakeBackend{name: "textract", available: true, candidate: dto.Candidate{Record: recordWithName("OTHER")}}

	svc := NewScanService(time.Second,
		BackendConfig{Backend: first, Policy: localGate, Timeout: time.Second},
		BackendConfig{Backend: second, Policy: noFloorGate, Timeout: time.Second},
	)

	result, err := svc.Scan(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "tesseract", result.Provenance)
	assert.Equal(t, int32(0), second.calls.Load())
}

func TestScanSkipsUnavailableBackend(t *testing.T) {
	down := &fakeBackend{name: "passport-eye", available: false}
	up := &fakeBackend{name: "textract", available: true, candidate: dto.Candidate{Record: recordWithName("JOHN SAMPLE")}}

	svc := NewScanService(time.Second,
		BackendConfig{Backend: down, Policy: noFloorGate, Timeout: time.Second},
		BackendConfig{Backend: up, Policy: noFloorGate, Timeout: time.Second},
	)

	result, err := svc.Scan(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "textract", result.Provenance)
	assert.Equal(t, int32(0), down.calls.Load())
	assert.ErrorIs(t, result.Attempts[0].Err, dto.ErrEngineUnavailable)
}

func TestScanSkipsBackendWithHangingAvailabilityCheck(t *testing.T) {
	hung := &fakeBackend{name: "passport-eye", available: true, availableDelay: 500 * time.Millisecond, candidate: dto.Candidate{Record: recordWithName("NEVER")}}
	next := &fakeBackend{name: "textract", available: true, candidate: dto.Candidate{Record: recordWithName("JANE DOE")}}

	svc := NewScanService(20*time.Millisecond,
		BackendConfig{Backend: hung, Policy: noFloorGate, Timeout: time.Second},
		BackendConfig{Backend: next, Policy: noFloorGate, Timeout: time.Second},
	)

	start := time.Now()
	result, err := svc.Scan(context.Background(), []byte("img"))
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 400*time.Millisecond)
	assert.Equal(t, "textract", result.Provenance)
	assert.Equal(t, int32(0), hung.calls.Load())
	assert.Equal(t, dto.OutcomeErrored, result.Attempts[0].Outcome)
	assert.ErrorIs(t, result.Attempts[0].Err, dto.ErrEngineUnavailable)
}

func TestScanNeverReturnsEmptyRecord(t *testing.T) {
	empty := &fakeBackend{name: "passport-eye", available: true, candidate: dto.Candidate{Record: dto.ExtractedRecord{RawText: "noise"}}}

	svc := NewScanService(time.Second,
		BackendConfig{Backend: empty, Policy: GatePolicyFromConfig(config.GateConfig{}), Timeout: time.Second},
	)

	result, err := svc.Scan(context.Background(), []byte("img"))
	assert.Nil(t, result)
	require.ErrorIs(t, err, dto.ErrAllBackendsExhausted)

	var exhausted *dto.ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, dto.OutcomeRejected, exhausted.Attempts[0].Outcome)
	assert.ErrorIs(t, exhausted.Attempts[0].Err, dto.ErrLowConfidence)
}

func TestScanRecordsBlankTextAsRejection(t *testing.T) {
	blank := &fakeBackend{name: "tesseract", available: true, err: fmt.Errorf("%w: tesseract recognized no text", dto.ErrLowConfidence)}
	good := &fakeBackend{name: "textract", available: true, candidate: dto.Candidate{Record: recordWithName("JANE DOE")}}

	svc := NewScanService(time.Second,
		BackendConfig{Backend: blank, Policy: localGate, Timeout: time.Second},
		BackendConfig{Backend: good, Policy: noFloorGate, Timeout: time.Second},
	)

	result, err := svc.Scan(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeRejected, result.Attempts[0].Outcome)
	assert.Nil(t, result.Attempts[0].Record)
}

func TestScanAbandonsSlowBackend(t *testing.T) {
	slow := &fakeBackend{name: "tesseract", available: true, delay: 500 * time.Millisecond, candidate: dto.Candidate{Record: recordWithName("LATE")}}
	fast := &fakeBackend{name: "passport-eye", available: true, candidate: dto.Candidate{Record: recordWithName("JANE DOE")}}

	svc := NewScanService(time.Second,
		BackendConfig{Backend: slow, Policy: noFloorGate, Timeout: 20 * time.Millisecond},
		BackendConfig{Backend: fast, Policy: noFloorGate, Timeout: time.Second},
	)

	start := time.Now()
	result, err := svc.Scan(context.Background(), []byte("img"))
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 400*time.Millisecond)
	assert.Equal(t, "passport-eye", result.Provenance)
	assert.ErrorIs(t, result.Attempts[0].Err, dto.ErrEngineCallFailed)
	assert.ErrorIs(t, result.Attempts[0].Err, context.DeadlineExceeded)
}

func TestScanRecoversBackendPanic(t *testing.T) {
	broken := &fakeBackend{name: "tesseract", available: true, panicMsg: "cgo crash"}
	good := &fakeBackend{name: "textract", available: true, candidate: dto.Candidate{Record: recordWithName("JANE DOE")}}

	svc := NewScanService(time.Second,
		BackendConfig{Backend: broken, Policy: localGate, Timeout: time.Second},
		BackendConfig{Backend: good, Policy: noFloorGate, Timeout: time.Second},
	)

	result, err := svc.Scan(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "textract", result.Provenance)
	assert.Equal(t, dto.OutcomeErrored, result.Attempts[0].Outcome)
}

func TestScanAllBackendsExhausted(t *testing.T) {
	svc := NewScanService(time.Second,
		BackendConfig{Backend: &fakeBackend{name: "tesseract", available: true, err: dto.ErrEngineCallFailed}, Policy: localGate, Timeout: time.Second},
		BackendConfig{Backend: &fakeBackend{name: "passport-eye", available: true, candidate: dto.Candidate{Record: dto.ExtractedRecord{RawText: "???"}}}, Policy: noFloorGate, Timeout: time.Second},
		BackendConfig{Backend: &fakeBackend{name: "textract", available: false}, Policy: noFloorGate, Timeout: time.Second},
	)

	result, err := svc.Scan(context.Background(), []byte("img"))
	assert.Nil(t, result)
	require.ErrorIs(t, err, dto.ErrAllBackendsExhausted)

	var exhausted *dto.ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	require.Len(t, exhausted.Attempts, 3)
	assert.Equal(t, dto.OutcomeErrored, exhausted.Attempts[0].Outcome)
	assert.Equal(t, dto.OutcomeRejected, exhausted.Attempts[1].Outcome)
	assert.Equal(t, dto.OutcomeErrored, exhausted.Attempts[2].Outcome)
}

func TestScanWithNoBackends(t *testing.T) {
	_, err := NewScanService(time.Second).Scan(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, dto.ErrAllBackendsExhausted)
}

func TestStatus(t *testing.T) {
	svc := NewScanService(time.Second,
		BackendConfig{Backend: &fakeBackend{name: "tesseract", available: true}},
		BackendConfig{Backend: &fakeBackend{name: "passport-eye", available: false}},
		BackendConfig{Backend: &fakeBackend{name: "textract", available: true}},
	)

	assert.Equal(t, []dto.BackendStatus{
		{Backend: "tesseract", Priority: 1, Available: true},
		{Backend: "passport-eye", Priority: 2, Available: false},
		{Backend: "textract", Priority: 3, Available: true},
	}, svc.Status(context.Background()))
	assert.Equal(t, []string{"tesseract", "passport-eye", "textract"}, svc.Backends())
}

func TestStartAndClose(t *testing.T) {
	engine := lifecycleBackend{&fakeBackend{name: "tesseract", initErr: errors.New("no tessdata")}}
	cloud := lifecycleBackend{&fakeBackend{name: "textract", closeErr: errors.New("close failed")}}
	plain := &fakeBackend{name: "passport-eye"}

	svc := NewScanService(time.Second,
		BackendConfig{Backend: engine},
		BackendConfig{Backend: plain},
		BackendConfig{Backend: cloud},
	)

	svc.Start(context.Background())
	assert.Equal(t, int32(1), engine.inits.Load())
	assert.Equal(t, int32(1), cloud.inits.Load())

	err := svc.Close()
	assert.ErrorContains(t, err, "textract")
	assert.Equal(t, int32(1), engine.closes.Load())
	assert.Equal(t, int32(1), cloud.closes.Load())
}

func TestGatePolicy(t *testing.T) {
	named := recordWithName("JANE DOE")

	tests := []struct {
		name    string
		policy  GatePolicy
		cand    dto.Candidate
		wantErr bool
	}{
		{"below floor", localGate, dto.Candidate{Record: named, Confidence: conf(39.9)}, true},
		{"at floor", localGate, dto.Candidate{Record: named, Confidence: conf(40)}, false},
		{"unknown confidence", localGate, dto.Candidate{Record: named}, false},
		{"all null", localGate, dto.Candidate{Confidence: conf(99)}, true},
		{"no floor", noFloorGate, dto.Candidate{Record: named, Confidence: conf(1)}, false},
		{"no floor all null", noFloorGate, dto.Candidate{}, true},
		{"no floor raw text only", noFloorGate, dto.Candidate{Record: dto.ExtractedRecord{RawText: "noise"}, Confidence: conf(100)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Evaluate(tt.cand)
			if tt.wantErr {
				assert.ErrorIs(t, err, dto.ErrLowConfidence)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
