package alert

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	name string
	err  error
	got  []Violation
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Notify(_ context.Context, v Violation) error {
	r.got = append(r.got, v)
	return r.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func sample() Violation {
	return Violation{
		ScanID:    "01J0",
		ZoneID:    "zone-a",
		Timestamp: time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC),
		Details:   []string{"Person ID 1: No Helmet"},
	}
}

func TestFanoutDeliversToAll(t *testing.T) {
	a, b := &recordingNotifier{name: "a"}, &recordingNotifier{name: "b"}

	require.NoError(t, NewFanout(quietLogger(), a, nil, b).Notify(context.Background(), sample()))
	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)
}

func TestFanoutKeepsGoingAfterFailure(t *testing.T) {
	failing := &recordingNotifier{name: "sns", err: errors.New("throttled")}
	ok := &recordingNotifier{name: "smtp"}

	err := NewFanout(quietLogger(), failing, ok).Notify(context.Background(), sample())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sns: throttled")
	assert.Len(t, ok.got, 1)
}

func TestFanoutWithoutNotifiers(t *testing.T) {
	assert.NoError(t, NewFanout(quietLogger()).Notify(context.Background(), sample()))
}

func TestViolationBody(t *testing.T) {
	v := sample()
	v.SnapshotURL = "https://evidence.s3.amazonaws.com/snapshots/zone-a/01J0.jpg"

	assert.Equal(t, "Heimdall: safety violation in zone-a", v.Subject())
	assert.Equal(t, "Safety violation detected in zone zone-a at 2026-03-02T08:30:00Z.\n"+
		"Scan: 01J0\n"+
		"- Person ID 1: No Helmet\n"+
		"Snapshot: https://evidence.s3.amazonaws.com/snapshots/zone-a/01J0.jpg\n", v.Body())
}
