package auditService

import (
	"errors"
	"heimdall/internal/api/audit"
	auditRepository "heimdall/internal/api/audit/repository"
	"heimdall/internal/entity"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

var columns = []string{"id", "zone_id", "scanned_at", "violation", "message", "person_count", "details", "snapshot_url"}

type fakePresigner struct {
	err error
}

func (f *fakePresigner) UploadSnapshot(context.Context, string, []byte, string) (string, error) {
	return "", nil
}

func (f *fakePresigner) PresignUrl(_ context.Context, fileURL string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fileURL + "?X-Amz-Signature=abc", nil
}


func newService(t *testing.T, presigner *fakePresigner) (IAuditService, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := auditRepository.New(sqlx.NewDb(mockDB, "postgres"), logger)
	if presigner == nil {
		return NewAuditService(logger, repo, nil), mock
	}
	return NewAuditService(logger, repo, presigner), mock
}

func TestRecordScan(t *testing.T) {
	svc, mock := newService(t, nil)
	ts := time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scan_audit_logs")).
		WithArgs("01HQ", "dock-1", ts, false, "Site Compliant", 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.RecordScan(context.Background(), entity.ScanResult{
		ScanID:      "01HQ",
		ZoneID:      "dock-1",
		Timestamp:   ts,
		Outcome:     entity.EvaluationOutcome{PersonFound: true, Details: []string{}},
		PersonCount: 1,
		Message:     "Site Compliant",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLogsDefaultsAndPresigns(t *testing.T) {
	svc, mock := newService(t, &fakePresigner{})
	ts := time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM scan_audit_logs")).
		WithArgs("", "%%", "%%", audit.DefaultListLimit).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("b", "zone-a", ts, true, "Safety Violation Detected", 1, "{\"Person ID 0: No Helmet\"}", "https://bucket.s3.amazonaws.com/snapshots/zone-a/b.png").
			AddRow("a", "zone-a", ts.Add(-time.Second), false, "Site Compliant", 1, "{}", nil))

	logs, err := svc.ListLogs(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "https://bucket.s3.amazonaws.com/snapshots/zone-a/b.png?X-Amz-Signature=abc", logs[0].SnapshotURL)
	assert.Empty(t, logs[1].SnapshotURL)
}

func TestListLogsKeepsLocationWhenPresignFails(t *testing.T) {
	svc, mock := newService(t, &fakePresigner{err: errors.New("no such key")})

	mock.ExpectQuery(regexp.QuoteMeta("FROM scan_audit_logs")).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("b", "zone-a", time.Now(), true, "Safety Violation Detected", 1, "{}", "https://bucket/snap.png"))

	logs, err := svc.ListLogs(context.Background(), "zone", 10)
	require.NoError(t, err)
	assert.Equal(t, "https://bucket/snap.png", logs[0].SnapshotURL)
}

func TestListLogsRejectsLimit(t *testing.T) {
	svc, _ := newService(t, nil)

	for _, limit := range []int{-1, audit.MaxListLimit + 1} {
		_, err := svc.ListLogs(context.Background(), "", limit)
		assert.ErrorIs(t, err, audit.ErrInvalidLimit)
	}
}

func TestGetLog(t *testing.T) {
	svc, mock := newService(t, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM scan_audit_logs")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := svc.GetLog(context.Background(), "nope")
	assert.ErrorIs(t, err, audit.ErrLogNotFound)
}

func TestStoreFailuresSurfaceAsInternalError(t *testing.T) {
	svc, mock := newService(t, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM scan_audit_logs")).
		WillReturnError(errors.New("connection refused"))
	_, err := svc.ListLogs(context.Background(), "", 10)
	assert.ErrorIs(t, err, audit.ErrInternalServerError)
	assert.NotContains(t, err.Error(), "connection refused")

	mock.ExpectQuery(regexp.QuoteMeta("FROM scan_audit_logs")).
		WithArgs("01HQ").
		WillReturnError(errors.New("connection refused"))
	_, err = svc.GetLog(context.Background(), "01HQ")
	assert.ErrorIs(t, err, audit.ErrInternalServerError)
}
