package auditRepository

import (
	"database/sql"
	"errors"
	"heimdall/internal/api/audit"
	"heimdall/internal/entity"
	contextPkg "heimdall/pkg/context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type AuditLogDB struct {
	ID          string         `db:"id"`
	ZoneID      string         `db:"zone_id"`
	ScannedAt   time.Time      `db:"scanned_at"`
	Violation   bool           `db:"violation"`
	Message     string         `db:"message"`
	PersonCount int            `db:"person_count"`
	Details     pq.StringArray `db:"details"`
	SnapshotURL sql.NullString `db:"snapshot_url"`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *auditRepository) CreateLog(c context.Context, log entity.AuditLog) error {
	requestID := contextPkg.GetRequestID(c)

	details := log.Details
	if details == nil {
		details = []string{}
	}

	argsKV := map[string]interface{}{
		"id":           log.ID,
		"zone_id":      log.ZoneID,
		"scanned_at":   log.Timestamp.UTC(),
		"violation":    log.Violation,
		"message":      log.Message,
		"person_count": log.PersonCount,
		"details":      pq.StringArray(details),
		"snapshot_url": sql.NullString{String: log.SnapshotURL, Valid: log.SnapshotURL != ""},
	}

	query, args, err := sqlx.Named(queryCreateLog, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateLog")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"scan_id":    log.ID,
			"error":      err.Error(),
		}).Error("Database error when creating audit log")
		return err
	}

	return nil
}

func (r *auditRepository) GetLogByID(c context.Context, id string) (entity.AuditLog, error) {
	requestID := contextPkg.GetRequestID(c)
	var row AuditLogDB

	query, args, err := sqlx.Named(queryGetLogByID, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetLogByID named query preparation err")
		return entity.AuditLog{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.AuditLog{}, audit.ErrLogNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetLogByID execution err")
		return entity.AuditLog{}, err
	}

	return makeAuditLog(row), nil
}

// ListLogs returns the newest rows first. search matches message or zone, case
// insensitive, with LIKE wildcards in the term taken literally.
func (r *auditRepository) ListLogs(c context.Context, search string, limit int) ([]entity.AuditLog, error) {
	requestID := contextPkg.GetRequestID(c)
	var rows []AuditLogDB

	search = strings.TrimSpace(search)
	argsKV := map[string]interface{}{
		"search":  search,
		"pattern": "%" + likeEscaper.Replace(search) + "%",
		"limit":   limit,
	}

	query, args, err := sqlx.Named(queryListLogs, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListLogs named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	if err := r.q.SelectContext(c, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListLogs execution err")
		return nil, err
	}

	result := make([]entity.AuditLog, 0, len(rows))
	for _, row := range rows {
		result = append(result, makeAuditLog(row))
	}

	return result, nil
}

func makeAuditLog(row AuditLogDB) entity.AuditLog {
	details := []string(row.Details)
	if details == nil {
		details = []string{}
	}

	return entity.AuditLog{
		ID:          row.ID,
		ZoneID:      row.ZoneID,
		Timestamp:   row.ScannedAt.UTC(),
		Violation:   row.Violation,
		Message:     row.Message,
		PersonCount: row.PersonCount,
		Details:     details,
		SnapshotURL: row.SnapshotURL.String,
	}
}
