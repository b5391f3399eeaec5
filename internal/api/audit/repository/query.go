package auditRepository

const (
	queryCreateLog = `
		INSERT INTO scan_audit_logs (
			id,
			zone_id,
			scanned_at,
			violation,
			message,
			person_count,
			details,
			snapshot_url
		) VALUES (
			:id,
			:zone_id,
			:scanned_at,
			:violation,
			:message,
			:person_count,
			:details,
			:snapshot_url
		)
	`

	queryGetLogByID = `
		SELECT
			id,
			zone_id,
			scanned_at,
			violation,
			message,
			person_count,
			details,
			snapshot_url
		FROM scan_audit_logs
		WHERE id = :id
	`

	queryListLogs = `
		SELECT
			id,
			zone_id,
			scanned_at,
			violation,
			message,
			person_count,
			details,
			snapshot_url
		FROM scan_audit_logs
		WHERE (CAST(:search AS TEXT) = '' OR message ILIKE :pattern OR zone_id ILIKE :pattern)
		ORDER BY scanned_at DESC, id DESC
		LIMIT :limit
	`
)
