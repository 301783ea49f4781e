package duckdb

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tinytelemetry/unfold/internal/deploy"
	"github.com/tinytelemetry/unfold/internal/model"
)

// maxQueryRows caps ExecuteQuery results.
const maxQueryRows = 1000

// dangerousKeywordPattern matches write or side-effecting SQL keywords at
// word boundaries, so "RESET" does not match "SET".
var dangerousKeywordPattern = regexp.MustCompile(
	`(?i)\b(INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|TRUNCATE|COPY|ATTACH|DETACH|LOAD|EXPORT|IMPORT|INSTALL|CALL|EXECUTE|PRAGMA|SET)\b`,
)

var blockCommentPattern = regexp.MustCompile(`/\*[\s\S]*?\*/`)

// stripSQLComments removes -- line comments and /* */ block comments.
func stripSQLComments(query string) string {
	cleaned := blockCommentPattern.ReplaceAllString(query, " ")
	var b strings.Builder
	for _, line := range strings.Split(cleaned, "\n") {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func (s *Store) queryCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.QueryTimeout)
}

// validateReadOnly rejects anything but a single SELECT/WITH statement.
func validateReadOnly(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return fmt.Errorf("query is empty")
	}
	if strings.Contains(trimmed, ";") {
		return fmt.Errorf("query must not contain semicolons")
	}

	stripped := strings.TrimSpace(stripSQLComments(trimmed))
	upper := strings.ToUpper(stripped)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return fmt.Errorf("only SELECT/WITH queries are allowed")
	}
	if match := dangerousKeywordPattern.FindString(stripped); match != "" {
		return fmt.Errorf("query contains disallowed keyword: %s", strings.ToUpper(match))
	}
	return nil
}

// ExecuteQuery runs a read-only SQL query and returns at most 1000 rows as
// column maps.
func (s *Store) ExecuteQuery(query string) ([]map[string]interface{}, error) {
	if err := validateReadOnly(query); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()
	rows, err := s.db.QueryContext(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}
	for rows.Next() && len(results) < maxQueryRows {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			s.Logger.Warn().Err(err).Msg("duckdb: scan error (ExecuteQuery)")
			continue
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// GetSchemaDescription returns a human-readable description of the
// queryable tables.
func (s *Store) GetSchemaDescription() string {
	return `Table 'motion_profile': progress (DOUBLE, 0..1), stage (VARCHAR), event_index (INTEGER), ` +
		`solar_array_angle (DOUBLE, degrees), layer_0..layer_4 (DOUBLE, sunshield layer offsets), ` +
		`sunshield_tension (DOUBLE, 0..1), secondary_mirror_extension (DOUBLE, 0..1), ` +
		`wing_left (DOUBLE, degrees), wing_right (DOUBLE, degrees). ` +
		`Table 'milestones': idx (INTEGER), mission_day (INTEGER), mission_time (VARCHAR), label (VARCHAR), ` +
		`description (VARCHAR), stage (VARCHAR), progress (DOUBLE). ` +
		`Table 'profile_runs': samples (INTEGER), events (INTEGER), created_at (TIMESTAMP).`
}

// TableRowCounts returns the row count of each known table.
func (s *Store) TableRowCounts() (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	tables := []string{"motion_profile", "milestones", "profile_runs"}
	counts := make(map[string]int64, len(tables))
	for _, table := range tables {
		var count int64
		// Table names are constants, not user input.
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = count
	}
	return counts, nil
}

// ProfileRange returns stored samples with from <= progress <= to in
// progress order. limit <= 0 means no limit.
func (s *Store) ProfileRange(from, to float64, limit int) ([]model.ProfileSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	query := `SELECT progress, stage, event_index, solar_array_angle,
		layer_0, layer_1, layer_2, layer_3, layer_4,
		sunshield_tension, secondary_mirror_extension, wing_left, wing_right
		FROM motion_profile
		WHERE progress >= ? AND progress <= ?
		ORDER BY progress`
	args := []interface{}{from, to}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ProfileSample
	for rows.Next() {
		var (
			smp   model.ProfileSample
			stage string
			st    = &smp.State
			l     = &st.SunshieldLayerOffsets
		)
		if err := rows.Scan(&smp.Progress, &stage, &smp.EventIndex, &st.SolarArrayAngle,
			&l[0], &l[1], &l[2], &l[3], &l[4],
			&st.SunshieldTension, &st.SecondaryMirrorExtension,
			&st.MirrorWingRotations[0], &st.MirrorWingRotations[1]); err != nil {
			return nil, fmt.Errorf("scan motion_profile: %w", err)
		}
		st.Stage = deploy.Stage(stage)
		st.OverallProgress = smp.Progress
		out = append(out, smp)
	}
	return out, rows.Err()
}

// Milestones returns the stored milestone table in index order.
func (s *Store) Milestones() (deploy.Timeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, mission_day, mission_time, label, description, stage FROM milestones ORDER BY idx`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tl deploy.Timeline
	for rows.Next() {
		var (
			ev    deploy.Event
			stage string
		)
		if err := rows.Scan(&ev.Index, &ev.Day, &ev.Time, &ev.Label, &ev.Description, &stage); err != nil {
			return nil, fmt.Errorf("scan milestones: %w", err)
		}
		ev.Stage = deploy.Stage(stage)
		tl = append(tl, ev)
	}
	return tl, rows.Err()
}
