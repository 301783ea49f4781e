package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tinytelemetry/unfold/internal/deploy"
	"github.com/tinytelemetry/unfold/internal/model"
)

// ReplaceProfile swaps the stored motion profile and milestone table for
// samples and timeline in one transaction.
func (s *Store) ReplaceProfile(samples []model.ProfileSample, timeline deploy.Timeline) error {
	if len(samples) == 0 {
		return errors.New("duckdb: empty profile")
	}

	ctx, cancel := s.queryCtx()
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	for _, table := range []string{"motion_profile", "milestones"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := insertSamplesTx(ctx, tx, samples); err != nil {
		return err
	}
	if err := insertMilestonesTx(ctx, tx, timeline); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO profile_runs (samples, events) VALUES (?, ?)",
		len(samples), len(timeline)); err != nil {
		return fmt.Errorf("record profile run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	s.Logger.Debug().Int("samples", len(samples)).Int("events", len(timeline)).Msg("duckdb: profile replaced")
	return nil
}

func insertSamplesTx(ctx context.Context, tx *sql.Tx, samples []model.ProfileSample) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO motion_profile (
		progress, stage, event_index, solar_array_angle,
		layer_0, layer_1, layer_2, layer_3, layer_4,
		sunshield_tension, secondary_mirror_extension, wing_left, wing_right
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, smp := range samples {
		st := smp.State
		l := st.SunshieldLayerOffsets
		if _, err := stmt.ExecContext(ctx,
			smp.Progress, string(st.Stage), smp.EventIndex, st.SolarArrayAngle,
			l[0], l[1], l[2], l[3], l[4],
			st.SunshieldTension, st.SecondaryMirrorExtension,
			st.MirrorWingRotations[0], st.MirrorWingRotations[1],
		); err != nil {
			return fmt.Errorf("sample insert at %g: %w", smp.Progress, err)
		}
	}
	return nil
}

func insertMilestonesTx(ctx context.Context, tx *sql.Tx, timeline deploy.Timeline) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO milestones (idx, mission_day, mission_time, label, description, stage, progress) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ev := range timeline {
		if _, err := stmt.ExecContext(ctx,
			ev.Index, ev.Day, ev.Time, ev.Label, ev.Description, string(ev.Stage),
			deploy.MilestoneProgress(ev.Index, len(timeline)),
		); err != nil {
			return fmt.Errorf("milestone insert %d: %w", ev.Index, err)
		}
	}
	return nil
}
