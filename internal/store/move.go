package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/yanizio/larder/internal/metrics"
	"github.com/yanizio/larder/internal/record"
)

// MoveStage is how far a move got.
//
// The move is three ordered calls against a non-transactional API: fetch
// from the source, create in the target, delete from the source.  A failure
// at the last step leaves the record in both collections and nothing
// reconciles it.
type MoveStage int

const (
	MoveFetchFailed  MoveStage = iota // nothing changed
	MoveCreateFailed                  // nothing changed
	MoveDuplicated                    // created in target, still in source
	MoveCompleted
)

func (s MoveStage) String() string {
	switch s {
	case MoveFetchFailed:
		return "fetch_failed"
	case MoveCreateFailed:
		return "create_failed"
	case MoveDuplicated:
		return "duplicated"
	case MoveCompleted:
		return "completed"
	}
	return fmt.Sprintf("MoveStage(%d)", int(s))
}

// MoveError reports a move that stopped before MoveCompleted.  TargetID is
// set when Stage is MoveDuplicated.
type MoveError struct {
	Stage    MoveStage
	SourceID int
	TargetID int
	Err      error
}

func (e *MoveError) Error() string {
	if e.Stage == MoveDuplicated {
		return fmt.Sprintf("move %d: created as %d but source delete failed: %v", e.SourceID, e.TargetID, e.Err)
	}
	return fmt.Sprintf("move %d: %s: %v", e.SourceID, e.Stage, e.Err)
}

func (e *MoveError) Unwrap() error { return e.Err }

// Move copies the shared fields of record id from src into dst, then
// deletes it from src.  It returns the id assigned in dst.  On failure the
// error is a *MoveError naming the stage reached.
func Move(ctx context.Context, id int, src, dst *Repository) (int, error) {
	newID, err := move(ctx, id, src, dst)

	stage := MoveCompleted
	var me *MoveError
	if errors.As(err, &me) {
		stage = me.Stage
	}
	metrics.MoveOutcomes.WithLabelValues(stage.String()).Inc()
	return newID, err
}

func move(ctx context.Context, id int, src, dst *Repository) (int, error) {
	row, err := src.fetch(ctx, id)
	if err != nil {
		return 0, &MoveError{Stage: MoveFetchFailed, SourceID: id, Err: err}
	}

	// Columns the source never stored go over as null, not as the source
	// sentinel, so the target applies its own default on read.
	rec := src.desc.Decode(row)
	payload := make(map[string]any, len(record.Shared))
	for _, f := range record.Shared {
		if !record.Present(row[string(f)]) {
			payload[string(f)] = nil
			continue
		}
		v, _ := rec.Value(f)
		payload[string(f)] = v
	}

	newID, err := dst.api.Create(ctx, dst.desc.Table, payload)
	if err != nil {
		return 0, &MoveError{
			Stage:    MoveCreateFailed,
			SourceID: id,
			Err:      fmt.Errorf("create %s: %w: %w", dst.desc.Singular, ErrUpstreamRejected, err),
		}
	}

	if err := src.Delete(ctx, id); err != nil {
		src.log.Warnw("move left a duplicate",
			"source_id", id,
			"target", dst.desc.Name,
			"target_id", newID,
			"err", err,
		)
		return newID, &MoveError{Stage: MoveDuplicated, SourceID: id, TargetID: newID, Err: err}
	}

	src.log.Infow("record moved", "source_id", id, "target", dst.desc.Name, "target_id", newID)
	return newID, nil
}
