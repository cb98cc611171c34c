// Package checkpoint persists in-progress exam snapshots on the candidate's
// device so a reload, crash or power loss never loses an attempt.
package checkpoint

import (
	"context"

	"github.com/prasanth-t0205/quiz-compiler/internal/model"
)

// Store keeps at most one snapshot per test id. Save overwrites any prior
// snapshot for the key; Load returns (nil, nil) when none exists; Clear is
// idempotent and is only called after a confirmed submission.
//
// Stores return errors normally; the session controller is responsible for
// swallowing save failures so a broken checkpoint never blocks the exam.
type Store interface {
	Save(ctx context.Context, testID string, snap *model.Snapshot) error
	Load(ctx context.Context, testID string) (*model.Snapshot, error)
	Clear(ctx context.Context, testID string) error
}
