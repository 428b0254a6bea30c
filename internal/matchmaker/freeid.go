package matchmaker

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrNoFreeID is returned by FindFreeID when every draw hit an id in use.
var ErrNoFreeID = errors.New("no free participant id")

// IDSource draws random 64-bit values. *math/rand/v2.Rand satisfies it.
type IDSource interface {
	Int64() int64
}

// ExistsFunc reports whether id is already taken.
type ExistsFunc func(ctx context.Context, id ParticipantID) (bool, error)

// FindFreeID draws random ids from src until exists reports one unused.
//
// Ids live in the positive 63-bit range, which dwarfs any population of
// concurrent participants, so a collision is rare and a handful of draws is
// plenty. The search is still bounded: after attempts draws it gives up with
// ErrNoFreeID rather than loop forever on a broken predicate.
func FindFreeID(ctx context.Context, src IDSource, exists ExistsFunc, attempts int) (ParticipantID, error) {
	if attempts < 1 {
		return 0, fmt.Errorf("find free id: attempts must be positive, got %d", attempts)
	}
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		id := ParticipantID(src.Int64() & math.MaxInt64)
		if id == 0 {
			continue
		}
		taken, err := exists(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("find free id: check %d: %w", id, err)
		}
		if !taken {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w after %d attempts", ErrNoFreeID, attempts)
}
