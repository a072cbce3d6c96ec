package filestore

import (
	"context"
	"fmt"

	"shokofin/internal/fileevents"
	"shokofin/internal/services"
)

// Apply records a decoded notification. Deleting an unknown file is not an error.
func (s *Store) Apply(ctx context.Context, env *fileevents.Envelope) error {
	if env == nil || env.File == nil {
		return services.Wrap(services.ErrValidation, "filestore", "apply", "empty notification", nil)
	}
	switch env.Kind {
	case fileevents.KindMatched:
		return s.Upsert(ctx, env.Kind, env.File)
	case fileevents.KindDeleted:
		_, err := s.Delete(ctx, env.File.FileID)
		return err
	case fileevents.KindMoved, fileevents.KindRenamed:
		if env.Moved == nil {
			return s.Upsert(ctx, env.Kind, env.File)
		}
		return s.Move(ctx, env.Kind, env.Moved)
	default:
		return services.Wrap(services.ErrValidation, "filestore", "apply", fmt.Sprintf("unknown event kind %q", env.Kind), nil)
	}
}
