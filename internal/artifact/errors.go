package artifact

import "errors"

// Sentinel errors for artifact validation. Part of the public API; check
// with errors.Is().
var (
	// ErrInvalidType is returned when the artifact type is not a known type.
	ErrInvalidType = errors.New("invalid artifact type")

	// ErrEmptyTitle is returned when a title normalizes to the empty string.
	ErrEmptyTitle = errors.New("empty artifact title")

	// ErrContentTooSmall is returned when content is below the configured
	// minimum size for artifact creation.
	ErrContentTooSmall = errors.New("artifact content below minimum size")
)

// Validate checks the fields a draft must carry before the coordinator
// assigns identity. minContent is the configured minimum content size.
func (a *Artifact) Validate(minContent int) error {
	if !a.Type.Valid() {
		return ErrInvalidType
	}
	if NormalizeTitle(a.Title) == "" {
		return ErrEmptyTitle
	}
	if len(a.Content) < minContent {
		return ErrContentTooSmall
	}
	return nil
}
