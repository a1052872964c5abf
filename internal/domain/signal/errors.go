package signal

import (
	"fmt"

	"github.com/okian/welltest/internal/domain/model"
)

// ErrInvalidWindow is returned for a smoothing window that is even, longer
// than the input, or too short for the polynomial order. It matches
// model.ErrConfiguration under errors.Is.
var ErrInvalidWindow = fmt.Errorf("%w: invalid smoothing window", model.ErrConfiguration)
