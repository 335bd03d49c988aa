package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/finsight-dev/finsight/internal/model"
)

// ErrInvalidSequence is returned for stage lists that cannot drive a review.
var ErrInvalidSequence = errors.New("invalid stage sequence")

// Sequence is the ordered list of reviewer roles. Approving from the last
// role finalizes the account.
type Sequence struct {
	roles []model.Role
}

// NewSequence validates roles. A trailing "Finalized" is accepted as the
// terminating sentinel and dropped; anywhere else it is an error.
func NewSequence(roles []string) (Sequence, error) {
	if n := len(roles); n > 0 && strings.EqualFold(strings.TrimSpace(roles[n-1]), model.FinalizedStage) {
		roles = roles[:n-1]
	}
	if len(roles) == 0 {
		return Sequence{}, fmt.Errorf("%w: no stages", ErrInvalidSequence)
	}

	seen := make(map[model.Role]bool, len(roles))
	out := make([]model.Role, 0, len(roles))
	for i, r := range roles {
		r = strings.TrimSpace(r)
		switch {
		case r == "":
			return Sequence{}, fmt.Errorf("%w: stage %d is blank", ErrInvalidSequence, i+1)
		case strings.EqualFold(r, model.FinalizedStage):
			return Sequence{}, fmt.Errorf("%w: %q must be the last entry", ErrInvalidSequence, model.FinalizedStage)
		case seen[model.Role(r)]:
			return Sequence{}, fmt.Errorf("%w: stage %q listed twice", ErrInvalidSequence, r)
		}
		seen[model.Role(r)] = true
		out = append(out, model.Role(r))
	}
	return Sequence{roles: out}, nil
}

// MustSequence is NewSequence that panics on error.
func MustSequence(roles ...string) Sequence {
	s, err := NewSequence(roles)
	if err != nil {
		panic(err)
	}
	return s
}

// First is the stage every new or rejected account starts at.
func (s Sequence) First() model.Role {
	return s.roles[0]
}

// Next returns the stage after r. finalized is true when r is the last stage.
// ok is false when r is not part of the sequence.
func (s Sequence) Next(r model.Role) (next model.Role, finalized, ok bool) {
	for i, role := range s.roles {
		if role != r {
			continue
		}
		if i == len(s.roles)-1 {
			return "", true, true
		}
		return s.roles[i+1], false, true
	}
	return "", false, false
}

// Contains reports whether r is a stage of the sequence.
func (s Sequence) Contains(r model.Role) bool {
	_, _, ok := s.Next(r)
	return ok
}

// Roles returns a copy of the stages in order.
func (s Sequence) Roles() []model.Role {
	return append([]model.Role(nil), s.roles...)
}

func (s Sequence) String() string {
	parts := make([]string, 0, len(s.roles)+1)
	for _, r := range s.roles {
		parts = append(parts, string(r))
	}
	parts = append(parts, model.FinalizedStage)
	return strings.Join(parts, " -> ")
}
