// Package review defines the review workflow states and the policy that
// decides which status changes are allowed.
package review

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Additional-Code/creditdesk/internal/entity"
)

// ErrUnknownStatus is returned for values outside the review enumeration.
var ErrUnknownStatus = errors.New("unknown review status")

// ParseStatus accepts any casing and surrounding whitespace and returns the
// canonical status.
func ParseStatus(raw string) (entity.ReviewStatus, error) {
	candidate := entity.ReviewStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, s := range entity.ReviewStatuses {
		if s == candidate {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

// Policy decides whether an order may move from one review status to another.
type Policy interface {
	Allow(from, to entity.ReviewStatus) error
}

// ErrTransitionForbidden is returned by restrictive policies.
var ErrTransitionForbidden = errors.New("review status transition not allowed")

// Permissive lets accountants move an order between any two statuses so
// mistakes can be corrected.
type Permissive struct{}

// Allow implements Policy.
func (Permissive) Allow(entity.ReviewStatus, entity.ReviewStatus) error { return nil }

// Terminal forbids leaving any of the listed statuses.
type Terminal struct {
	states map[entity.ReviewStatus]struct{}
}

// NewTerminal builds a Terminal policy from raw status names.
func NewTerminal(raw []string) (Terminal, error) {
	states := make(map[entity.ReviewStatus]struct{}, len(raw))
	for _, r := range raw {
		s, err := ParseStatus(r)
		if err != nil {
			return Terminal{}, err
		}
		states[s] = struct{}{}
	}
	return Terminal{states: states}, nil
}

// Allow implements Policy.
func (t Terminal) Allow(from, to entity.ReviewStatus) error {
	if from == to {
		return nil
	}
	if _, ok := t.states[from]; ok {
		return fmt.Errorf("%w: %s is final", ErrTransitionForbidden, from)
	}
	return nil
}

// PolicyFromStates returns Permissive when no terminal states are configured.
func PolicyFromStates(raw []string) (Policy, error) {
	if len(raw) == 0 {
		return Permissive{}, nil
	}
	return NewTerminal(raw)
}
