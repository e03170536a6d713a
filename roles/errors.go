package roles

import (
	"errors"
	"fmt"
)

//Failure is implemented by every recoverable, operator-visible error the
//engine can return. Failures carry a human-readable reason and are meant to
//be surfaced verbatim to whoever issued the command; they are never logged
//as unexpected errors. Anything else (store or discord unreachable on a
//primary step) is fatal to the single request that hit it.
type Failure interface {
	error
	failure()
}

//IsFailure reports whether err is (or wraps) an operator-visible failure.
func IsFailure(err error) bool {
	var f Failure
	return errors.As(err, &f)
}

//DuplicateNameError is returned when creating or renaming a group to a name
//already taken within the same guild.
type DuplicateNameError struct {
	Name string
}

func (e DuplicateNameError) Error() string {
	return fmt.Sprintf("a role group named '%v' already exists on this server", e.Name)
}
func (e DuplicateNameError) failure() {}

//GroupNotFoundError is returned when no group matches a requested name or ID,
//including when fuzzy resolution finds nothing above the confidence cutoff.
type GroupNotFoundError struct {
	Name string
}

func (e GroupNotFoundError) Error() string {
	return fmt.Sprintf("can't find a role group '%v' on this server", e.Name)
}
func (e GroupNotFoundError) failure() {}

//SameGroupError is returned when a group deletion names itself as the
//transfer target for its roles.
type SameGroupError struct{}

func (e SameGroupError) Error() string {
	return "transfer group and group to delete are the same"
}
func (e SameGroupError) failure() {}

//NotEligibleError is returned when a role cannot be placed under bot
//management. Reason explains why.
type NotEligibleError struct {
	RoleName string
	Reason   string
}

func (e NotEligibleError) Error() string {
	return fmt.Sprintf("role '%v' can't be managed: %v", e.RoleName, e.Reason)
}
func (e NotEligibleError) failure() {}

//InvalidEmojiError is returned when a supplied emoji fails validation.
type InvalidEmojiError struct {
	Emoji string
}

func (e InvalidEmojiError) Error() string {
	return fmt.Sprintf("'%v' is not a valid emoji", e.Emoji)
}
func (e InvalidEmojiError) failure() {}

//GroupFullError is returned when tracking a role into a non-default group
//that already holds the maximum number of roles.
type GroupFullError struct {
	Group string
	Max   int
}

func (e GroupFullError) Error() string {
	return fmt.Sprintf("group '%v' is full: one group can't hold more than %v roles", e.Group, e.Max)
}
func (e GroupFullError) failure() {}

//NotManagedError is returned when untracking or editing a role that has no
//registry record.
type NotManagedError struct {
	RoleID string
}

func (e NotManagedError) Error() string {
	return fmt.Sprintf("role %v is not managed by the bot", e.RoleID)
}
func (e NotManagedError) failure() {}

//RoleNotManagedError is returned by the assignment engine when the requested
//role has no registry record.
type RoleNotManagedError struct {
	RoleID string
}

func (e RoleNotManagedError) Error() string {
	return fmt.Sprintf("role %v is not managed by the bot and can't be assigned through it", e.RoleID)
}
func (e RoleNotManagedError) failure() {}

//ForbiddenError is returned when the requester lacks the authority for a
//grant or revoke.
type ForbiddenError struct {
	Reason string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("you don't have permission to do that: %v", e.Reason)
}
func (e ForbiddenError) failure() {}

//NoAssignableRolesError is returned when rendering a selector for a group
//with no assignable roles. Callers decide whether to surface it or treat it
//as a no-op.
type NoAssignableRolesError struct {
	Group string
}

func (e NoAssignableRolesError) Error() string {
	return fmt.Sprintf("no assignable roles are tracked in group '%v'", e.Group)
}
func (e NoAssignableRolesError) failure() {}

//TooManyOptionsError is returned when a group holds more assignable roles
//than a single select component can display.
type TooManyOptionsError struct {
	Count int
	Max   int
}

func (e TooManyOptionsError) Error() string {
	return fmt.Sprintf("a selector can only display up to %v roles but the group has %v; try a smaller group", e.Max, e.Count)
}
func (e TooManyOptionsError) failure() {}
