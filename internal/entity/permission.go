package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Permission is the access level a team is granted on a repository
type Permission string

const (
	// PermissionNone means that the team grant must be revoked
	PermissionNone  Permission = "NONE"
	PermissionRead  Permission = "READ"
	PermissionWrite Permission = "WRITE"
	PermissionAdmin Permission = "ADMIN"
)

var ErrInvalidPermission = errors.New("invalid permission")

// ParsePermission is case insensitive
func ParsePermission(value string) (Permission, error) {
	switch Permission(strings.ToUpper(strings.TrimSpace(value))) {
	case PermissionNone:
		return PermissionNone, nil
	case PermissionRead:
		return PermissionRead, nil
	case PermissionWrite:
		return PermissionWrite, nil
	case PermissionAdmin:
		return PermissionAdmin, nil
	}
	return "", fmt.Errorf("%w %q: must be one of NONE, READ, WRITE, ADMIN", ErrInvalidPermission, value)
}

func (p Permission) String() string {
	return string(p)
}

/*
 * GithubPermission returns the permission name used by the Github REST API
 * - READ -> pull
 * - WRITE -> push
 * - ADMIN -> admin
 * NONE has no equivalent: the grant must be removed instead.
 */
func (p Permission) GithubPermission() (string, error) {
	switch p {
	case PermissionRead:
		return "pull", nil
	case PermissionWrite:
		return "push", nil
	case PermissionAdmin:
		return "admin", nil
	case PermissionNone:
		return "", fmt.Errorf("%w: NONE cannot be granted, the team access must be removed", ErrInvalidPermission)
	}
	return "", fmt.Errorf("%w %q", ErrInvalidPermission, string(p))
}

// TeamRole is the role of a user inside a Github team
type TeamRole string

const (
	TeamRoleMember     TeamRole = "member"
	TeamRoleMaintainer TeamRole = "maintainer"
)
