package org

import (
	"crypto/rand"
	"encoding/hex"
)

// Organization is the top-level entity.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// Department belongs to an organization.
type Department struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId"`
	Name           string `json:"name"`
}

// Team belongs to a department.
type Team struct {
	ID           string `json:"id"`
	DepartmentID string `json:"departmentId"`
	Name         string `json:"name"`
}

// Member belongs to a team.
type Member struct {
	ID     string `json:"id"`
	TeamID string `json:"teamId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role,omitempty"`
}

// EntityID accessors for the optimistic engine.

// OrganizationID returns o's id.
func OrganizationID(o Organization) string { return o.ID }

// DepartmentID returns d's id.
func DepartmentID(d Department) string { return d.ID }

// TeamID returns t's id.
func TeamID(t Team) string { return t.ID }

// MemberID returns m's id.
func MemberID(m Member) string { return m.ID }

// TempIDPrefix marks client-generated ids awaiting server assignment.
const TempIDPrefix = "tmp-"

// TempID generates a client-side temporary entity id. The server
// replaces it with the authoritative id when the create is confirmed.
func TempID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms.
		panic("org: rand.Read: " + err.Error())
	}
	return TempIDPrefix + hex.EncodeToString(b[:])
}

// IsTempID reports whether id is client-generated.
func IsTempID(id string) bool {
	return len(id) > len(TempIDPrefix) && id[:len(TempIDPrefix)] == TempIDPrefix
}
