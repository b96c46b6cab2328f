// Package org defines the organizational entity model the orgkit client
// manages: organizations, departments, teams, and members.
//
// Entities created optimistically carry a client-generated temporary id
// (see TempID) until the server's authoritative response assigns the
// real one.
package org
