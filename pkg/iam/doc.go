// Package iam (Identity and Access Management) provides authentication,
// invite-based account provisioning, and administrator-gated user management
// for a multi-company deployment.
//
// # Overview
//
// The iam package is organized into sub-packages that work together:
//
//   - iam/identity    — Credential-store accounts, password policy, bcrypt hashing
//   - iam/auth        — Password + OAuth2 sign-in, JWT tokens, sessions, middleware
//   - iam/user        — User records, session bootstrap, role management
//   - iam/company     — Company onboarding, profile, logo storage
//   - iam/invitation  — Single-use invite tokens and the redemption flow
//
// # Architecture
//
// The package follows a layered, domain-driven architecture:
//
//	HTTP Handler  →  Service Layer  →  Repository Interface  →  Infrastructure (Postgres/Redis/S3)
//
// Each sub-domain exposes its own error registry (e.g., "AUTH", "USER",
// "INVITATION"), domain entities with rich methods, DTOs for API responses,
// and repository interfaces.
//
// # Provisioning Paths
//
// Accounts come into existence one of two ways, and both converge on the same
// session bootstrap:
//
//  1. Self-service — Sign up with email/password (or Google/Microsoft OAuth).
//     The first sign-in creates a minimal user record with the Administrator
//     role and the pending company sentinel; the onboarding flow then creates
//     the company.
//
//  2. Invitation — An administrator issues a single-use, 24-hour invite bound
//     to an email, role and company. Redeeming it sets a password and creates
//     a fully provisioned member in one step, skipping both email
//     verification and onboarding.
//
// # Authorization Model
//
// Two roles exist: User and Administrator. JWT claims carry the role for
// routing only; every administrator-gated service operation re-resolves the
// requester's role and company from the store before acting. Cross-company
// access is never granted: a target outside the requester's company is
// treated as unauthorized.
//
// # Invite Tokens
//
// Invite tokens are 32 random bytes, hex encoded, used verbatim as the
// record's primary key. The token is a bearer credential: it is transmitted
// only in the redemption link and never written to logs in full. Redemption
// consumes the row with a conditional delete, so exactly one of any number of
// concurrent redeemers wins.
package iam
