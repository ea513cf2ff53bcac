// Package credential turns plaintext passwords into stored digests and checks
// plaintexts against them.
//
// New digests are salted (Argon2id by default, bcrypt optionally). Digests
// written by older deployments, unsalted hex SHA-256, are still accepted by
// Verifier so existing accounts keep working.
//
// Nothing in this package stores passwords or logs them.
package credential
