// Package repositories implements durable backends for the credential triple.
//
// Two implementations of [models.CredentialBackend] are provided:
//   - [CredentialRepository] : SQLite, one row per token in the migrated credentials table
//   - [BoltCredentialRepository] : bbolt, one key per token in the credentials bucket
//
// Both replace the whole triple inside a single transaction so a reader never sees a half-written login or refresh.
// The backend in use is chosen by database.driver in the config file.
package repositories
