/*
Package redis provides a Redis-backed checkpointer and distributed locker.

Checkpoints are stored as JSON under "<prefix><threadID>" with an optional TTL.
A sorted set "<prefix>index" tracks thread IDs scored by expiry so List can prune
expired threads lazily.
*/
package redis
