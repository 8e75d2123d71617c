/*
Package session implements thread access and checkpoint orchestration.

It serializes reads and writes of a thread's checkpoint within the process and,
when a DistributedLocker is configured, across replicas sharing a store.
*/
package session
