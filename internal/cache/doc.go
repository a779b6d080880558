// Package cache holds the local tiers of kahu's state: a leveldb store for
// wrapped keypairs and day-stamped rate counters, and an LRU session of
// unwrapped identities.
package cache
