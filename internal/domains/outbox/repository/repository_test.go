package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// The lease statements carry the ordering guarantee: leases are serialized by
// an advisory lock, a partition with a live foreign lease is skipped whole,
// and entries are claimed oldest first without blocking on row locks.
func TestLeaseQueryContract(t *testing.T) {
	t.Run("lease transactions serialize on one advisory lock", func(t *testing.T) {
		assert.Contains(t, leaseLockQuery, "pg_advisory_xact_lock")
		assert.Contains(t, leaseLockQuery, "'outbox:lease'")
	})

	t.Run("partitions with a live foreign lease are excluded entirely", func(t *testing.T) {
		assert.Contains(t, leaseQuery, "partition_key NOT IN")
		assert.Contains(t, leaseQuery, "lease_owner IS NOT NULL AND lease_owner != $1 AND leased_until >= $3")
	})

	t.Run("entries are claimed oldest first without blocking", func(t *testing.T) {
		assert.Contains(t, leaseQuery, "ORDER BY created_at")
		assert.Contains(t, leaseQuery, "FOR UPDATE SKIP LOCKED")
	})

	t.Run("only pending or expired leases are claimable", func(t *testing.T) {
		assert.True(t, strings.Contains(leaseQuery, "status = 'pending'"))
		assert.Contains(t, leaseQuery, "leased_until IS NULL OR leased_until < $3")
	})
}
