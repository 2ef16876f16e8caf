package postgres

import "testing"

func TestPoolForWorkers(t *testing.T) {
	tests := []struct {
		workers    int
		open, idle int
	}{
		{0, 2, 1},
		{1, 2, 1},
		{8, 16, 8},
	}
	for _, tt := range tests {
		p := PoolForWorkers(tt.workers)
		if p.MaxOpen != tt.open || p.MaxIdle != tt.idle {
			t.Errorf("PoolForWorkers(%d) = %+v, want open %d idle %d", tt.workers, p, tt.open, tt.idle)
		}
		if p.MaxLifetime <= 0 {
			t.Errorf("PoolForWorkers(%d): expected a connection lifetime", tt.workers)
		}
	}
}

func TestConnectRejectsBadDSN(t *testing.T) {
	if _, err := Connect("postgres://%zz", DefaultPool()); err == nil {
		t.Error("expected an error for a malformed URL")
	}
}
