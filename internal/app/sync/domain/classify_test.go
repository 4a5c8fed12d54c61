package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	const staleAfter = 24 * time.Hour
	fresh := time.Hour

	tests := []struct {
		name        string
		local       string
		remote      string
		snapshot    string
		age         time.Duration
		wantClass   Classification
		wantPair    DiffPair
		wantEmitted bool
	}{
		{
			name:        "no snapshot",
			local:       "L",
			remote:      "R",
			snapshot:    "",
			age:         fresh,
			wantClass:   ClassSnapshotStale,
			wantPair:    DiffLocalVsRemote,
			wantEmitted: true,
		},
		{
			name:        "snapshot older than threshold",
			local:       "S",
			remote:      "S",
			snapshot:    "S",
			age:         48 * time.Hour,
			wantClass:   ClassSnapshotStale,
			wantPair:    DiffLocalVsRemote,
			wantEmitted: true,
		},
		{
			name:        "all matched emits nothing",
			local:       "S",
			remote:      "S",
			snapshot:    "S",
			age:         fresh,
			wantEmitted: false,
		},
		{
			name:        "local changed only",
			local:       "L",
			remote:      "S",
			snapshot:    "S",
			age:         fresh,
			wantClass:   ClassInternalOnly,
			wantPair:    DiffLocalVsSnapshot,
			wantEmitted: true,
		},
		{
			name:        "remote changed only",
			local:       "S",
			remote:      "R",
			snapshot:    "S",
			age:         fresh,
			wantClass:   ClassExternalOnly,
			wantPair:    DiffRemoteVsSnapshot,
			wantEmitted: true,
		},
		{
			name:        "both changed conflicting",
			local:       "L",
			remote:      "R",
			snapshot:    "S",
			age:         fresh,
			wantClass:   ClassBothChanged,
			wantPair:    DiffLocalVsRemote,
			wantEmitted: true,
		},
		{
			name:        "both changed but converged emits nothing",
			local:       "X",
			remote:      "X",
			snapshot:    "S",
			age:         fresh,
			wantEmitted: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, pair, emitted := Classify(tt.local, tt.remote, tt.snapshot, tt.age, staleAfter)
			assert.Equal(t, tt.wantEmitted, emitted)
			if tt.wantEmitted {
				assert.Equal(t, tt.wantClass, class)
				assert.Equal(t, tt.wantPair, pair)
			}
		})
	}
}
