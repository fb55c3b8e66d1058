package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func TestQueueRecordState_Constants(t *testing.T) {
	require.Equal(t, QueueRecordState("ineligible"), StateIneligible)
	require.Equal(t, QueueRecordState("ready"), StateReady)
	require.Equal(t, QueueRecordState("done"), StateDone)
}

func TestQueueRecordState_Rank(t *testing.T) {
	require.Greater(t, StateDone.Rank(), StateReady.Rank())
	require.Greater(t, StateReady.Rank(), StateIneligible.Rank())
	require.Greater(t, StateIneligible.Rank(), QueueRecordState("").Rank())
}

func TestSeedRetryCursor(t *testing.T) {
	tests := []struct {
		name  string
		now   int64
		owner *int64
		want  int64
	}{
		{name: "nil owner sorts first", now: 1000, owner: nil, want: 0},
		{name: "older owner", now: 1000, owner: ptr(400), want: 600},
		{name: "owner in the future clamps to zero", now: 1000, owner: ptr(5000), want: 0},
		{name: "owner equal to now", now: 1000, owner: ptr(1000), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, SeedRetryCursor(tt.now, tt.owner))
		})
	}
}

func TestLaterOwnerTimestamp(t *testing.T) {
	require.Nil(t, LaterOwnerTimestamp(nil, ptr(5)))
	require.Nil(t, LaterOwnerTimestamp(ptr(5), nil))
	require.Equal(t, int64(9), *LaterOwnerTimestamp(ptr(9), ptr(5)))
	require.Equal(t, int64(9), *LaterOwnerTimestamp(ptr(5), ptr(9)))
}

func TestDownloadRecord_Mode(t *testing.T) {
	thumb := &DownloadRecord{ID: 7, IsThumbnail: true, NumRetries: 2, MinRetryTimestamp: 99}
	require.Equal(t, ModeThumbnail, thumb.Mode())
	require.Equal(t, "thumbnail", thumb.Class())
	require.Equal(t, int64(7), thumb.TaskID())
	require.Equal(t, 2, thumb.RetryCount())
	require.Equal(t, int64(99), thumb.NextRetryAt())

	full := &DownloadRecord{}
	require.Equal(t, ModeFullsize, full.Mode())
}

func TestUploadRecord_Mode(t *testing.T) {
	require.Equal(t, ModeFullsize, (&UploadRecord{IsFullsize: true}).Mode())
	require.Equal(t, ModeThumbnail, (&UploadRecord{}).Mode())
}

func TestDownloadRecord_JSONSerialization(t *testing.T) {
	record := &DownloadRecord{
		ID:                       1,
		AttachmentID:             42,
		IsThumbnail:              false,
		CanDownloadFromMediaTier: true,
		MaxOwnerTimestamp:        ptr(1700000000000),
		MinRetryTimestamp:        1234,
		State:                    StateReady,
		EstimatedByteCount:       2048,
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)
	require.Contains(t, string(data), `"state":"ready"`)
	require.Contains(t, string(data), `"max_owner_timestamp":1700000000000`)

	var decoded DownloadRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, *record, decoded)
}

func TestBackupPlan(t *testing.T) {
	tests := []struct {
		name       string
		plan       BackupPlan
		paid       bool
		disabled   bool
		optimizing bool
		wantErr    bool
	}{
		{name: "disabled", plan: BackupPlan{Kind: PlanDisabled}, disabled: true},
		{name: "disabling", plan: BackupPlan{Kind: PlanDisabling}, disabled: true},
		{name: "free", plan: BackupPlan{Kind: PlanFree}},
		{name: "paid", plan: BackupPlan{Kind: PlanPaid}, paid: true},
		{name: "paid optimize", plan: BackupPlan{Kind: PlanPaid, OptimizeLocalStorage: true}, paid: true, optimizing: true},
		{name: "expiring optimize", plan: BackupPlan{Kind: PlanPaidExpiringSoon, OptimizeLocalStorage: true}, paid: true, optimizing: true},
		{name: "tester", plan: BackupPlan{Kind: PlanPaidAsTester}, paid: true},
		{name: "free cannot optimize", plan: BackupPlan{Kind: PlanFree, OptimizeLocalStorage: true}, wantErr: true},
		{name: "unknown kind", plan: BackupPlan{Kind: "gold"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.paid, tt.plan.IsPaidFamily())
			require.Equal(t, tt.disabled, tt.plan.IsDisabledFamily())
			require.Equal(t, tt.optimizing, tt.plan.Optimizing())
		})
	}
}

func TestOwnerType_Priority(t *testing.T) {
	require.Greater(t, OwnerMessage.Priority(), OwnerThreadWallpaper.Priority())
	require.True(t, OwnerMessage.IsBackedUp())
	require.True(t, OwnerThreadWallpaper.IsBackedUp())
	require.False(t, OwnerStory.IsBackedUp())
}

func TestAttachment_EstimatedFullsizeBytes(t *testing.T) {
	require.Equal(t, int64(10), (&Attachment{UnencryptedByteCount: 10}).EstimatedFullsizeBytes())
	require.Equal(t, int64(20), (&Attachment{MediaTier: &MediaTierInfo{UnencryptedByteCount: 20}}).EstimatedFullsizeBytes())
	require.Equal(t, int64(30), (&Attachment{TransitTier: &TransitTierInfo{UnencryptedByteCount: 30}}).EstimatedFullsizeBytes())
	require.Equal(t, int64(0), (&Attachment{}).EstimatedFullsizeBytes())
}
