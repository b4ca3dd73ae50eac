package logstore

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"Lifeline/internal/dispatch"
	"Lifeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryFor(t *testing.T, userID uint, category models.AlertCategory) LogEntry {
	t.Helper()
	alert, err := models.NewAlertRecord(userID, category, "test", nil)
	require.NoError(t, err)
	return Snapshot(alert, []dispatch.ChannelOutcome{
		{Kind: dispatch.KindPush, Success: true, Detail: "ok"},
	})
}

func TestAppendAndReadAll(t *testing.T) {
	s := NewStore(10)

	first := entryFor(t, 1, models.CategoryMedical)
	second := entryFor(t, 1, models.CategoryFire)
	assert.True(t, s.Append(first))
	assert.True(t, s.Append(second))

	got := s.ReadAll()
	require.Len(t, got, 2)
	// 最新在前
	assert.Equal(t, second.AlertID, got[0].AlertID)
	assert.Equal(t, first.AlertID, got[1].AlertID)
}

func TestCapacityEviction(t *testing.T) {
	s := NewStore(0) // 取默认容量

	var oldest, newest string
	for i := 0; i < DefaultCapacity+1; i++ {
		e := entryFor(t, 1, models.CategoryGeneral)
		if i == 0 {
			oldest = e.AlertID
		}
		newest = e.AlertID
		s.Append(e)
	}

	assert.Equal(t, DefaultCapacity, s.Len())
	got := s.ReadAll()
	assert.Equal(t, newest, got[0].AlertID)
	for _, e := range got {
		assert.NotEqual(t, oldest, e.AlertID)
	}
}

func TestReadByOriginator(t *testing.T) {
	s := NewStore(10)
	s.Append(entryFor(t, 1, models.CategoryMedical))
	s.Append(entryFor(t, 2, models.CategoryFire))
	s.Append(entryFor(t, 1, models.CategoryPolice))

	mine := s.ReadByOriginator(1)
	require.Len(t, mine, 2)
	for _, e := range mine {
		assert.Equal(t, uint(1), e.OriginatorID)
	}
	// 最新在前的顺序在过滤后保持
	assert.Equal(t, models.CategoryPolice, mine[0].Category)

	assert.Empty(t, s.ReadByOriginator(99))
}

func TestRemove(t *testing.T) {
	s := NewStore(10)
	e := entryFor(t, 1, models.CategoryMedical)
	s.Append(e)

	assert.True(t, s.Remove(e.AlertID))
	assert.Equal(t, 0, s.Len())

	// 不存在时为无操作
	assert.False(t, s.Remove(e.AlertID))
	assert.False(t, s.Remove("no-such-alert"))
}

func TestClear(t *testing.T) {
	s := NewStore(10)
	s.Append(entryFor(t, 1, models.CategoryMedical))
	s.Append(entryFor(t, 2, models.CategoryFire))

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.ReadAll())
}

func TestStats(t *testing.T) {
	s := NewStore(10)
	s.Append(entryFor(t, 1, models.CategoryMedical))
	s.Append(entryFor(t, 1, models.CategoryMedical))
	s.Append(entryFor(t, 2, models.CategoryFire))

	all := s.Stats(nil)
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, 2, all.ByCategory[models.CategoryMedical])
	assert.Equal(t, 1, all.ByCategory[models.CategoryFire])
	assert.Equal(t, 3, all.ByStatus[models.StatusPending])

	uid := uint(1)
	mine := s.Stats(&uid)
	assert.Equal(t, 2, mine.Total)
	assert.Equal(t, 2, mine.ByCategory[models.CategoryMedical])
	assert.Zero(t, mine.ByCategory[models.CategoryFire])
}

func TestExportOrdering(t *testing.T) {
	s := NewStore(10)
	var ids []string
	for i := 0; i < 3; i++ {
		e := entryFor(t, 1, models.CategoryGeneral)
		ids = append(ids, e.AlertID)
		s.Append(e)
	}

	raw, err := s.Export()
	require.NoError(t, err)

	var decoded []LogEntry
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 3)
	// 导出顺序与 ReadAll 一致：最新在前
	assert.Equal(t, ids[2], decoded[0].AlertID)
	assert.Equal(t, ids[0], decoded[2].AlertID)
}

func TestSnapshotFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logstore.jsonl")
	s := NewStore(10).WithSnapshotFile(path)

	assert.True(t, s.Append(entryFor(t, 1, models.CategoryMedical)))
	assert.True(t, s.Append(entryFor(t, 1, models.CategoryFire)))

	// 落盘失败不得中断派发路径
	bad := NewStore(10).WithSnapshotFile(filepath.Join(t.TempDir(), "missing", "dir", "x.jsonl"))
	assert.False(t, bad.Append(entryFor(t, 1, models.CategoryMedical)))
	assert.Equal(t, 1, bad.Len())
}

func TestConcurrentAppend(t *testing.T) {
	s := NewStore(50)
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Append(LogEntry{
				AlertID:      fmt.Sprintf("alert-%d", i),
				OriginatorID: uint(i%4 + 1),
				Category:     models.CategoryGeneral,
				FinalStatus:  models.StatusPending,
			})
		}(i)
	}
	wg.Wait()

	// 并发追加不突破容量上限
	assert.Equal(t, 50, s.Len())
}
