package models

import (
	"strings"
	"testing"
	"time"

	"Lifeline/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAlertRecord(t *testing.T) {
	t.Run("valid alert", func(t *testing.T) {
		a, err := NewAlertRecord(7, CategoryMedical, "chest pain", nil)
		require.NoError(t, err)
		assert.NotEmpty(t, a.ID)
		assert.Equal(t, uint(7), a.UserID)
		assert.Equal(t, StatusPending, a.Status)
		assert.Nil(t, a.DispatchedAt)
	})

	t.Run("unique ids", func(t *testing.T) {
		a, err := NewAlertRecord(1, CategoryFire, "", nil)
		require.NoError(t, err)
		b, err := NewAlertRecord(1, CategoryFire, "", nil)
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		_, err := NewAlertRecord(1, AlertCategory("flood"), "", nil)
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(err))
	})

	t.Run("message length cap", func(t *testing.T) {
		ok := strings.Repeat("x", MaxMessageLen)
		_, err := NewAlertRecord(1, CategoryGeneral, ok, nil)
		assert.NoError(t, err)

		_, err = NewAlertRecord(1, CategoryGeneral, ok+"x", nil)
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(err))
	})

	t.Run("location validated", func(t *testing.T) {
		loc := &Location{Latitude: 91, Longitude: 0}
		_, err := NewAlertRecord(1, CategoryPolice, "", loc)
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(err))
	})
}

func TestNewLocation(t *testing.T) {
	cases := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{"origin", 0, 0, false},
		{"boundary lat", 90, 0, false},
		{"boundary lng", 0, -180, false},
		{"lat too high", 90.01, 0, true},
		{"lat too low", -90.01, 0, true},
		{"lng too high", 0, 180.5, true},
		{"lng too low", 0, -180.5, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLocation(tc.lat, tc.lng, "somewhere")
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAlertStatusTransitions(t *testing.T) {
	newAlert := func(t *testing.T) *AlertRecord {
		a, err := NewAlertRecord(1, CategoryMedical, "help", nil)
		require.NoError(t, err)
		return a
	}

	t.Run("forward path", func(t *testing.T) {
		a := newAlert(t)
		require.NoError(t, a.SetStatus(StatusAcknowledged))
		require.NoError(t, a.SetStatus(StatusResolved))
		assert.Equal(t, StatusResolved, a.Status)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		a := newAlert(t)
		require.NoError(t, a.SetStatus(StatusAcknowledged))
		assert.NoError(t, a.SetStatus(StatusAcknowledged))
		assert.Equal(t, StatusAcknowledged, a.Status)
	})

	t.Run("skipping acknowledged is allowed", func(t *testing.T) {
		a := newAlert(t)
		assert.NoError(t, a.SetStatus(StatusResolved))
	})

	t.Run("backward rejected", func(t *testing.T) {
		a := newAlert(t)
		require.NoError(t, a.SetStatus(StatusResolved))
		err := a.SetStatus(StatusPending)
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidTransition, errors.GetCode(err))
		assert.Equal(t, StatusResolved, a.Status)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		a := newAlert(t)
		err := a.SetStatus(AlertStatus("cancelled"))
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(err))
	})
}

func TestUpdateMessage(t *testing.T) {
	newAlert := func(t *testing.T) *AlertRecord {
		a, err := NewAlertRecord(1, CategoryGeneral, "initial", nil)
		require.NoError(t, err)
		return a
	}

	t.Run("owner can edit before dispatch", func(t *testing.T) {
		a := newAlert(t)
		require.NoError(t, a.UpdateMessage(1, "updated"))
		assert.Equal(t, "updated", a.Message)
	})

	t.Run("non-owner rejected", func(t *testing.T) {
		a := newAlert(t)
		err := a.UpdateMessage(2, "hijack")
		require.Error(t, err)
		assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))
		assert.Equal(t, "initial", a.Message)
	})

	t.Run("frozen after dispatch", func(t *testing.T) {
		a := newAlert(t)
		a.MarkDispatched(time.Now())
		err := a.UpdateMessage(1, "too late")
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidTransition, errors.GetCode(err))
		assert.Equal(t, "initial", a.Message)
	})

	t.Run("length cap enforced", func(t *testing.T) {
		a := newAlert(t)
		err := a.UpdateMessage(1, strings.Repeat("y", MaxMessageLen+1))
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(err))
	})
}

func TestMarkDispatched(t *testing.T) {
	a, err := NewAlertRecord(1, CategoryFire, "", nil)
	require.NoError(t, err)

	first := time.Now()
	a.MarkDispatched(first)
	require.NotNil(t, a.DispatchedAt)

	// 重复派发不改写首次时间
	a.MarkDispatched(first.Add(time.Hour))
	assert.Equal(t, first, *a.DispatchedAt)
}
