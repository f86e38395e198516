package services

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/obotesoftech/prisonreturns/config"
	"github.com/obotesoftech/prisonreturns/internal/mq"
	"github.com/obotesoftech/prisonreturns/internal/store"
	"github.com/obotesoftech/prisonreturns/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthly(station, data string) SubmitInput {
	return SubmitInput{
		Frequency:  types.FrequencyMonthly,
		ReturnType: "staff-nominal-roll",
		Station:    station,
		Data:       data,
	}
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{})
	admin := sessionFor(env.register(t, "admin@example.com", types.RoleAdmin, ""))
	ctx := context.Background()

	tests := []struct {
		name  string
		in    SubmitInput
		field string
	}{
		{"no frequency", SubmitInput{ReturnType: "staff-nominal-roll", Station: "Kigo (M)", Data: "x"}, "frequency"},
		{"type outside frequency", SubmitInput{Frequency: types.FrequencyAnnual, ReturnType: "staff-nominal-roll", Station: "Kigo (M)", Data: "x"}, "returnType"},
		{"no station", SubmitInput{Frequency: types.FrequencyMonthly, ReturnType: "staff-nominal-roll", Data: "x"}, "station"},
		{"no data or file", monthly("Kigo (M)", ""), "data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.returns.Submit(ctx, admin, tt.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
	assert.Empty(t, env.storedReturns(t))
}

func TestSubmitStoresPendingRecord(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{})
	admin := sessionFor(env.register(t, "admin@example.com", types.RoleAdmin, ""))
	fixed := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	env.returns.now = func() time.Time { return fixed }

	in := monthly("Kigo (M)", "120 staff")
	in.Comment = "late"
	result, err := env.returns.Submit(context.Background(), admin, in)
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.Return.ID)
	assert.Equal(t, types.StatusPending, result.Return.Status)
	assert.Equal(t, "admin@example.com", result.Return.SubmittedBy)
	assert.Equal(t, fixed, result.Return.SubmittedAt)
	assert.False(t, result.Guard.Warning)
	assert.Equal(t, 1, env.bus.count(mq.ChannelReturns))
	assert.Equal(t, EventReturnSubmitted, env.bus.events[0].Attributes[mq.AttrEvent])
}

func TestSubmitStationAuthorization(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{})
	ctx := context.Background()

	directoryClerk := sessionFor(env.register(t, "kigo_m@prison.go.ug", types.RoleClerk, ""))
	_, err := env.returns.Submit(ctx, directoryClerk, monthly("Kigo (M)", "1"))
	assert.NoError(t, err)
	_, err = env.returns.Submit(ctx, directoryClerk, monthly("Luzira (W)", "1"))
	assert.ErrorIs(t, err, ErrStationMismatch)

	managedClerk := sessionFor(env.register(t, "clerk@example.com", types.RoleOfficer, "Gulu (M)"))
	_, err = env.returns.Submit(ctx, managedClerk, monthly("Gulu (M)", "1"))
	assert.NoError(t, err)
	_, err = env.returns.Submit(ctx, managedClerk, monthly("Kigo (M)", "1"))
	assert.ErrorIs(t, err, ErrStationMismatch)

	orphan := types.Session{ID: "s", Identifier: "nobody@example.com", Role: types.RoleClerk}
	_, err = env.returns.Submit(ctx, orphan, monthly("Gulu (M)", "1"))
	assert.ErrorIs(t, err, ErrUnauthorizedStation)

	admin := sessionFor(env.register(t, "admin@example.com", types.RoleAdmin, ""))
	_, err = env.returns.Submit(ctx, admin, monthly("Any Station", "1"))
	assert.NoError(t, err)

	_, err = env.returns.Submit(ctx, types.Session{Identifier: "x@example.com", Role: "visitor"}, monthly("Gulu (M)", "1"))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSubmitDuplicateGuard(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{})
	admin := sessionFor(env.register(t, "admin@example.com", types.RoleAdmin, ""))
	ctx := context.Background()

	var verdicts []GuardVerdict
	for i := 0; i < 5; i++ {
		result, err := env.returns.Submit(ctx, admin, monthly("Kigo (M)", "same"))
		require.NoError(t, err)
		verdicts = append(verdicts, result.Guard)
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, []int{
		verdicts[0].Attempts, verdicts[1].Attempts, verdicts[2].Attempts, verdicts[3].Attempts, verdicts[4].Attempts,
	})
	assert.False(t, verdicts[2].Warning)
	assert.True(t, verdicts[3].Warning)
	assert.Equal(t, guardWarning, verdicts[3].Message)
	assert.Len(t, env.storedReturns(t), 5, "warnings never block a submission")

	result, err := env.returns.Submit(ctx, admin, monthly("Kigo (M)", "different"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Guard.Attempts)
	assert.False(t, result.Guard.Warning)
}

func TestSubmitGuardScopes(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{})
	admin := sessionFor(env.register(t, "admin@example.com", types.RoleAdmin, ""))
	ctx := context.Background()

	a := monthly("Kigo (M)", "same")
	a.Scope = "laptop"
	b := a
	b.Scope = "phone"

	_, err := env.returns.Submit(ctx, admin, a)
	require.NoError(t, err)
	result, err := env.returns.Submit(ctx, admin, b)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Guard.Attempts)

	result, err = env.returns.Submit(ctx, admin, a)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Guard.Attempts)
}

func TestSubmitWithAttachment(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{})
	admin := sessionFor(env.register(t, "admin@example.com", types.RoleAdmin, ""))
	ctx := context.Background()

	in := monthly("Kigo (M)", "")
	in.File = &Upload{
		Name:     `C:\reports\roll.pdf`,
		MimeType: "application/pdf",
		Size:     7,
		Content:  strings.NewReader("%PDF-1."),
	}
	result, err := env.returns.Submit(ctx, admin, in)
	require.NoError(t, err)
	require.NotNil(t, result.Return.File)
	assert.Equal(t, "roll.pdf", result.Return.File.Name)
	assert.True(t, strings.HasPrefix(result.Return.File.ObjectKey, "returns/"))
	assert.Equal(t, 1, env.objects.Len())

	meta, body, err := env.returns.OpenAttachment(ctx, admin, result.Return.ID)
	require.NoError(t, err)
	defer body.Close()
	content, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.", string(content))
	assert.Equal(t, "application/pdf", meta.MimeType)
}

func TestVisibility(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{})
	ctx := context.Background()
	admin := sessionFor(env.register(t, "admin@example.com", types.RoleAdmin, ""))
	phq := sessionFor(env.register(t, "phq@example.com", types.RolePHQKLA, ""))
	kigo := sessionFor(env.register(t, "kigo_m@prison.go.ug", types.RoleClerk, "Kigo (M)"))
	gulu := sessionFor(env.register(t, "gulu_m@prison.go.ug", types.RoleOfficer, "Gulu (M)"))

	_, err := env.returns.Submit(ctx, kigo, monthly("Kigo (M)", "1"))
	require.NoError(t, err)
	_, err = env.returns.Submit(ctx, gulu, monthly("Gulu (M)", "2"))
	require.NoError(t, err)
	_, err = env.returns.Submit(ctx, admin, monthly("Masaka (M)", "3"))
	require.NoError(t, err)

	for _, caller := range []types.Session{admin, phq} {
		all, err := env.returns.List(ctx, caller)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	}

	own, err := env.returns.List(ctx, kigo)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "Kigo (M)", own[0].Station)

	_, err = env.returns.Get(ctx, kigo, 2)
	assert.ErrorIs(t, err, store.ErrNotFound)

	none, err := env.returns.List(ctx, types.Session{Identifier: "x", Role: "visitor"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearch(t *testing.T) {
	records := []types.ReturnRecord{
		{ID: 1, ReturnType: "staff-nominal-roll", Frequency: types.FrequencyMonthly, Station: "Kigo (M)", SubmittedBy: "kigo_m@prison.go.ug"},
		{ID: 2, ReturnType: "pf-30", Frequency: types.FrequencyQuarterly, Station: "Gulu (M)", SubmittedBy: "gulu_m@prison.go.ug"},
		{ID: 3, ReturnType: "annual-report", Frequency: types.FrequencyAnnual, Station: "Luzira (W)", SubmittedBy: "admin@example.com", Data: "kigo"},
	}

	assert.Len(t, Search(records, ""), 3)
	assert.Equal(t, int64(1), Search(records, "KIGO")[0].ID, "data is not searched")
	assert.Len(t, Search(records, "kigo"), 1)
	assert.Len(t, Search(records, "quarter"), 1)
	assert.Len(t, Search(records, "prison.go.ug"), 2)
	assert.Empty(t, Search(records, "nothing"))
}

func TestSortBy(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []types.ReturnRecord{
		{ID: 1, Station: "masaka (M)", SubmittedAt: base},
		{ID: 2, Station: "Gulu (M)", SubmittedAt: base.Add(2 * time.Hour)},
		{ID: 3, Station: "Kigo (M)", SubmittedAt: base.Add(time.Hour)},
	}
	ids := func(rs []types.ReturnRecord) []int64 {
		out := make([]int64, len(rs))
		for i, r := range rs {
			out[i] = r.ID
		}
		return out
	}

	assert.Equal(t, []int64{2, 3, 1}, ids(SortBy(records, "submittedAt")))
	assert.Equal(t, []int64{2, 3, 1}, ids(SortBy(records, "station")))
	assert.Equal(t, []int64{1, 2, 3}, ids(SortBy(records, "bogus")))
	assert.Equal(t, []int64{1, 2, 3}, ids(records), "input is not reordered")
}

func TestExportFileName(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{})
	env.returns.now = func() time.Time { return time.Date(2026, 10, 16, 23, 0, 0, 0, time.UTC) }
	assert.Equal(t, "prison-returns-export-2026-10-16.csv", env.returns.ExportFileName("csv"))
}

func TestGuardStateIsPerAccount(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{})
	admin := sessionFor(env.register(t, "admin@example.com", types.RoleAdmin, ""))
	clerk := sessionFor(env.register(t, "kigo_m@prison.go.ug", types.RoleClerk, ""))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.returns.Submit(ctx, admin, monthly("Kigo (M)", "same"))
		require.NoError(t, err)
	}

	for _, scope := range []string{"admin@example.com", "user:admin@example.com", ""} {
		in := monthly("Kigo (M)", "clerk data")
		in.Scope = scope
		_, err := env.returns.Submit(ctx, clerk, in)
		require.NoError(t, err)
	}

	result, err := env.returns.Submit(ctx, admin, monthly("Kigo (M)", "same"))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Guard.Attempts)
	assert.True(t, result.Guard.Warning)
}

func TestStateKey(t *testing.T) {
	admin := types.Session{Identifier: "admin@example.com"}
	assert.Equal(t, "user:admin@example.com", StateKey(admin, " "))
	assert.Equal(t, "profile:admin@example.com:laptop", StateKey(admin, "laptop"))

	clerk := types.Session{Identifier: "kigo_m@prison.go.ug"}
	assert.NotEqual(t, StateKey(admin, ""), StateKey(clerk, "admin@example.com"))
}

func TestSubmitConcurrentIdenticalGuard(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{})
	admin := sessionFor(env.register(t, "admin@example.com", types.RoleAdmin, ""))
	ctx := context.Background()

	const submitters = 8
	attempts := make(chan int, submitters)
	var wg sync.WaitGroup
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := env.returns.Submit(ctx, admin, monthly("Kigo (M)", "same"))
			assert.NoError(t, err)
			attempts <- result.Guard.Attempts
		}()
	}
	wg.Wait()
	close(attempts)

	var seen []int
	for a := range attempts {
		seen = append(seen, a)
	}
	sort.Ints(seen)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, seen, "every submission sees a distinct counter")
	assert.Len(t, env.storedReturns(t), submitters)

	result, err := env.returns.Submit(ctx, admin, monthly("Kigo (M)", "same"))
	require.NoError(t, err)
	assert.Equal(t, submitters, result.Guard.Attempts)
}
