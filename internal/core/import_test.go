package core_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/memberdesk/internal/core"
	"github.com/JonMunkholm/memberdesk/internal/spreadsheet"
	"github.com/JonMunkholm/memberdesk/internal/store/memory"
)

func newService(store core.MemberStore, opts ...func(*core.Options)) *core.Service {
	o := core.Options{Store: store, Decoder: spreadsheet.Decoder{}}
	for _, fn := range opts {
		fn(&o)
	}
	return core.NewService(o)
}

func TestRunImportUpsertScenario(t *testing.T) {
	store := memory.New()
	seed(t, store, &core.Member{FullName: "Existing", MembershipID: ptr(int64(100))})
	svc := newService(store)
	ctx := context.Background()

	rows := []map[string]any{
		{"Membership ID": float64(100), "Phone": "06 11 22"},
		{"الاسم": "New Member", "تاريخ الانضمام": float64(44927), "الجنس": "أنثى"},
		{"name": "Undated", "membershipDate": "not a date"},
	}

	res, err := svc.RunImport(ctx, rows, core.ModeUpsert)
	if err != nil {
		t.Fatalf("RunImport: %v", err)
	}
	if res.Created != 2 || res.Updated != 1 || res.Failed != 0 || len(res.Errors) != 0 {
		t.Fatalf("result = %+v, want created=2 updated=1 failed=0", res)
	}

	existing, err := store.FindOne(ctx, core.Lookup{Field: core.KeyMembershipID, Value: int64(100)})
	if err != nil || existing == nil {
		t.Fatalf("existing member lost: %v", err)
	}
	if existing.FullName != "Existing" || existing.Phone != "061122" {
		t.Errorf("merged member = %q / %q", existing.FullName, existing.Phone)
	}

	created, _ := store.FindOne(ctx, core.Lookup{Field: core.KeyFullName, Value: "New Member"})
	if created == nil {
		t.Fatal("new member not created")
	}
	want := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	if created.JoinedAt == nil || !created.JoinedAt.Equal(want) {
		t.Errorf("joinedAt = %v, want %v", created.JoinedAt, want)
	}
	if created.Gender != core.GenderFemale || created.Status != core.StatusActive || created.MemberType != "active" {
		t.Errorf("created = %+v", created)
	}

	undated, _ := store.FindOne(ctx, core.Lookup{Field: core.KeyFullName, Value: "Undated"})
	if undated == nil || undated.JoinedAt != nil {
		t.Errorf("undated member = %+v, want created without joinedAt", undated)
	}
}

func TestRunImportRepeatedMembershipID(t *testing.T) {
	store := memory.New()
	svc := newService(store)
	ctx := context.Background()

	rows := []map[string]any{
		{"fullName": "Youssef", "membershipId": float64(100), "phone": "0600"},
		{"fullName": "Youssef B.", "membershipId": float64(100), "phone": "0611 22 33"},
		{"fullName": "Hind", "membershipDate": "31-31-2020"},
	}
	res, err := svc.RunImport(ctx, rows, core.ModeUpsert)
	if err != nil {
		t.Fatalf("RunImport: %v", err)
	}
	// Row 2 updates row 1's record; row 3 is created without a date.
	if res.Created != 2 || res.Updated != 1 || res.Failed != 0 || len(res.Errors) != 0 {
		t.Fatalf("result = %+v", res)
	}

	m, _ := store.FindOne(ctx, core.Lookup{Field: core.KeyMembershipID, Value: int64(100)})
	if m == nil || m.Phone != "06112233" || m.FullName != "Youssef B." {
		t.Errorf("member 100 = %+v", m)
	}
	hind, _ := store.FindOne(ctx, core.Lookup{Field: core.KeyFullName, Value: "Hind"})
	if hind == nil || hind.JoinedAt != nil {
		t.Errorf("undated row = %+v", hind)
	}
}

func TestRunImportSparseMerge(t *testing.T) {
	store := memory.New()
	seed(t, store, &core.Member{
		FullName:     "Amina",
		MembershipID: ptr(int64(7)),
		Email:        "amina@example.org",
		Address:      "Rabat",
		Gender:       core.GenderFemale,
	})
	svc := newService(store)

	rows := []map[string]any{{
		"email":        "AMINA@example.org",
		"address":      "",
		"gender":       "unknown",
		"membershipId": float64(8),
		"occupation":   "Teacher",
	}}
	res, err := svc.RunImport(context.Background(), rows, core.ModeUpsert)
	if err != nil {
		t.Fatalf("RunImport: %v", err)
	}
	if res.Updated != 1 {
		t.Fatalf("result = %+v, want one update", res)
	}

	m, _ := store.FindOne(context.Background(), core.Lookup{Field: core.KeyFullName, Value: "Amina"})
	if m.Address != "Rabat" || m.Gender != core.GenderFemale {
		t.Errorf("blank or unrecognized cells overwrote data: %+v", m)
	}
	if m.Occupation != "Teacher" {
		t.Errorf("occupation = %q", m.Occupation)
	}
	if m.MembershipID == nil || *m.MembershipID != 8 {
		t.Errorf("membershipId = %v, want 8 from the row", m.MembershipID)
	}
}

func TestRunImportMergeReplacesMembershipID(t *testing.T) {
	store := memory.New()
	seed(t, store, &core.Member{FullName: "Amina", MembershipID: ptr(int64(7)), CIN: ptr("AB123")})
	svc := newService(store)
	ctx := context.Background()

	rows := []map[string]any{{"cin": "ab-123", "membershipId": float64(8)}}
	res, err := svc.RunImport(ctx, rows, core.ModeUpsert)
	if err != nil {
		t.Fatalf("RunImport: %v", err)
	}
	if res.Created != 0 || res.Updated != 1 || res.Failed != 0 {
		t.Fatalf("result = %+v, want one update", res)
	}

	m, _ := store.FindOne(ctx, core.Lookup{Field: core.KeyCIN, Value: "AB123"})
	if m == nil || m.MembershipID == nil || *m.MembershipID != 8 {
		t.Fatalf("stored member = %+v, want membershipId 8", m)
	}
	if old, _ := store.FindOne(ctx, core.Lookup{Field: core.KeyMembershipID, Value: int64(7)}); old != nil {
		t.Errorf("membershipId 7 still stored on %s", old.FullName)
	}
}

func TestRunImportModes(t *testing.T) {
	tests := []struct {
		mode    core.ImportMode
		created int
		updated int
		errors  int
		total   int64
	}{
		{core.ModeSkip, 0, 0, 1, 1},
		{core.ModeAppend, 1, 0, 0, 2},
		{core.ModeUpsert, 0, 1, 0, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			store := memory.New()
			seed(t, store, &core.Member{FullName: "Existing", Email: "e@example.org"})
			svc := newService(store)

			rows := []map[string]any{{"fullName": "Other Name", "email": "E@example.org"}}
			res, err := svc.RunImport(context.Background(), rows, tt.mode)
			if err != nil {
				t.Fatalf("RunImport: %v", err)
			}
			if res.Created != tt.created || res.Updated != tt.updated || len(res.Errors) != tt.errors || res.Failed != 0 {
				t.Errorf("result = %+v", res)
			}
			if tt.mode == core.ModeSkip && res.Errors[0] != (core.RowError{Row: 1, Message: core.SkippedMessage}) {
				t.Errorf("skip error = %+v", res.Errors[0])
			}
			if n, _ := store.Count(context.Background(), core.MemberFilter{}); n != tt.total {
				t.Errorf("stored members = %d, want %d", n, tt.total)
			}
		})
	}
}

func TestRunImportRowFailureIsolated(t *testing.T) {
	store := memory.New()
	svc := newService(store)

	rows := []map[string]any{
		{"fullName": "First", "cin": "X1"},
		{"phone": "0600"},
		{"fullName": "Dup", "cin": "x-1"},
		{"fullName": "Last", "status": "on hold"},
		{"fullName": "Fine"},
	}
	// Row 2 has no name, row 3 reuses row 1's cin, row 4 has a bad status.
	res, err := svc.RunImport(context.Background(), rows, core.ModeAppend)
	if err != nil {
		t.Fatalf("RunImport: %v", err)
	}
	if res.Created != 2 || res.Failed != 3 {
		t.Fatalf("result = %+v, want created=2 failed=3", res)
	}
	wantRows := []int{2, 3, 4}
	for i, e := range res.Errors {
		if e.Row != wantRows[i] {
			t.Errorf("error %d row = %d, want %d", i, e.Row, wantRows[i])
		}
		if e.Message == "" {
			t.Errorf("error %d has no message", i)
		}
	}
	if !strings.Contains(res.Errors[1].Message, "duplicate") {
		t.Errorf("duplicate row message = %q", res.Errors[1].Message)
	}
}

func TestRunImportPreflight(t *testing.T) {
	svc := newService(memory.New(), func(o *core.Options) { o.MaxImportRows = 2 })
	ctx := context.Background()

	_, err := svc.RunImport(ctx, nil, core.ModeUpsert)
	if !core.IsPreflight(err) || !errors.Is(err, core.ErrNoRows) {
		t.Errorf("empty batch error = %v", err)
	}

	rows := make([]map[string]any, 3)
	for i := range rows {
		rows[i] = map[string]any{"fullName": "x"}
	}
	_, err = svc.RunImport(ctx, rows, core.ModeUpsert)
	if !core.IsPreflight(err) || !errors.Is(err, core.ErrTooManyRows) {
		t.Errorf("oversized batch error = %v", err)
	}
	if n, _ := svc.CountMembers(ctx, core.MemberFilter{}); n != 0 {
		t.Errorf("rejected batch wrote %d members", n)
	}
}

func TestRunImportBusyLimiter(t *testing.T) {
	svc := newService(memory.New(), func(o *core.Options) { o.ImportWaitTime = 20 * time.Millisecond })
	lim := svc.ImportLimiter()
	if err := lim.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lim.Release()

	_, err := svc.RunImport(context.Background(), []map[string]any{{"fullName": "x"}}, core.ModeUpsert)
	if !errors.Is(err, core.ErrTooManyImports) {
		t.Errorf("error = %v, want ErrTooManyImports", err)
	}
	if core.IsPreflight(err) {
		t.Error("busy limiter should not be a pre-flight error")
	}
}

type recordingObserver struct {
	mode   core.ImportMode
	result core.ImportResult
	calls  int
}

func (o *recordingObserver) ObserveImport(mode core.ImportMode, r core.ImportResult, _ time.Duration) {
	o.mode, o.result = mode, r
	o.calls++
}

func TestImportFileXLSX(t *testing.T) {
	obs := &recordingObserver{}
	store := memory.New()
	svc := newService(store, func(o *core.Options) { o.Observer = obs })

	f := excelize.NewFile()
	rows := [][]any{
		{"الاسم", "الهاتف", "رقم العضوية", "تاريخ الانضمام"},
		{"محمد", "06-12 34 56 78", 12, 44927},
		{"سارة", "", nil, "2024-2-29"},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := r
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	_ = f.Close()

	sum, err := svc.ImportFile(context.Background(), buf.Bytes(), core.ModeUpsert)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if sum.Message != "Import completed" || sum.Rows != 2 || sum.Results.Created != 2 {
		t.Fatalf("summary = %+v", sum)
	}

	m, _ := store.FindOne(context.Background(), core.Lookup{Field: core.KeyMembershipID, Value: int64(12)})
	if m == nil || m.FullName != "محمد" || m.Phone != "0612345678" {
		t.Fatalf("imported member = %+v", m)
	}
	if obs.calls != 1 || obs.mode != core.ModeUpsert || obs.result.Created != 2 {
		t.Errorf("observer = %+v", obs)
	}
}

func TestImportFilePreflight(t *testing.T) {
	svc := newService(memory.New())
	ctx := context.Background()

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"no file", nil, core.ErrNoFile},
		{"broken workbook", []byte("PK\x03\x04 not really a zip"), core.ErrUnreadableFile},
		{"header only", []byte("fullName,phone\n"), core.ErrNoRows},
		{"legacy xls", []byte("\xd0\xcf\x11\xe0\xa1\xb1\x1a\xe1binary,junk\n"), core.ErrUnreadableFile},
		{"latin1 csv", []byte("fullName\nJos\xe9\n"), core.ErrUnreadableFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ImportFile(ctx, tt.data, core.ModeUpsert)
			if !core.IsPreflight(err) || !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want pre-flight %v", err, tt.want)
			}
		})
	}
}

func TestParseImportMode(t *testing.T) {
	tests := map[string]core.ImportMode{
		"append":  core.ModeAppend,
		" SKIP ":  core.ModeSkip,
		"upsert":  core.ModeUpsert,
		"":        core.ModeUpsert,
		"replace": core.ModeUpsert,
	}
	for in, want := range tests {
		if got := core.ParseImportMode(in); got != want {
			t.Errorf("ParseImportMode(%q) = %q, want %q", in, got, want)
		}
	}
}
