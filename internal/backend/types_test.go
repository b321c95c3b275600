package backend

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNumber_AcceptsNumbersStringsAndNull(t *testing.T) {
	tests := []struct {
		in   string
		want Number
		ok   bool
	}{
		{`12.5`, 12.5, true},
		{`"99.9"`, 99.9, true},
		{`" 3 "`, 3, true},
		{`""`, 0, true},
		{`null`, 0, true},
		{`"abc"`, 0, false},
		{`true`, 0, false},
	}
	for _, tt := range tests {
		var n Number
		err := json.Unmarshal([]byte(tt.in), &n)
		if (err == nil) != tt.ok {
			t.Fatalf("Unmarshal(%s) error = %v, want ok=%v", tt.in, err, tt.ok)
		}
		if tt.ok && n != tt.want {
			t.Fatalf("Unmarshal(%s) = %v, want %v", tt.in, n, tt.want)
		}
	}
}

func TestParseTimestamp_Layouts(t *testing.T) {
	want := time.Date(2026, 10, 18, 8, 15, 0, 0, time.UTC)
	for _, in := range []string{
		"2026-10-18T08:15:00Z",
		"2026-10-18T08:15:00.000+00:00",
		"2026-10-18 08:15:00+00",
		"2026-10-18 08:15:00",
	} {
		got, err := ParseTimestamp(in)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q) returned error: %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("ParseTimestamp(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatalf("ParseTimestamp(yesterday) returned nil error")
	}
}

func TestAdminRecord_DecodesBackendShape(t *testing.T) {
	raw := `{"admins":[{"id":"1","name":"A","email":"a@x.com","role":"CEO","is_active":true,
		"permissions":{"manage_admins":true,"view_reports":false},
		"platform_access":["alpha.tv","beta.fm"],
		"last_login":null,"created_at":"2026-01-02T03:04:05Z"}]}`

	var list AdminList
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	a, ok := list.Find("1")
	if !ok {
		t.Fatalf("Find(1) not found")
	}
	if !a.IsActive || a.Role != "CEO" || !a.Permissions["manage_admins"] || a.Permissions["view_reports"] {
		t.Fatalf("admin = %+v, unexpected fields", a)
	}
	if !a.HasPlatform("beta.fm") || a.HasPlatform("gamma") {
		t.Fatalf("HasPlatform mismatch for %v", a.PlatformAccess)
	}
	if a.LastLogin != nil && !a.LastLogin.IsZero() {
		t.Fatalf("LastLogin = %v, want unset", a.LastLogin)
	}
	if a.CreatedAt.Year() != 2026 {
		t.Fatalf("CreatedAt = %v, want 2026", a.CreatedAt)
	}
}

func TestAdminList_FilterAndRoles(t *testing.T) {
	list := AdminList{Admins: []AdminRecord{
		{ID: "1", Name: "Ada Lovelace", Email: "ada@femg.net", Role: "CTO"},
		{ID: "2", Name: "Grace Hopper", Email: "grace@femg.net", Role: "Director"},
		{ID: "3", Name: "Alan Turing", Email: "alan@femg.net", Role: "CTO"},
	}}

	if got := list.Filter("a", "CTO"); len(got) != 2 {
		t.Fatalf("Filter(a, CTO) = %d admins, want 2", len(got))
	}
	if got := list.Filter("GRACE", ""); len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("Filter(GRACE) = %v, want grace", got)
	}
	if got := list.Filter("", ""); len(got) != 3 {
		t.Fatalf("Filter() = %d admins, want 3", len(got))
	}
	roles := list.Roles()
	if len(roles) != 2 || roles[0] != "CTO" || roles[1] != "Director" {
		t.Fatalf("Roles = %v, want [CTO Director]", roles)
	}
}

func TestExecutiveOverview_Aggregates(t *testing.T) {
	var e ExecutiveOverview
	if got := e.Latest(); got.TotalUsers != 0 {
		t.Fatalf("Latest on empty = %+v, want zero", got)
	}
	e = ExecutiveOverview{
		Analytics: []NetworkAnalytics{{TotalUsers: 10}, {TotalUsers: 5}},
		PlatformHealth: map[string]PlatformHealth{
			"a": {AvgScore: 99}, "b": {AvgScore: 95}, "c": {AvgScore: 96.5},
		},
	}
	if e.Latest().TotalUsers != 10 {
		t.Fatalf("Latest = %+v, want first row", e.Latest())
	}
	if e.HealthyPlatforms() != 2 {
		t.Fatalf("HealthyPlatforms = %d, want 2", e.HealthyPlatforms())
	}
}
