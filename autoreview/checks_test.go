package autoreview

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wikimedia-suomi/pendingbot/wiki"
)

// fakeClient satisfies Client from in-memory maps. A nil map makes the
// corresponding lookup fail, which is how tests exercise the fail-open
// paths. Every call is recorded for short-circuit assertions.
type fakeClient struct {
	texts        map[int64]string
	diffs        map[[2]int64]*wiki.Diff
	words        map[[2]int64][]string
	renderErrors map[int64]int
	scores       map[string]float64
	profiles     map[string]*wiki.EditorProfile
	blocked      map[string]bool
	domains      map[string]bool
	html         map[int64]string
	oresScores   map[string]float64
	unapproved   map[int64]bool

	calls []string
}

func (f *fakeClient) RevisionText(_ context.Context, _ string, revID int64) (string, error) {
	f.calls = append(f.calls, "RevisionText")
	text, ok := f.texts[revID]
	if !ok {
		return "", wiki.ErrRevisionNotFound
	}
	return text, nil
}

func (f *fakeClient) CompareRevisions(_ context.Context, _ string, fromID, toID int64) (*wiki.Diff, error) {
	f.calls = append(f.calls, "CompareRevisions")
	diff, ok := f.diffs[[2]int64{fromID, toID}]
	if !ok {
		return nil, wiki.ErrDiffUnavailable
	}
	return diff, nil
}

func (f *fakeClient) AddedWords(_ context.Context, _ string, fromID, toID int64) ([]string, error) {
	f.calls = append(f.calls, "AddedWords")
	words, ok := f.words[[2]int64{fromID, toID}]
	if !ok {
		return nil, wiki.ErrDiffUnavailable
	}
	return words, nil
}

func (f *fakeClient) RenderErrorCount(_ context.Context, _ string, revID int64) (int, error) {
	f.calls = append(f.calls, "RenderErrorCount")
	count, ok := f.renderErrors[revID]
	if !ok {
		return 0, wiki.ErrRenderUnavailable
	}
	return count, nil
}

func (f *fakeClient) MLScore(_ context.Context, _ string, _ int64, model string) (float64, error) {
	f.calls = append(f.calls, "MLScore")
	score, ok := f.scores[model]
	if !ok {
		return 0, wiki.ErrScoreUnavailable
	}
	return score, nil
}

func (f *fakeClient) EditorProfile(_ context.Context, _ string, username string) (*wiki.EditorProfile, error) {
	f.calls = append(f.calls, "EditorProfile")
	profile, ok := f.profiles[username]
	if !ok {
		return nil, wiki.ErrProfileUnavailable
	}
	return profile, nil
}

func (f *fakeClient) BlockedAfter(_ context.Context, _ string, username string, _ time.Time) (bool, error) {
	f.calls = append(f.calls, "BlockedAfter")
	blocked, ok := f.blocked[username]
	if !ok {
		return false, errors.New("block log timeout")
	}
	return blocked, nil
}

func (f *fakeClient) RenderedHTML(_ context.Context, _ string, revID int64) (string, error) {
	f.calls = append(f.calls, "RenderedHTML")
	html, ok := f.html[revID]
	if !ok {
		return "", wiki.ErrRenderUnavailable
	}
	return html, nil
}

func (f *fakeClient) ORESScores(_ context.Context, _ string, _ int64, models []string) (map[string]float64, error) {
	f.calls = append(f.calls, "ORESScores")
	if f.oresScores == nil {
		return nil, wiki.ErrScoreUnavailable
	}
	scores := make(map[string]float64, len(models))
	for _, model := range models {
		if score, ok := f.oresScores[model]; ok {
			scores[model] = score
		}
	}
	return scores, nil
}

func (f *fakeClient) ManuallyUnapproved(_ context.Context, _, _ string, revID int64) (bool, error) {
	f.calls = append(f.calls, "ManuallyUnapproved")
	if f.unapproved == nil {
		return false, errors.New("review log timeout")
	}
	return f.unapproved[revID], nil
}

func (f *fakeClient) DomainUsed(_ context.Context, _ string, domain string) (bool, error) {
	f.calls = append(f.calls, "DomainUsed")
	used, ok := f.domains[domain]
	if !ok {
		return false, errors.New("domain query timeout")
	}
	return used, nil
}

func testPage() (*wiki.Page, *wiki.Revision) {
	rev := &wiki.Revision{
		ID:       101,
		ParentID: 100,
		PageID:   1,
		User:     "Matti",
		Created:  time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Wikitext: "The cat sat on the mat.",
	}
	page := &wiki.Page{
		ID:          1,
		Title:       "Helsinki",
		Wiki:        "fi",
		StableRevID: 100,
		Pending:     []*wiki.Revision{rev},
	}
	return page, rev
}

func newTestContext(client *fakeClient) *Context {
	page, rev := testPage()
	return &Context{
		Client:   client,
		Page:     page,
		Revision: rev,
		Config:   wiki.DefaultConfiguration(),
	}
}

func TestCheckBotUser(t *testing.T) {
	tests := []struct {
		name    string
		bot     bool
		profile *wiki.EditorProfile
		want    CheckStatus
	}{
		{"edit flagged as bot", true, nil, CheckApprove},
		{"profile marked bot", false, &wiki.EditorProfile{Username: "Matti", Bot: true}, CheckApprove},
		{"former bot", false, &wiki.EditorProfile{Username: "Matti", FormerBot: true}, CheckApprove},
		{"plain user", false, &wiki.EditorProfile{Username: "Matti"}, CheckInconclusive},
		{"no profile available", false, nil, CheckInconclusive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{profiles: map[string]*wiki.EditorProfile{}}
			if tt.profile != nil {
				client.profiles["Matti"] = tt.profile
			}
			rc := newTestContext(client)
			rc.Revision.Bot = tt.bot

			result := checkBotUser(context.Background(), rc)
			if result.Status != tt.want {
				t.Errorf("status = %v, want %v", result.Status, tt.want)
			}
		})
	}
}

func TestCheckBlockedUser(t *testing.T) {
	tests := []struct {
		name    string
		blocked map[string]bool
		want    CheckStatus
	}{
		{"blocked after edit", map[string]bool{"Matti": true}, CheckReject},
		{"not blocked", map[string]bool{"Matti": false}, CheckInconclusive},
		{"lookup fails", nil, CheckInconclusive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newTestContext(&fakeClient{blocked: tt.blocked})
			result := checkBlockedUser(context.Background(), rc)
			if result.Status != tt.want {
				t.Errorf("status = %v, want %v", result.Status, tt.want)
			}
		})
	}
}

func TestCheckAutoApprovedGroup(t *testing.T) {
	tests := []struct {
		name    string
		groups  []string
		allowed []string
		auto    bool
		want    CheckStatus
	}{
		{"member of allowed group", []string{"sysop"}, []string{"Sysop", "steward"}, false, CheckApprove},
		{"casefolded match", []string{"SYSOP"}, []string{"sysop"}, false, CheckApprove},
		{"not a member", []string{"user"}, []string{"sysop"}, false, CheckInconclusive},
		{"no groups configured, autoreview right", nil, nil, true, CheckApprove},
		{"no groups configured, no rights", nil, nil, false, CheckInconclusive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{profiles: map[string]*wiki.EditorProfile{
				"Matti": {Username: "Matti", Groups: tt.groups, AutoReview: tt.auto},
			}}
			rc := newTestContext(client)
			rc.Config.AutoApprovedGroups = tt.allowed

			result := checkAutoApprovedGroup(context.Background(), rc)
			if result.Status != tt.want {
				t.Errorf("status = %v, want %v", result.Status, tt.want)
			}
		})
	}
}

func TestCheckAutoApprovedGroupUsesConfiguredSpelling(t *testing.T) {
	client := &fakeClient{profiles: map[string]*wiki.EditorProfile{
		"Matti": {Username: "Matti", Groups: []string{"sysop"}},
	}}
	rc := newTestContext(client)
	rc.Config.AutoApprovedGroups = []string{"Sysop"}

	result := checkAutoApprovedGroup(context.Background(), rc)
	if !strings.Contains(result.Message, "Sysop") {
		t.Errorf("message %q does not use the configured spelling", result.Message)
	}
}

func TestCheckBlockingCategories(t *testing.T) {
	tests := []struct {
		name       string
		categories []string
		blocking   []string
		want       CheckStatus
	}{
		{"page in blocking category", []string{"Living people"}, []string{"living people"}, CheckReject},
		{"no overlap", []string{"Finnish cities"}, []string{"Living people"}, CheckInconclusive},
		{"nothing configured", []string{"Living people"}, nil, CheckInconclusive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newTestContext(&fakeClient{})
			rc.Page.Categories = tt.categories
			rc.Config.BlockingCategories = tt.blocking

			result := checkBlockingCategories(context.Background(), rc)
			if result.Status != tt.want {
				t.Errorf("status = %v, want %v", result.Status, tt.want)
			}
		})
	}
}

func TestCheckRenderErrors(t *testing.T) {
	tests := []struct {
		name     string
		parentID int64
		counts   map[int64]int
		want     CheckStatus
	}{
		{"new errors introduced", 100, map[int64]int{100: 0, 101: 2}, CheckReject},
		{"same error count", 100, map[int64]int{100: 1, 101: 1}, CheckInconclusive},
		{"errors fixed", 100, map[int64]int{100: 3, 101: 0}, CheckInconclusive},
		{"html unavailable", 100, nil, CheckInconclusive},
		{"first revision", 0, nil, CheckSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newTestContext(&fakeClient{renderErrors: tt.counts})
			rc.Revision.ParentID = tt.parentID

			result := checkRenderErrors(context.Background(), rc)
			if result.Status != tt.want {
				t.Errorf("status = %v, want %v", result.Status, tt.want)
			}
		})
	}
}

func TestCheckRevertRisk(t *testing.T) {
	tests := []struct {
		name       string
		thresholds map[string]float64
		scores     map[string]float64
		want       CheckStatus
	}{
		{"score above threshold", map[string]float64{"revertrisk": 0.9}, map[string]float64{"revertrisk": 0.95}, CheckReject},
		{"score within threshold", map[string]float64{"revertrisk": 0.9}, map[string]float64{"revertrisk": 0.3}, CheckInconclusive},
		{"score unavailable", map[string]float64{"revertrisk": 0.9}, nil, CheckInconclusive},
		{"model disabled", map[string]float64{"revertrisk": 0}, nil, CheckSkip},
		{"no models configured", nil, nil, CheckSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newTestContext(&fakeClient{scores: tt.scores})
			rc.Config.MLThresholds = tt.thresholds

			result := checkRevertRisk(context.Background(), rc)
			if result.Status != tt.want {
				t.Errorf("status = %v, want %v", result.Status, tt.want)
			}
		})
	}
}

func TestCheckInvalidISBN(t *testing.T) {
	tests := []struct {
		name     string
		wikitext string
		want     CheckStatus
	}{
		{"valid isbn", "Cited as ISBN 978-0-306-40615-7.", CheckInconclusive},
		{"invalid checksum", "Cited as ISBN 978-0-306-40615-2.", CheckReject},
		{"no isbns at all", "No citations here.", CheckInconclusive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newTestContext(&fakeClient{})
			rc.Revision.Wikitext = tt.wikitext

			result := checkInvalidISBN(context.Background(), rc)
			if result.Status != tt.want {
				t.Errorf("status = %v, want %v", result.Status, tt.want)
			}
		})
	}
}

func TestCheckSupersededAdditions(t *testing.T) {
	tests := []struct {
		name   string
		parent string
		stable string
		want   CheckStatus
	}{
		{
			name:   "addition gone from stable",
			parent: "The cat sat on the mat.",
			stable: "The cat sat on the mat.",
			want:   CheckApprove, // pending adds a sentence the stable no longer has
		},
		{
			name:   "addition survives",
			parent: "The cat sat on the mat.",
			stable: "The cat sat on the mat. It was a calm and happy animal.",
			want:   CheckInconclusive,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{texts: map[int64]string{
				100: tt.parent,
				101: tt.parent + " It was a calm and happy animal.",
			}}
			rc := newTestContext(client)
			rc.Page.StableRevID = 99
			client.texts[99] = tt.stable
			rc.Revision.Wikitext = client.texts[101]
			rc.Config.SignificantAdditionLength = 5

			result := checkSupersededAdditions(context.Background(), rc)
			if result.Status != tt.want {
				t.Errorf("status = %v, want %v (message %q)", result.Status, tt.want, result.Message)
			}
		})
	}
}

func TestCheckReferenceOnlyEdit(t *testing.T) {
	parent := "Helsinki is the capital.<ref>Old source</ref>"
	tests := []struct {
		name    string
		pending string
		domains map[string]bool
		want    CheckStatus
	}{
		{
			name:    "adds reference without url",
			pending: "Helsinki is the capital.<ref>Old source</ref><ref>Statistics yearbook 2025</ref>",
			want:    CheckApprove,
		},
		{
			name:    "adds reference with known domain",
			pending: "Helsinki is the capital.<ref>Old source</ref><ref>https://stat.fi/yearbook</ref>",
			domains: map[string]bool{"stat.fi": true},
			want:    CheckApprove,
		},
		{
			name:    "adds reference with unused domain",
			pending: "Helsinki is the capital.<ref>Old source</ref><ref>https://example.org/blog</ref>",
			domains: map[string]bool{"example.org": false},
			want:    CheckInconclusive,
		},
		{
			name:    "prose changed too",
			pending: "Helsinki is the capital of Finland.<ref>Old source</ref><ref>https://stat.fi</ref>",
			domains: map[string]bool{"stat.fi": true},
			want:    CheckSkip,
		},
		{
			name:    "no reference change",
			pending: parent,
			want:    CheckSkip,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{
				texts:   map[int64]string{100: parent, 101: tt.pending},
				domains: tt.domains,
			}
			rc := newTestContext(client)
			rc.Revision.Wikitext = tt.pending

			result := checkReferenceOnlyEdit(context.Background(), rc)
			if result.Status != tt.want {
				t.Errorf("status = %v, want %v (message %q)", result.Status, tt.want, result.Message)
			}
		})
	}
}

func TestCheckBrokenWikicode(t *testing.T) {
	clean := `<p>Helsinki is the capital.</p>`
	broken := `<p>Helsinki is the capital. {{cite web}} leaked</p>`
	preexisting := `<p>Old damage {{cite web}} here</p>`

	tests := []struct {
		name string
		html map[int64]string
		want CheckStatus
	}{
		{"markup leaks into render", map[int64]string{100: clean, 101: broken}, CheckReject},
		{"clean render", map[int64]string{100: clean, 101: clean}, CheckInconclusive},
		{"pre-existing damage not charged to this edit", map[int64]string{100: preexisting, 101: preexisting}, CheckInconclusive},
		{"current html unavailable", nil, CheckInconclusive},
		{"parent html unavailable", map[int64]string{101: broken}, CheckInconclusive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newTestContext(&fakeClient{html: tt.html})

			result := checkBrokenWikicode(context.Background(), rc)
			if result.Status != tt.want {
				t.Errorf("status = %v, want %v", result.Status, tt.want)
			}
		})
	}
}

func TestCheckBrokenWikicodeFirstRevision(t *testing.T) {
	broken := `<p>[[link]] leaked</p>`
	rc := newTestContext(&fakeClient{html: map[int64]string{101: broken}})
	rc.Revision.ParentID = 0

	result := checkBrokenWikicode(context.Background(), rc)
	if result.Status != CheckReject {
		t.Errorf("status = %v, want %v", result.Status, CheckReject)
	}
}

func TestCheckManualUnapproval(t *testing.T) {
	tests := []struct {
		name       string
		unapproved map[int64]bool
		want       CheckStatus
	}{
		{"revision was un-approved", map[int64]bool{101: true}, CheckReject},
		{"revision never un-approved", map[int64]bool{}, CheckInconclusive},
		{"review log unavailable", nil, CheckInconclusive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newTestContext(&fakeClient{unapproved: tt.unapproved})

			result := checkManualUnapproval(context.Background(), rc)
			if result.Status != tt.want {
				t.Errorf("status = %v, want %v", result.Status, tt.want)
			}
		})
	}
}

func TestCheckArticleToRedirect(t *testing.T) {
	tests := []struct {
		name       string
		wikitext   string
		parentText string
		want       CheckStatus
	}{
		{"article turned into redirect", "#OHJAUS [[Espoo]]", "Helsinki is the capital.", CheckReject},
		{"redirect stays a redirect", "#OHJAUS [[Espoo]]", "#OHJAUS [[Vantaa]]", CheckInconclusive},
		{"ordinary edit", "Helsinki is the capital.", "Helsinki was the capital.", CheckInconclusive},
		{"parent text unavailable", "#OHJAUS [[Espoo]]", "", CheckInconclusive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			texts := map[int64]string{}
			if tt.parentText != "" {
				texts[100] = tt.parentText
			}
			rc := newTestContext(&fakeClient{texts: texts})
			rc.Revision.Wikitext = tt.wikitext
			rc.Config.RedirectAliases = []string{"#OHJAUS", "#REDIRECT"}

			result := checkArticleToRedirect(context.Background(), rc)
			if result.Status != tt.want {
				t.Errorf("status = %v, want %v", result.Status, tt.want)
			}
		})
	}
}

func TestCheckORESScores(t *testing.T) {
	tests := []struct {
		name      string
		damaging  float64
		goodfaith float64
		scores    map[string]float64
		want      CheckStatus
	}{
		{"damaging above threshold", 0.5, 0, map[string]float64{"damaging": 0.8}, CheckReject},
		{"goodfaith below threshold", 0, 0.5, map[string]float64{"goodfaith": 0.2}, CheckReject},
		{"scores within thresholds", 0.5, 0.5, map[string]float64{"damaging": 0.1, "goodfaith": 0.9}, CheckInconclusive},
		{"service unavailable", 0.5, 0.5, nil, CheckInconclusive},
		{"scoring disabled", 0, 0, nil, CheckSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newTestContext(&fakeClient{oresScores: tt.scores})
			rc.Config.ORESDamagingThreshold = tt.damaging
			rc.Config.ORESGoodfaithThreshold = tt.goodfaith

			result := checkORESScores(context.Background(), rc)
			if result.Status != tt.want {
				t.Errorf("status = %v, want %v", result.Status, tt.want)
			}
		})
	}
}
