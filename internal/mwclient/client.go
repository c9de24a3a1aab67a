// Package mwclient talks to the MediaWiki action API, the REST diff
// endpoint, and the Lift Wing scoring service. It is the one place that
// knows wire formats; callers get domain types and sentinel errors.
package mwclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wikimedia-suomi/pendingbot/wiki"
)

const (
	defaultBaseURL   = "https://%s.wikipedia.org"
	defaultScoreURL  = "https://api.wikimedia.org/service/lw/inference/v1/models"
	defaultORESURL   = "https://ores.wikimedia.org/v3/scores"
	defaultUserAgent = "pendingbot/1.0 (https://github.com/wikimedia-suomi/pendingbot)"
	defaultTimeout   = 10 * time.Second
)

// Options configures a Client. Zero values select production defaults.
type Options struct {
	// BaseURL is a template with one %s placeholder for the wiki id.
	BaseURL string
	// ScoreURL is the Lift Wing inference root.
	ScoreURL string
	// ORESURL is the ORES scoring service root.
	ORESURL   string
	UserAgent string
	// HTTPClient, when set, replaces the default client. It must be safe
	// for concurrent use.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client fetches revision data from a wiki. One Client serves any number
// of wikis and goroutines.
type Client struct {
	http      *http.Client
	baseURL   string
	scoreURL  string
	oresURL   string
	userAgent string
	logger    *slog.Logger
}

func New(opts Options) *Client {
	c := &Client{
		http:      opts.HTTPClient,
		baseURL:   opts.BaseURL,
		scoreURL:  opts.ScoreURL,
		oresURL:   opts.ORESURL,
		userAgent: opts.UserAgent,
		logger:    opts.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.scoreURL == "" {
		c.scoreURL = defaultScoreURL
	}
	if c.oresURL == "" {
		c.oresURL = defaultORESURL
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// RevisionText fetches the raw wikitext of a revision.
func (c *Client) RevisionText(ctx context.Context, wikiID string, revID int64) (string, error) {
	params := url.Values{
		"action":  {"query"},
		"prop":    {"revisions"},
		"revids":  {fmt.Sprint(revID)},
		"rvprop":  {"content"},
		"rvslots": {"main"},
	}
	var resp struct {
		Query struct {
			Pages []struct {
				Revisions []struct {
					Slots struct {
						Main struct {
							Content string `json:"content"`
						} `json:"main"`
					} `json:"slots"`
				} `json:"revisions"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := c.action(ctx, wikiID, params, &resp); err != nil {
		return "", fmt.Errorf("%w: revision %d: %v", wiki.ErrRevisionNotFound, revID, err)
	}
	for _, page := range resp.Query.Pages {
		for _, rev := range page.Revisions {
			return rev.Slots.Main.Content, nil
		}
	}
	return "", fmt.Errorf("%w: revision %d", wiki.ErrRevisionNotFound, revID)
}

// RenderedHTML fetches the parsed HTML of a revision.
func (c *Client) RenderedHTML(ctx context.Context, wikiID string, revID int64) (string, error) {
	params := url.Values{
		"action": {"parse"},
		"oldid":  {fmt.Sprint(revID)},
		"prop":   {"text"},
	}
	var resp struct {
		Parse struct {
			Text string `json:"text"`
		} `json:"parse"`
	}
	if err := c.action(ctx, wikiID, params, &resp); err != nil {
		return "", fmt.Errorf("%w: revision %d: %v", wiki.ErrRenderUnavailable, revID, err)
	}
	if resp.Parse.Text == "" {
		return "", fmt.Errorf("%w: revision %d", wiki.ErrRenderUnavailable, revID)
	}
	return resp.Parse.Text, nil
}

// RenderErrorCount counts elements carrying class="error" in the rendered
// revision, the signal MediaWiki uses for broken template and cite markup.
func (c *Client) RenderErrorCount(ctx context.Context, wikiID string, revID int64) (int, error) {
	html, err := c.RenderedHTML(ctx, wikiID, revID)
	if err != nil {
		return 0, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("%w: revision %d: %v", wiki.ErrRenderUnavailable, revID, err)
	}
	return doc.Find(".error").Length(), nil
}

// REST diff line types. Changed and moved lines fold into plain
// added/deleted lines; the pipeline only cares which side text is on.
const (
	diffTypeContext     = 0
	diffTypeAdded       = 1
	diffTypeDeleted     = 2
	diffTypeChanged     = 3
	diffTypeMovedTarget = 4
	diffTypeMovedSource = 5
)

// CompareRevisions fetches the structured line diff between two revisions
// from the REST API.
func (c *Client) CompareRevisions(ctx context.Context, wikiID string, fromID, toID int64) (*wiki.Diff, error) {
	endpoint := fmt.Sprintf(c.baseURL, wikiID) +
		fmt.Sprintf("/w/rest.php/v1/revision/%d/compare/%d", fromID, toID)
	var resp struct {
		Diff []struct {
			Type       int    `json:"type"`
			Text       string `json:"text"`
			LineNumber int    `json:"lineNumber"`
		} `json:"diff"`
	}
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("%w: %d..%d: %v", wiki.ErrDiffUnavailable, fromID, toID, err)
	}

	diff := &wiki.Diff{FromID: fromID, ToID: toID}
	for _, line := range resp.Diff {
		var t wiki.DiffLineType
		switch line.Type {
		case diffTypeContext:
			t = wiki.DiffContext
		case diffTypeAdded, diffTypeChanged, diffTypeMovedTarget:
			t = wiki.DiffAdded
		case diffTypeDeleted, diffTypeMovedSource:
			t = wiki.DiffDeleted
		default:
			continue
		}
		diff.Lines = append(diff.Lines, wiki.DiffLine{Type: t, Text: line.Text, Line: line.LineNumber})
	}
	return diff, nil
}

// AddedWords returns the words the wiki's own diff engine marks as added
// between two revisions. Fully added lines contribute all their words;
// changed lines contribute only the inline insertions.
func (c *Client) AddedWords(ctx context.Context, wikiID string, fromID, toID int64) ([]string, error) {
	params := url.Values{
		"action":  {"compare"},
		"fromrev": {fmt.Sprint(fromID)},
		"torev":   {fmt.Sprint(toID)},
	}
	var resp struct {
		Compare struct {
			Body string `json:"body"`
		} `json:"compare"`
	}
	if err := c.action(ctx, wikiID, params, &resp); err != nil {
		return nil, fmt.Errorf("%w: %d..%d: %v", wiki.ErrDiffUnavailable, fromID, toID, err)
	}

	// The compare body is table rows without the enclosing table.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table>" + resp.Compare.Body + "</table>"))
	if err != nil {
		return nil, fmt.Errorf("%w: %d..%d: %v", wiki.ErrDiffUnavailable, fromID, toID, err)
	}

	var words []string
	doc.Find("td.diff-addedline").Each(func(_ int, cell *goquery.Selection) {
		inline := cell.Find("ins.diffchange-inline")
		if inline.Length() > 0 {
			inline.Each(func(_ int, ins *goquery.Selection) {
				words = append(words, strings.Fields(ins.Text())...)
			})
			return
		}
		words = append(words, strings.Fields(cell.Text())...)
	})
	return words, nil
}

// MLScore fetches a model's probability for a revision from Lift Wing.
func (c *Client) MLScore(ctx context.Context, wikiID string, revID int64, model string) (float64, error) {
	payload, err := json.Marshal(map[string]any{
		"rev_id":  revID,
		"lang":    wikiID,
		"project": "wikipedia",
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", wiki.ErrScoreUnavailable, err)
	}

	endpoint := c.scoreURL + "/" + model + ":predict"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", wiki.ErrScoreUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	var resp struct {
		Output struct {
			Probabilities map[string]float64 `json:"probabilities"`
		} `json:"output"`
	}
	if err := c.do(req, &resp); err != nil {
		return 0, fmt.Errorf("%w: revision %d model %s: %v", wiki.ErrScoreUnavailable, revID, model, err)
	}
	score, ok := resp.Output.Probabilities["true"]
	if !ok {
		return 0, fmt.Errorf("%w: revision %d model %s: no probability in response",
			wiki.ErrScoreUnavailable, revID, model)
	}
	return score, nil
}

// EditorProfile looks up a user's groups and derives the rights the
// pipeline cares about.
func (c *Client) EditorProfile(ctx context.Context, wikiID, username string) (*wiki.EditorProfile, error) {
	params := url.Values{
		"action":  {"query"},
		"list":    {"users"},
		"ususers": {username},
		"usprop":  {"groups"},
	}
	var resp struct {
		Query struct {
			Users []struct {
				Name    string   `json:"name"`
				Groups  []string `json:"groups"`
				Missing bool     `json:"missing"`
			} `json:"users"`
		} `json:"query"`
	}
	if err := c.action(ctx, wikiID, params, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", wiki.ErrProfileUnavailable, username, err)
	}
	if len(resp.Query.Users) == 0 || resp.Query.Users[0].Missing {
		return nil, fmt.Errorf("%w: %s", wiki.ErrProfileUnavailable, username)
	}

	user := resp.Query.Users[0]
	profile := &wiki.EditorProfile{
		Username: user.Name,
		Groups:   user.Groups,
	}
	for _, group := range user.Groups {
		switch group {
		case "bot":
			profile.Bot = true
		case "autoreview", "autoreviewer", "editor":
			profile.AutoReview = true
		case "autopatrolled", "autopatrol":
			profile.AutoPatrol = true
		}
	}
	return profile, nil
}

// BlockedAfter reports whether the user appears in the block log after the
// given time.
func (c *Client) BlockedAfter(ctx context.Context, wikiID, username string, since time.Time) (bool, error) {
	params := url.Values{
		"action":  {"query"},
		"list":    {"logevents"},
		"letype":  {"block"},
		"letitle": {"User:" + username},
		"lestart": {since.UTC().Format(time.RFC3339)},
		"ledir":   {"newer"},
		"lelimit": {"50"},
	}
	var resp struct {
		Query struct {
			LogEvents []struct {
				Action string `json:"action"`
			} `json:"logevents"`
		} `json:"query"`
	}
	if err := c.action(ctx, wikiID, params, &resp); err != nil {
		return false, fmt.Errorf("block log for %s: %w", username, err)
	}
	for _, event := range resp.Query.LogEvents {
		if event.Action == "block" || event.Action == "reblock" {
			return true, nil
		}
	}
	return false, nil
}

// ORESScores fetches probabilities from the ORES scoring service for the
// requested models. A model the service leaves out of its response gets a
// neutral default (0 for damaging, 1 for goodfaith) so that an absent
// score never trips a threshold on its own.
func (c *Client) ORESScores(ctx context.Context, wikiID string, revID int64, models []string) (map[string]float64, error) {
	if len(models) == 0 {
		return map[string]float64{}, nil
	}
	oresWiki := wikiID + "wiki"
	endpoint := fmt.Sprintf("%s/%s/%d?models=%s",
		c.oresURL, oresWiki, revID, url.QueryEscape(strings.Join(models, "|")))

	var resp map[string]struct {
		Scores map[string]map[string]struct {
			Score struct {
				Probability map[string]float64 `json:"probability"`
			} `json:"score"`
		} `json:"scores"`
	}
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("%w: revision %d ores: %v", wiki.ErrScoreUnavailable, revID, err)
	}

	revScores := resp[oresWiki].Scores[strconv.FormatInt(revID, 10)]
	scores := make(map[string]float64, len(models))
	for _, model := range models {
		if entry, ok := revScores[model]; ok {
			if p, ok := entry.Score.Probability["true"]; ok {
				scores[model] = p
				continue
			}
		}
		if model == "goodfaith" {
			scores[model] = 1
		} else {
			scores[model] = 0
		}
	}
	return scores, nil
}

// ManuallyUnapproved reports whether the most recent review-log action
// touching the revision is an un-approval by a human reviewer.
func (c *Client) ManuallyUnapproved(ctx context.Context, wikiID, pageTitle string, revID int64) (bool, error) {
	params := url.Values{
		"action":  {"query"},
		"list":    {"logevents"},
		"letype":  {"review"},
		"letitle": {pageTitle},
		"lelimit": {"50"},
		"leprop":  {"ids|type|details|timestamp|user"},
	}
	var resp struct {
		Query struct {
			LogEvents []struct {
				Action string         `json:"action"`
				Params map[string]any `json:"params"`
			} `json:"logevents"`
		} `json:"query"`
	}
	if err := c.action(ctx, wikiID, params, &resp); err != nil {
		return false, fmt.Errorf("review log for %s: %w", pageTitle, err)
	}
	// Events come newest first; the first one naming the revision is the
	// reviewers' current word on it.
	for _, event := range resp.Query.LogEvents {
		if !logParamMatchesRevision(event.Params["0"], revID) {
			continue
		}
		return event.Action == "unapprove" || event.Action == "unapprove2", nil
	}
	return false, nil
}

// logParamMatchesRevision compares the review log's first positional
// parameter, which the API serves as either a number or a string, against
// a revision id.
func logParamMatchesRevision(param any, revID int64) bool {
	switch v := param.(type) {
	case float64:
		return int64(v) == revID
	case string:
		return v == strconv.FormatInt(revID, 10)
	}
	return false
}

// DomainUsed reports whether the wiki already cites any URL on the given
// domain.
func (c *Client) DomainUsed(ctx context.Context, wikiID, domain string) (bool, error) {
	params := url.Values{
		"action":  {"query"},
		"list":    {"exturlusage"},
		"euquery": {domain},
		"eulimit": {"1"},
	}
	var resp struct {
		Query struct {
			ExtURLUsage []struct {
				PageID int64 `json:"pageid"`
			} `json:"exturlusage"`
		} `json:"query"`
	}
	if err := c.action(ctx, wikiID, params, &resp); err != nil {
		return false, fmt.Errorf("domain usage for %s: %w", domain, err)
	}
	return len(resp.Query.ExtURLUsage) > 0, nil
}

// action performs a GET against the action API with JSON format options
// applied and decodes the response into v.
func (c *Client) action(ctx context.Context, wikiID string, params url.Values, v any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")
	endpoint := fmt.Sprintf(c.baseURL, wikiID) + "/w/api.php?" + params.Encode()
	return c.getJSON(ctx, endpoint, v)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s returned status %d", req.URL.Path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
