package ep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tyler180/hockey-stats-backends/internal/browser"
)

const (
	factsSectionSel = "#player-facts"
	factsListSel    = ".PlayerFacts_factsList__Xw_ID"
	extraFactsSel   = ".PlayerFacts_factsList__Xw_ID.PlayerFacts_fullWidth__W878B"
	factLabelSel    = ".PlayerFacts_factLabel__EqzO5"
	highlightSel    = ".highlights-tooltip"
	playerTypesSel  = ".PlayerFacts_playerTypes__lGoC4"
	chipSel         = ".Chip_chip__qIK6Z"
	descriptionSel  = ".PlayerFacts_description__ujmxU"

	DateOfBirthLayout = "Jan 2, 2006"
)

var (
	heightRe   = regexp.MustCompile(`(\d+)\s*cm`)
	weightRe   = regexp.MustCompile(`(\d+)\s*kg`)
	draftedRe  = regexp.MustCompile(`(\d{4}).*?round\s+(\d+).*?#(\d+)`)
	draftRe    = regexp.MustCompile(`(\d+)[a-z]{2}\s+round,\s+(\d+)[a-z]{2}\s+overall\s+\((\d{4})\)`)
	citationRe = regexp.MustCompile(`\[EP \d{4}\]`)

	errMissing = errors.New("not present")
)

// PlayerFacts reads the facts block on a caller-owned session. A facts section that
// never appears fails the whole call; anything inside it is best effort.
func (c *Client) PlayerFacts(ctx context.Context, b browser.Browser, meta PlayerMetadata) (*PlayerFacts, error) {
	url := c.absURL(meta.ProfileLink)
	c.log().Info("collecting facts", "player", meta.PlayerName, "url", url)

	if err := b.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := c.NavDelay.Wait(ctx); err != nil {
		return nil, err
	}
	if err := b.WaitReady(ctx, factsSectionSel, c.WaitTimeout); err != nil {
		return nil, fmt.Errorf("facts for %s: %w: %v", meta.PlayerName, ErrFactsNotFound, err)
	}
	html, err := b.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("facts for %s: %w", meta.PlayerName, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("facts for %s: %w", meta.PlayerName, err)
	}
	section := doc.Find(factsSectionSel).First()
	if section.Length() == 0 {
		return nil, fmt.Errorf("facts for %s: %w", meta.PlayerName, ErrFactsNotFound)
	}
	f := parseFacts(c.log().With("player", meta.PlayerName), section, meta)
	return &f, nil
}

// FetchPlayerFacts owns a browser session for one player; failure is logged and nil.
func (c *Client) FetchPlayerFacts(ctx context.Context, meta PlayerMetadata) *PlayerFacts {
	b, err := c.Launcher.Launch(ctx)
	if err != nil {
		c.log().Error("launch browser", "player", meta.PlayerName, "err", err)
		return nil
	}
	defer closeBrowser(c, b)

	f, err := c.PlayerFacts(ctx, b, meta)
	if err != nil {
		c.log().Error("failed to get facts", "player", meta.PlayerName, "err", err)
		return nil
	}
	return f
}

// PlayersFacts runs a batch on one session, skipping players whose facts fail.
func (c *Client) PlayersFacts(ctx context.Context, metas []PlayerMetadata) ([]PlayerFacts, error) {
	if len(metas) == 0 {
		return nil, nil
	}
	b, err := c.Launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer closeBrowser(c, b)

	var out []PlayerFacts
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		f, err := c.PlayerFacts(ctx, b, m)
		if err != nil {
			c.log().Warn("player facts skipped", "player", m.PlayerName, "err", err)
			continue
		}
		out = append(out, *f)
	}
	return out, nil
}

// ParseFacts extracts every field of a #player-facts section.
func ParseFacts(section *goquery.Selection, meta PlayerMetadata) PlayerFacts {
	return parseFacts(slog.Default(), section, meta)
}

type factsPage struct {
	section *goquery.Selection
	labels  map[string]string
}

// factField is one isolated extraction step. A failing step leaves its fields at
// their defaults and does not stop later steps.
type factField struct {
	name    string
	extract func(p *factsPage, f *PlayerFacts) error
}

// Order matters: the list steps fill labels for the steps after them.
var factFields = []factField{
	{"main facts", func(p *factsPage, _ *PlayerFacts) error {
		return readFactList(p.section.Find(factsListSel).First(), p.labels)
	}},
	{"extra facts", func(p *factsPage, _ *PlayerFacts) error {
		if err := readFactList(p.section.Find(extraFactsSel).First(), p.labels); err != nil {
			return err
		}
		if d, ok := p.labels["Drafted"]; ok {
			if s := FormatDrafted(d); s != "" {
				p.labels["Draft"] = s
			}
		}
		return nil
	}},
	{"labels", func(p *factsPage, f *PlayerFacts) error {
		f.Nation = p.labels["Nation"]
		f.Position = p.labels["Position"]
		f.Shoots = p.labels["Shoots"]
		f.Rights = p.labels["NHL Rights"]
		return nil
	}},
	{"date of birth", func(p *factsPage, f *PlayerFacts) error {
		v, ok := p.labels["Date of Birth"]
		if !ok {
			return nil
		}
		t, err := time.Parse(DateOfBirthLayout, v)
		if err != nil {
			return err
		}
		f.DateOfBirth = &t
		return nil
	}},
	{"height", func(p *factsPage, f *PlayerFacts) error {
		f.HeightCM = unitValue(heightRe, p.labels["Height"])
		return nil
	}},
	{"weight", func(p *factsPage, f *PlayerFacts) error {
		f.WeightKG = unitValue(weightRe, p.labels["Weight"])
		return nil
	}},
	{"draft", func(p *factsPage, f *PlayerFacts) error {
		f.Draft = ParseDraft(p.labels["Draft"])
		return nil
	}},
	{"highlights", func(p *factsPage, f *PlayerFacts) error {
		p.section.Find(highlightSel).Each(func(_ int, s *goquery.Selection) {
			if v := strings.TrimSpace(s.AttrOr("data-tooltip-content", "")); v != "" {
				f.Highlights = append(f.Highlights, v)
			}
		})
		return nil
	}},
	{"player types", func(p *factsPage, f *PlayerFacts) error {
		box := p.section.Find(playerTypesSel).First()
		if box.Length() == 0 {
			return fmt.Errorf("player types container %w", errMissing)
		}
		types := []string{}
		box.Find(chipSel).Each(func(_ int, s *goquery.Selection) {
			if v := cleanText(s.Text()); v != "" {
				types = append(types, v)
			}
		})
		f.PlayerTypes = types
		return nil
	}},
	{"description", func(p *factsPage, f *PlayerFacts) error {
		d := p.section.Find(descriptionSel).First()
		if d.Length() == 0 {
			return fmt.Errorf("description %w", errMissing)
		}
		f.Description = TruncateDescription(cleanText(d.Text()))
		return nil
	}},
}

func parseFacts(log *slog.Logger, section *goquery.Selection, meta PlayerMetadata) PlayerFacts {
	f := PlayerFacts{
		PlayerName:  meta.PlayerName,
		ProfileLink: meta.ProfileLink,
		Highlights:  []string{},
	}
	p := &factsPage{section: section, labels: map[string]string{}}
	for _, fld := range factFields {
		if err := runField(fld, p, &f); err != nil {
			log.Warn("facts field failed", "field", fld.name, "err", err)
		}
	}
	log.Debug("DEBUG facts: labels", "n", len(p.labels))
	return f
}

// runField contains both returned errors and panics of one step.
func runField(fld factField, p *factsPage, f *PlayerFacts) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fld.extract(p, f)
}

// readFactList copies label/value pairs of a facts <ul>. Items without a label are skipped.
func readFactList(list *goquery.Selection, into map[string]string) error {
	if list.Length() == 0 {
		return fmt.Errorf("facts list %w", errMissing)
	}
	list.Find("li").Each(func(_ int, li *goquery.Selection) {
		lab := li.Find(factLabelSel).First()
		if lab.Length() == 0 {
			return
		}
		label := cleanText(lab.Text())
		if label == "" {
			return
		}
		value := strings.TrimSpace(strings.Replace(cleanText(li.Text()), label, "", 1))
		into[label] = value
	})
	return nil
}

func unitValue(re *regexp.Regexp, s string) *int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	return atoiPtr(m[1])
}

// FormatDrafted rewrites the profile's "2017 round 1 #4 overall by ..." text into
// "1st round, 4th overall (2017)". Returns "" when the text does not match.
func FormatDrafted(s string) string {
	m := draftedRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%s round, %s overall (%s)", ordinal(m[2]), ordinal(m[3]), m[1])
}

func ordinal(n string) string {
	i := Atoi(n, -1)
	if i < 0 {
		return n
	}
	suffix := "th"
	switch {
	case i%100 >= 11 && i%100 <= 13:
	case i%10 == 1:
		suffix = "st"
	case i%10 == 2:
		suffix = "nd"
	case i%10 == 3:
		suffix = "rd"
	}
	return n + suffix
}

// ParseDraft reads "1st round, 4th overall (2017)". Anything else is nil.
func ParseDraft(s string) *DraftPick {
	if s == "" {
		return nil
	}
	m := draftRe.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return nil
	}
	return &DraftPick{Round: m[1], Overall: m[2], Year: m[3]}
}

// TruncateDescription trims a biography. A "[EP YYYY]" citation ends the text; without
// one the text is cut after its last period. Empty input is nil.
func TruncateDescription(text string) *string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if loc := citationRe.FindStringIndex(text); loc != nil {
		s := strings.TrimSpace(text[:loc[0]])
		if s == "" {
			return nil
		}
		return &s
	}
	if i := strings.LastIndex(text, "."); i >= 0 {
		text = text[:i+1]
	}
	return &text
}
