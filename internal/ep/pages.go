package ep

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const pageSize = 100

var playersFoundRe = regexp.MustCompile(`([\d\s]+)players found`)

// ParsePageCount reads the "N players found" pagination text. Interior whitespace in
// N is a thousands separator. Returns 0 when the indicator or the count is missing.
func ParsePageCount(doc *goquery.Document) int {
	div := doc.Find("div.table-pagination").First()
	if div.Length() == 0 {
		return 0
	}
	m := playersFoundRe.FindStringSubmatch(div.Text())
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.Join(strings.Fields(m[1]), ""))
	if err != nil {
		return 0
	}
	return n/pageSize + 1
}

// NumPages fetches a listing URL once and returns its page count.
func (c *Client) NumPages(ctx context.Context, url string) (int, error) {
	body, err := c.Fetcher.Get(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", url, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", url, err)
	}
	n := ParsePageCount(doc)
	c.log().Debug("DEBUG pages", "url", url, "pages", n)
	return n, nil
}
